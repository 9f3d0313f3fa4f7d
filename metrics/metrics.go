// Package metrics holds the prometheus collectors of a scan.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClassesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plugintools_classes_scanned_total",
		Help: "Total number of class files read, by result.",
	}, []string{"result"})

	SourcesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plugintools_sources_parsed_total",
		Help: "Total number of Java source files parsed.",
	})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plugintools_phase_seconds",
		Help:    "Time spent in each extraction phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	DescriptorsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plugintools_descriptors_built_total",
		Help: "Total number of goal descriptors built.",
	})

	ReferencesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plugintools_references_total",
		Help: "Doc references processed by the converter, by outcome.",
	}, []string{"outcome"})

	SiteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plugintools_site_requests_total",
		Help: "HTTP requests made to documentation sites and repositories, by status class.",
	}, []string{"status"})

	SitesLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plugintools_sites_loaded",
		Help: "Documentation sites available to the link generator, by kind.",
	}, []string{"kind"})

	ArtifactDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plugintools_artifact_downloads_total",
		Help: "Artifacts downloaded from the repository, by classifier and result.",
	}, []string{"classifier", "result"})

	FilesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plugintools_files_written_total",
		Help: "Output files written, by format.",
	}, []string{"format"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plugintools_watcher_events_total",
		Help: "Total number of file system events received by the language server.",
	})
)

// WriteTextfile writes the default registry in the text exposition format,
// for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
