// Package ui serves an extracted plugin for review: an index of its goals,
// the goal pages and the descriptor files, rendered on every request.
package ui

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/plugintools/converter"
	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/extractor"
	"github.com/dhamidi/plugintools/generator"
	"github.com/dhamidi/plugintools/metrics"
)

var log = commonlog.GetLogger("plugintools.ui")

//go:embed templates
var embeddedFS embed.FS

// ExtractFunc produces the descriptor shown by the server.
type ExtractFunc func(ctx context.Context) (*extractor.PluginDescriptor, *docsite.LinkGenerator, error)

type Options struct {
	Locale generator.Locale
	// Extract, if set, is run by POST /refresh.
	Extract ExtractFunc
}

type Server struct {
	opts      Options
	templates *template.Template
	mux       *http.ServeMux

	mu     sync.RWMutex
	plugin *extractor.PluginDescriptor
	links  *docsite.LinkGenerator
}

func NewServer(pd *extractor.PluginDescriptor, links *docsite.LinkGenerator, opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"plain": converter.PlainText,
		"page":  generator.PageFileName,
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(embeddedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		opts:      opts,
		templates: tmpl,
		mux:       http.NewServeMux(),
		plugin:    pd,
		links:     links,
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /goals/{page}", s.handleGoal)
	s.mux.HandleFunc("GET /META-INF/maven/{file}", s.handleDescriptor)
	s.mux.HandleFunc("GET /"+generator.YAMLFileName, s.handleYAML)
	s.mux.HandleFunc("POST /refresh", s.handleRefresh)
	s.mux.Handle("GET /metrics", metrics.Handler())
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) current() (*extractor.PluginDescriptor, *docsite.LinkGenerator) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plugin, s.links
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Errorf("render %s: %s", name, err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	pd, _ := s.current()
	data := struct {
		Plugin  *extractor.PluginDescriptor
		Refresh bool
	}{
		Plugin:  pd,
		Refresh: s.opts.Extract != nil,
	}
	s.render(w, "index.html", data)
}

// findGoal looks up a goal by its page file name.
func findGoal(pd *extractor.PluginDescriptor, page string) (*extractor.MojoDescriptor, bool) {
	for _, m := range pd.Mojos {
		if generator.PageFileName(m.Goal) == page {
			return m, true
		}
	}
	return nil, false
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	pd, links := s.current()
	m, ok := findGoal(pd, r.PathValue("page"))
	if !ok {
		http.Error(w, "goal not found", http.StatusNotFound)
		return
	}

	if r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := generator.WritePage(w, pd, m, generator.PageOptions{Locale: s.opts.Locale, Links: links})
	if err != nil {
		log.Errorf("render goal %s: %s", m.Goal, err)
	}
}

func (s *Server) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	var typ generator.DescriptorType
	switch r.PathValue("file") {
	case generator.DescriptorFileName(generator.Standard):
		typ = generator.Standard
	case generator.DescriptorFileName(generator.XHTML):
		typ = generator.XHTML
	default:
		http.NotFound(w, r)
		return
	}
	pd, links := s.current()
	s.write(w, "application/xml", func(out io.Writer) error {
		return generator.WriteDescriptor(out, pd, typ, links)
	})
}

func (s *Server) handleYAML(w http.ResponseWriter, r *http.Request) {
	pd, _ := s.current()
	s.write(w, "application/yaml", func(out io.Writer) error {
		return generator.WriteYAML(out, pd)
	})
}

func (s *Server) write(w http.ResponseWriter, contentType string, render func(io.Writer) error) {
	w.Header().Set("Content-Type", contentType)
	if err := render(w); err != nil {
		log.Errorf("render: %s", err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.opts.Extract == nil {
		http.Error(w, "refresh is not available", http.StatusNotImplemented)
		return
	}
	pd, links, err := s.opts.Extract(r.Context())
	if err != nil {
		http.Error(w, "extract: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.plugin, s.links = pd, links
	s.mu.Unlock()
	log.Infof("refreshed %s, %d goals", pd.ArtifactID, len(pd.Mojos))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
