package generator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/extractor"
	"github.com/dhamidi/plugintools/metrics"
)

// Output formats.
const (
	FormatXML   = "xml"
	FormatXHTML = "xhtml"
	FormatPages = "pages"
	FormatYAML  = "yaml"
)

var Formats = []string{FormatXML, FormatXHTML, FormatPages, FormatYAML}

var ErrUnknownFormat = errors.New("unknown output format")

// Options select what WriteAll produces.
type Options struct {
	Dir     string
	Formats []string
	Locale  Locale
	Links   *docsite.LinkGenerator
}

// WriteAll writes every requested format below opts.Dir and returns the
// paths written. Descriptors go to META-INF/maven and goal pages to site.
func WriteAll(pd *extractor.PluginDescriptor, opts Options) ([]string, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{FormatXML}
	}
	for _, f := range formats {
		if !slices.Contains(Formats, f) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	}

	var written []string
	write := func(format, rel string, render func(io.Writer) error) error {
		path := filepath.Join(opts.Dir, filepath.FromSlash(rel))
		if err := writeFile(path, render); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Infof("wrote %s", path)
		metrics.FilesWritten.WithLabelValues(format).Inc()
		written = append(written, path)
		return nil
	}

	for _, f := range formats {
		var err error
		switch f {
		case FormatXML:
			err = write(f, "META-INF/maven/"+DescriptorFileName(Standard), func(w io.Writer) error {
				return WriteDescriptor(w, pd, Standard, nil)
			})
		case FormatXHTML:
			err = write(f, "META-INF/maven/"+DescriptorFileName(XHTML), func(w io.Writer) error {
				return WriteDescriptor(w, pd, XHTML, opts.Links)
			})
		case FormatYAML:
			err = write(f, YAMLFileName, func(w io.Writer) error {
				return WriteYAML(w, pd)
			})
		case FormatPages:
			for _, m := range sortedMojos(pd.Mojos) {
				err = write(f, "site/"+PageFileName(m.Goal), func(w io.Writer) error {
					return WritePage(w, pd, m, PageOptions{Locale: opts.Locale, Links: opts.Links})
				})
				if err != nil {
					break
				}
			}
		}
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := render(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
