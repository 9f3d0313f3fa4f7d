package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dhamidi/plugintools/lsp"
	"github.com/dhamidi/plugintools/metrics"
)

func newLSPCmd(g *globals) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the Language Server Protocol server on stdio.

Java files opened in the editor get warnings for {@link}, {@linkplain},
{@value} and @see references that cannot be resolved, and hovering a
reference shows what it resolves to. The classes directory is watched and
the index is rebuilt after every compile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.session()
			if err != nil {
				return err
			}
			links, err := s.Links(cmd.Context())
			if err != nil {
				return err
			}
			deps, _, err := s.Dependencies(cmd.Context())
			if err != nil {
				log.Warningf("dependencies are not indexed: %s", err)
			}
			classPath := []string{s.ClassesDir()}
			for _, d := range deps {
				classPath = append(classPath, d.Path)
			}
			classPath = append(classPath, s.PlatformClassPath()...)

			if metricsAddr != "" {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", metrics.Handler())
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						log.Errorf("metrics endpoint: %s", err)
					}
				}()
			}

			server := lsp.NewServer(version, lsp.Options{
				SourceRoots: s.SourceRoots(),
				ClassPath:   classPath,
				ClassesDirs: []string{s.ClassesDir()},
				Links:       links,
			})
			return server.RunStdio()
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	return cmd
}
