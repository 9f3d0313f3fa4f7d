package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/plugintools/generator"
	"github.com/dhamidi/plugintools/ui"
)

func newReportCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Serve the goal pages and descriptors for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.session()
			if err != nil {
				return err
			}
			pd, links, err := s.Extract(cmd.Context())
			if err != nil {
				return err
			}
			server, err := ui.NewServer(pd, links, ui.Options{
				Locale:  generator.LocaleFor(g.cfg.Output.Locale),
				Extract: s.Extract,
			})
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			displayAddr := addr
			if strings.HasPrefix(addr, ":") {
				displayAddr = "localhost" + addr
			}
			fmt.Printf("Serving %d goals at http://%s\n", len(pd.Mojos), displayAddr)
			return http.ListenAndServe(addr, server)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "address to listen on")

	return cmd
}
