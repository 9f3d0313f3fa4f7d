package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSitesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "Check the configured javadoc sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.session()
			if err != nil {
				return err
			}
			statuses := s.CheckSites(cmd.Context())
			if len(statuses) == 0 {
				fmt.Println("No javadoc sites configured.")
				return nil
			}
			for _, st := range statuses {
				kind := "external"
				if st.Internal {
					kind = "internal"
				}
				switch {
				case st.Err != nil:
					fmt.Printf("%-8s %s\n         unavailable: %s\n", kind, st.URL, st.Err)
				case st.Site.Offline():
					fmt.Printf("%-8s %s\n         %s, all packages\n", kind, st.URL, st.Site.Generation())
				default:
					fmt.Printf("%-8s %s\n         %s, %d packages\n", kind, st.URL, st.Site.Generation(), len(st.Site.Packages()))
				}
			}
			return nil
		},
	}
}
