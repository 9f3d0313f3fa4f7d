package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDescriptorCmd(g *globals) *cobra.Command {
	var (
		formats []string
		output  string
		locale  string
	)

	cmd := &cobra.Command{
		Use:   "descriptor",
		Short: "Extract goal metadata and write the plugin descriptors",
		Long: `Extract goal metadata and write the plugin descriptors.

Scans the compiled classes for goal annotations and the sources for javadoc
tags, merges the documentation of goals and their superclasses, and writes
the formats selected with --format or [output] formats:

  xml     META-INF/maven/plugin.xml with plain text descriptions
  xhtml   META-INF/maven/plugin-enhanced.xml with XHTML descriptions
  pages   site/<goal>-mojo.html for every goal
  yaml    plugin-descriptor.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				g.cfg.Output.Dir = output
			}
			if locale != "" {
				g.cfg.Output.Locale = locale
			}
			s, err := g.session()
			if err != nil {
				return err
			}
			pd, links, err := s.Extract(cmd.Context())
			if err != nil {
				return err
			}
			written, err := s.Write(pd, links, formats)
			if err != nil {
				return err
			}
			fmt.Printf("Extracted %d goals from %s:%s:%s\n", len(pd.Mojos), pd.GroupID, pd.ArtifactID, pd.Version)
			for _, path := range written {
				fmt.Printf("  %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "output formats: xml, xhtml, pages, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory")
	cmd.Flags().StringVar(&locale, "locale", "", "locale of the goal pages")

	return cmd
}
