package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/plugintools/build"
)

func newLinkCmd(g *globals) *cobra.Command {
	var internal bool

	cmd := &cobra.Command{
		Use:   "link <binaryName|reference>",
		Short: "Print the javadoc URL of a class or a fully qualified reference",
		Long: `Print the javadoc URL of a class or a fully qualified reference.

The argument is either a binary class name such as java.util.Map$Entry or a
fully qualified reference such as java.util.List#add(int,java.lang.Object).
External sites are searched in configured order; --internal links into the
internal site instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.session()
			if err != nil {
				return err
			}
			links, err := s.Links(cmd.Context())
			if err != nil {
				return err
			}
			u, err := build.LinkFor(links, args[0], internal)
			if err != nil {
				return err
			}
			fmt.Println(u)
			return nil
		},
	}

	cmd.Flags().BoolVar(&internal, "internal", false, "treat the reference as part of the plugin's own sources")

	return cmd
}
