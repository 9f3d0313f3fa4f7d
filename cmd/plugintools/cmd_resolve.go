package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/plugintools/java/javadoc"
)

func newResolveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <class> <reference>",
		Short: "Resolve a javadoc reference as written in a class",
		Long: `Resolve a javadoc reference as written in a class.

The reference uses the {@link} syntax, e.g. "List#add(Object)" or "#field".
Names are resolved against the class's imports, package and superclasses.
Prints the fully qualified reference, the constant value of static fields
and the URL of its javadoc page if a site covers it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.session()
			if err != nil {
				return err
			}
			r, err := s.Resolve(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", r.Reference)
			if r.Reference.MemberType != javadoc.MemberNone {
				fmt.Printf("  member type: %s\n", r.Reference.MemberType)
			}
			if r.Value != "" {
				fmt.Printf("  value: %s\n", r.Value)
			}
			if r.URL != "" {
				fmt.Printf("  url: %s\n", r.URL)
			} else {
				fmt.Printf("  url: none (no javadoc site covers this reference)\n")
			}
			return nil
		},
	}
}
