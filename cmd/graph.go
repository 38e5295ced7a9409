package cmd

import (
	"github.com/spf13/cobra"

	"github.com/km-arc/go-planteuf/framework/factory"
)

func newGraphCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the registration graph",
		Long: `Print every registration and the keys its arguments reference.
Nothing is built.

Examples:
  planteuf graph | dot -Tsvg > graph.svg
  planteuf graph --format json | jq '.edges'
  planteuf graph -f yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApplication(opts)
			if err != nil {
				return err
			}
			g := factory.NewGraph()
			a.Visit(g)
			return g.Write(cmd.OutOrStdout(), factory.Format(format))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(factory.FormatDOT), "output format: dot, json or yaml")
	return cmd
}
