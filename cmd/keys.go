package cmd

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-planteuf/framework/factory"
)

func newKeysCmd(opts *options) *cobra.Command {
	var (
		typeName  string
		namedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List registered keys",
		Long: `List registered keys, one per line, sorted.

--type takes a Go type as printed in keys (e.g. "*slog.Logger" or
"store.DocumentStore") and lists the registrations that can serve it,
including declared subtypes.

Examples:
  planteuf keys
  planteuf keys --type '*slog.Logger' --named
  planteuf keys -t store.DocumentStore`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApplication(opts)
			if err != nil {
				return err
			}

			var keys []factory.Key
			if typeName == "" {
				for _, k := range a.Keys() {
					if !namedOnly || k.Named() {
						keys = append(keys, k)
					}
				}
			} else {
				t, ok := knownTypes(a.Factory)[typeName]
				if !ok {
					return fmt.Errorf("no registration uses type %q", typeName)
				}
				keys = a.ListKeys(t, namedOnly)
			}

			lines := make([]string, len(keys))
			for i, k := range keys {
				lines[i] = k.String()
			}
			sort.Strings(lines)
			for _, l := range lines {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), l); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "only keys serving this Go type")
	cmd.Flags().BoolVar(&namedOnly, "named", false, "only named keys")
	return cmd
}

// knownTypes maps type names to the types of every registered key and every
// key a registration references.
func knownTypes(f *factory.Factory) map[string]reflect.Type {
	types := make(map[string]reflect.Type)
	f.Visit(factory.VisitorFunc(func(k factory.Key, c *factory.Creator) {
		types[k.Type.String()] = k.Type
		for _, dep := range c.Dependencies() {
			types[dep.Type.String()] = dep.Type
		}
	}))
	return types
}
