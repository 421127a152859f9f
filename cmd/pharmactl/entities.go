package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEntitiesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the importable entities and what each one needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENTITY\tLABEL\tBATCH\tDELAY\tREQUIRES\tCOLUMNS")
			for _, p := range g.registry.All() {
				req := make([]string, len(p.Requires))
				for i, k := range p.Requires {
					req[i] = "--" + flagName(k)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
					p.Entity, p.Label, p.BatchSize, p.BatchDelay,
					strings.Join(req, " "), strings.Join(p.Headers(), ", "))
			}
			return tw.Flush()
		},
	}
}
