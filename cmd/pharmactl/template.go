package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/spf13/cobra"
)

func newTemplateCmd(g *globals) *cobra.Command {
	var (
		outDir       string
		pharmacyName string
	)

	cmd := &cobra.Command{
		Use:   "template <entity>",
		Short: "Write a blank import template (plantilla_<entity>.xlsx)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := g.registry.Lookup(args[0])
			if err != nil {
				return err
			}

			name := bulkimport.TemplateFileName(p, bulkimport.Context{PharmacyName: pharmacyName})
			path := filepath.Join(outDir, name)

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := bulkimport.WriteTemplate(f, p); err != nil {
				_ = f.Close()
				_ = os.Remove(path)
				return fmt.Errorf("write template: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write the template into")
	cmd.Flags().StringVar(&pharmacyName, "pharmacy-name", "", "Parent pharmacy name, appended to sub-pharmacy template names")
	return cmd
}
