package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/sheet"
	"github.com/spf13/cobra"
)

// contextKeys are offered as --country-id, --state-id and so on.
var contextKeys = []bulkimport.ContextKey{
	bulkimport.KeyCountry,
	bulkimport.KeyState,
	bulkimport.KeyDistributor,
	bulkimport.KeyPharmacy,
}

func flagName(k bulkimport.ContextKey) string {
	return strings.ReplaceAll(string(k), "_", "-")
}

type importOptions struct {
	ids     map[bulkimport.ContextKey]*string
	tuning  bulkimport.Tuning
	dryRun  bool
	preview int
}

func newImportCmd(g *globals) *cobra.Command {
	opts := importOptions{ids: make(map[bulkimport.ContextKey]*string)}

	cmd := &cobra.Command{
		Use:   "import <entity> <file.xlsx|file.xls>",
		Short: "Upload a spreadsheet through the bulk-create endpoint",
		Long: "Reads the first sheet of the file, maps every row with the given IDs and\n" +
			"submits the records in batches. --dry-run stops after mapping and prints\n" +
			"what would be sent.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, g, opts, args[0], args[1])
		},
	}

	for _, k := range contextKeys {
		opts.ids[k] = cmd.Flags().String(flagName(k), "", k.Label()+" ID")
	}
	cmd.Flags().IntVar(&opts.tuning.BatchSize, "batch-size", 0, "Records per call (0 keeps the entity default)")
	cmd.Flags().DurationVar(&opts.tuning.BatchDelay, "batch-delay", 0, "Pause between calls (0 keeps the entity default)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Map the rows and print them without calling the API")
	cmd.Flags().IntVar(&opts.preview, "preview", 20, "Rows to print in a dry run (0 prints all)")
	return cmd
}

func runImport(cmd *cobra.Command, g *globals, opts importOptions, entity, path string) error {
	p, err := g.registry.Lookup(entity)
	if err != nil {
		return err
	}
	p = p.WithTuning(opts.tuning)

	var c bulkimport.Context
	for k, v := range opts.ids {
		c.Set(k, pharmaapi.ID(*v))
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	rows, err := sheet.Decode(filepath.Base(path), f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cands, err := p.MapAll(rows, c)
	if err != nil {
		var missing *bulkimport.MissingContextError
		if errors.As(err, &missing) {
			flags := make([]string, len(missing.Keys))
			for i, k := range missing.Keys {
				flags[i] = "--" + flagName(k)
			}
			return fmt.Errorf("%s needs %s", p.Entity, strings.Join(flags, ", "))
		}
		return err
	}

	out := cmd.OutOrStdout()
	if opts.dryRun {
		return printPreview(out, p, cands, opts.preview)
	}

	if g.apiURL == "" {
		return fmt.Errorf("no API URL: pass --api-url or set %s", envAPIURL)
	}
	if g.token == "" {
		return fmt.Errorf("no API token: pass --token or set %s", envAPIToken)
	}
	client, err := pharmaapi.New(g.apiURL, g.apiTimeout, g.log)
	if err != nil {
		return err
	}

	sub := &bulkimport.Submitter{API: client.WithToken(g.token), Log: g.log}
	fmt.Fprintf(out, "%s: %d rows in %d batches of %d\n",
		p.Label, len(cands), len(bulkimport.Partition(cands, p.BatchSize)), p.BatchSize)

	res := sub.Run(cmd.Context(), p, cands, bulkimport.Options{
		OnProgress: func(pr bulkimport.Progress) {
			fmt.Fprintf(out, "batch %d/%d  %3d%%  created %d  failed %d\n",
				pr.Batch, pr.TotalBatches, pr.Percent, pr.Created, pr.Failed)
		},
	})
	return printResult(out, res)
}

func printPreview(w io.Writer, p bulkimport.Profile, cands []bulkimport.Candidate, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\t"+strings.Join(p.Headers(), "\t"))
	for i, c := range cands {
		if limit > 0 && i >= limit {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\n", i+1, strings.Join(c.Cells(), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d rows mapped, nothing sent\n", len(cands))
	return nil
}

func printResult(w io.Writer, res bulkimport.Result) error {
	fmt.Fprintf(w, "total %d  created %d  failed %d  skipped %d\n",
		res.Total, res.Created, res.Failed, res.Skipped)
	for _, e := range res.Errors {
		fmt.Fprintln(w, "  "+e.String())
	}
	switch {
	case res.Cancelled:
		return fmt.Errorf("import cancelled after %d records", res.Created+res.Failed)
	case res.Failed > 0:
		return fmt.Errorf("%d of %d records failed", res.Failed, res.Total)
	}
	return nil
}
