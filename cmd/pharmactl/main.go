// Command pharmactl drives the bulk import pipeline from a terminal: it
// lists the importable entities, writes blank templates and uploads a
// spreadsheet through the same batching the console uses.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	envAPIURL   = "PHARMAHUB_API_URL"
	envAPIToken = "PHARMAHUB_API_TOKEN"
)

// globals are the persistent flags every subcommand sees.
type globals struct {
	apiURL     string
	token      string
	apiTimeout time.Duration
	verbose    bool

	log      *zap.Logger
	registry *bulkimport.Registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	g := &globals{registry: bulkimport.NewRegistry(nil)}

	root := &cobra.Command{
		Use:           "pharmactl",
		Short:         "Bulk import tools for the pharmacy network",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.apiURL == "" {
				g.apiURL = os.Getenv(envAPIURL)
			}
			if g.token == "" {
				g.token = os.Getenv(envAPIToken)
			}
			if g.verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				g.log = l
			} else {
				g.log = zap.NewNop()
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.log != nil {
				_ = g.log.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&g.apiURL, "api-url", "", "API base URL (default $"+envAPIURL+")")
	pf.StringVar(&g.token, "token", "", "API bearer token (default $"+envAPIToken+")")
	pf.DurationVar(&g.apiTimeout, "api-timeout", 30*time.Second, "HTTP timeout for each API call")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Log every batch to stderr")

	root.AddCommand(
		newEntitiesCmd(g),
		newTemplateCmd(g),
		newImportCmd(g),
	)
	return root
}
