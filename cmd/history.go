package cmd

import (
	"context"
	"fmt"
	"go/types"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/anchor-demo/cmd/utils"
	"github.com/stellar/anchor-demo/internal/data"
	"github.com/stellar/anchor-demo/internal/demo"
	internalutils "github.com/stellar/anchor-demo/internal/utils"
)

const (
	defaultHistoryLimit = 20
	hashWidth           = 16
)

type historyCmd struct{}

func (c *historyCmd) Command() *cobra.Command {
	var databaseURL string
	var limit int
	var runID int
	cfgOpts := config.ConfigOptions{
		utils.DatabaseURLOption(&databaseURL),
		{
			Name:        "limit",
			Usage:       "How many of the latest runs to list.",
			OptType:     types.Int,
			ConfigKey:   &limit,
			FlagDefault: defaultHistoryLimit,
			Required:    false,
		},
		{
			Name:        "run-id",
			Usage:       "Show the steps of this run instead of the list of runs.",
			OptType:     types.Int,
			ConfigKey:   &runID,
			FlagDefault: 0,
			Required:    false,
		},
	}

	cmd := &cobra.Command{
		Use:               "history",
		Short:             "List past withdraw and deposit runs",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: utils.DefaultPersistentPreRunE(cfgOpts),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return fmt.Errorf("database-url cannot be empty")
			}
			models, dbConnectionPool, err := demo.OpenModels(cmd.Context(), databaseURL)
			if err != nil {
				return err
			}
			defer internalutils.DeferredClose(cmd.Context(), dbConnectionPool, "closing run history database")

			if runID > 0 {
				return printRunSteps(cmd.Context(), cmd.OutOrStdout(), models, int64(runID))
			}
			return printRuns(cmd.Context(), cmd.OutOrStdout(), models, limit)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func printRuns(ctx context.Context, out io.Writer, models *data.Models, limit int) error {
	runs, err := models.Runs.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		_, err = fmt.Fprintln(out, "No runs recorded yet.")
		return err //nolint:wrapcheck // writing to the terminal
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFLOW\tSTATUS\tHOME DOMAIN\tASSET\tANCHOR TX\tSTELLAR TX\tSTARTED") //nolint:errcheck // flushed below
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck // flushed below
			run.ID, run.Flow, run.Status, run.HomeDomain, run.AssetCode,
			orDash(run.AnchorTransactionID.String), orDash(internalutils.TruncateString(run.StellarTransactionHash.String, hashWidth)),
			run.StartedAt.Local().Format(time.DateTime))
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing runs: %w", err)
	}
	return nil
}

func printRunSteps(ctx context.Context, out io.Writer, models *data.Models, runID int64) error {
	run, err := models.Runs.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("getting run %d: %w", runID, err)
	}
	runSteps, err := models.RunSteps.GetByRunID(ctx, runID)
	if err != nil {
		return fmt.Errorf("getting steps of run %d: %w", runID, err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Run %d: %s of %s at %s, %s\n", run.ID, run.Flow, run.AssetCode, run.HomeDomain, run.Status) //nolint:errcheck // flushed below
	if run.ErrorMessage.Valid {
		fmt.Fprintf(w, "Error: %s\n", run.ErrorMessage.String) //nolint:errcheck // flushed below
	}
	fmt.Fprintln(w, "#\tSTEP\tDURATION\tERROR") //nolint:errcheck // flushed below
	for _, step := range runSteps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", //nolint:errcheck // flushed below
			step.Position, step.Name, time.Duration(step.DurationMS)*time.Millisecond, orDash(step.ErrorMessage.String))
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing run steps: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
