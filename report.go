package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brettboylen/reaction-tracker/api"
	"github.com/brettboylen/reaction-tracker/db"
	"github.com/brettboylen/reaction-tracker/display"
	"github.com/brettboylen/reaction-tracker/stats"
	"github.com/brettboylen/reaction-tracker/table"
	"github.com/brettboylen/reaction-tracker/utils"
)

type reportOptions struct {
	offline bool
	sort    string
	dir     string
	order   string
	moves   []string
}

// newReportCmd creates the report subcommand
func newReportCmd(opts *globalOptions) *cobra.Command {
	ropts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print reaction metrics and the reactions table",
		Long: "Fetch reactions once (or load the last stored snapshot with --offline) " +
			"and print summary metrics followed by the reactions table.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := setupLogger(opts.logLevel)
			log.SetOutput(cmd.ErrOrStderr())

			config, err := utils.LoadConfig(opts.envPath, log)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), cmd.OutOrStdout(), ropts, config, log)
		},
	}

	cmd.Flags().BoolVar(&ropts.offline, "offline", false, "Use the stored snapshot instead of fetching")
	cmd.Flags().StringVar(&ropts.sort, "sort", table.DefaultSort.ColumnID, "Column to sort by (empty for unsorted)")
	cmd.Flags().StringVar(&ropts.dir, "dir", string(table.DefaultSort.Direction), "Sort direction (asc or desc)")
	cmd.Flags().StringVar(&ropts.order, "order", "", "Comma-separated column order")
	cmd.Flags().StringArrayVar(&ropts.moves, "move", nil, "Move a column onto another, as dragged:target (repeatable)")

	return cmd
}

func runReport(ctx context.Context, out io.Writer, opts *reportOptions, config *utils.Config, log *logrus.Logger) error {
	state, err := reportTableState(opts)
	if err != nil {
		return err
	}

	database, err := db.NewDatabase(config.Database.Path, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	reactionsAPI := api.NewReactionsAPI(config.Reactions.APIURL, config.Reactions.MaxRequestsPerMinute, log)
	collector := stats.NewCollector(reactionsAPI, database, config.Reactions.PollingInterval, log)

	if opts.offline {
		reactions, err := database.GetReactions()
		if err != nil {
			return err
		}
		collector.Load(reactions)
	} else if err := collector.Refresh(ctx); err != nil {
		return err
	}

	snapshot := collector.Snapshot()
	view, err := state.View(snapshot.Reactions)
	if err != nil {
		return err
	}

	formatter := display.NewTerminalFormatter()
	fmt.Fprint(out, formatter.FormatMetrics(snapshot.Metrics))
	fmt.Fprintln(out)
	fmt.Fprint(out, formatter.FormatTable(view))
	return nil
}

// reportTableState builds the table state from the report flags
func reportTableState(opts *reportOptions) (table.State, error) {
	columns := table.DefaultColumns()

	sorting := table.SortState{}
	if opts.sort != "" {
		direction, err := table.ParseDirection(opts.dir)
		if err != nil {
			return table.State{}, err
		}
		sorting = table.SortState{ColumnID: opts.sort, Direction: direction}
	}

	state, err := table.Restore(columns, table.ColumnOrder(utils.ParseList(opts.order)), sorting)
	if err != nil {
		return table.State{}, err
	}

	for _, move := range opts.moves {
		dragged, target, ok := strings.Cut(move, ":")
		if !ok {
			return table.State{}, fmt.Errorf("invalid --move %q: want dragged:target", move)
		}
		if state, err = state.MoveColumn(strings.TrimSpace(dragged), strings.TrimSpace(target)); err != nil {
			return table.State{}, err
		}
	}

	return state, nil
}
