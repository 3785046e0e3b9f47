package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgast/dialogcheck/pkg/history"
	"github.com/cgast/dialogcheck/pkg/runner"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "history [suite]",
		Short: "List recorded runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(a.cfg.History.Path, 0)
			if err != nil {
				return err
			}
			defer store.Close()

			var name string
			if len(args) == 1 {
				name = args[0]
			}
			entries, err := store.List(name)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			printEntries(cmd.OutOrStdout(), newPalette(a.cfg.Color), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many recent runs (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print entries as JSON")
	return cmd
}

func newDiffCmd(a *app) *cobra.Command {
	var suiteName string
	cmd := &cobra.Command{
		Use:   "diff [<run-a> <run-b>]",
		Short: "Compare two recorded runs",
		Long: `diff compares two runs by id. With --suite it compares the two most
recent runs of that suite. It exits 1 when a case regressed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if suiteName == "" && len(args) != 2 {
				return fmt.Errorf("diff needs two run ids or --suite")
			}
			if suiteName != "" && len(args) != 0 {
				return fmt.Errorf("diff takes either two run ids or --suite, not both")
			}

			store, err := openHistory(a.cfg.History.Path, 0)
			if err != nil {
				return err
			}
			defer store.Close()

			before, after, err := loadPair(store, suiteName, args)
			if err != nil {
				return err
			}
			changes := history.Compare(before, after)
			printChanges(cmd.OutOrStdout(), newPalette(a.cfg.Color), before, after, changes)
			if len(history.Regressions(changes)) > 0 {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&suiteName, "suite", "s", "", "Compare the latest two runs of this suite")
	return cmd
}

func loadPair(store history.Store, suiteName string, ids []string) (runner.Report, runner.Report, error) {
	if suiteName != "" {
		entries, err := store.List(suiteName)
		if err != nil {
			return runner.Report{}, runner.Report{}, fmt.Errorf("list runs: %w", err)
		}
		if len(entries) < 2 {
			return runner.Report{}, runner.Report{}, fmt.Errorf("suite %q has %d recorded run(s), need 2", suiteName, len(entries))
		}
		ids = []string{entries[len(entries)-2].ID, entries[len(entries)-1].ID}
	}

	a, err := store.Get(ids[0])
	if err != nil {
		return runner.Report{}, runner.Report{}, err
	}
	b, err := store.Get(ids[1])
	if err != nil {
		return runner.Report{}, runner.Report{}, err
	}
	return a, b, nil
}
