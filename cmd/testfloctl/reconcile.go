package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robotomize/go-testflo/internal/logging"
	"github.com/robotomize/go-testflo/internal/reconcile"
	"github.com/robotomize/go-testflo/internal/testflo"
)

var persistedFileFlag string

// reconcileVerdict is one output line of the reconcile command.
type reconcileVerdict struct {
	Name          string         `json:"name"`
	Tracked       bool           `json:"tracked"`
	Current       bool           `json:"current"`
	MismatchIndex int            `json:"mismatchIndex"`
	Fresh         []testflo.Step `json:"fresh,omitempty"`
}

func init() {
	reconcileCmd.Flags().StringVarP(
		&persistedFileFlag,
		"persisted",
		"p",
		"",
		"json object mapping record names to their tracked step rows",
	)

	_ = reconcileCmd.MarkFlagRequired("persisted")

	rootCmd.AddCommand(reconcileCmd)
}

var reconcileCmd = &cobra.Command{
	Use:          "reconcile [report.json|-]",
	Long:         "Check tracked step tables against the steps of a fresh report",
	Short:        "reconcile tracked steps",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		persisted, err := readPersisted(persistedFileFlag)
		if err != nil {
			return err
		}

		ing, err := newIngester(cfg)
		if err != nil {
			return err
		}

		r, err := openReport(cmd, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		batch, err := ing.Reader(ctx, args[0], r)
		if err != nil {
			return fmt.Errorf("ingest Reader: %w", err)
		}

		logger := logging.New("reconcile")
		enc := json.NewEncoder(cmd.OutOrStdout())

		var stale int
		for _, record := range batch.Records() {
			steps, tracked := persisted[record.RecordName()]

			verdict := reconcile.Untracked(record.StepRows())
			if tracked {
				verdict = reconcile.Check(steps, record.StepRows())
			}
			if !verdict.Current {
				stale++
			}

			if err := enc.Encode(
				reconcileVerdict{
					Name:          record.RecordName(),
					Tracked:       tracked,
					Current:       verdict.Current,
					MismatchIndex: verdict.MismatchIndex,
					Fresh:         verdict.Fresh,
				},
			); err != nil {
				return fmt.Errorf("json.NewEncoder.Encode: %w", err)
			}
		}

		logger.Info("reconciliation completed", slog.Int("records", len(batch.Records())), slog.Int("stale", stale))

		return nil
	},
}

func readPersisted(pth string) (map[string][]testflo.Step, error) {
	data, err := os.ReadFile(pth)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}

	persisted := make(map[string][]testflo.Step)
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("json.Unmarshal %s: %w", pth, err)
	}

	return persisted, nil
}
