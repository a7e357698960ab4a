package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robotomize/go-testflo/internal/config"
	"github.com/robotomize/go-testflo/internal/exporter"
	reportfs "github.com/robotomize/go-testflo/internal/fs"
	"github.com/robotomize/go-testflo/internal/ingest"
	"github.com/robotomize/go-testflo/internal/logging"
	"github.com/robotomize/go-testflo/internal/parser"
	"github.com/robotomize/go-testflo/internal/status"
	"github.com/robotomize/go-testflo/internal/testflo"
)

// stdinName selects standard input in place of a report directory or file.
const stdinName = "-"

var (
	configFileFlag  string
	inputDirFlag    string
	outputDirFlag   string
	modeFlag        string
	skippedFlag     string
	logLevelFlag    string
	logFormatFlag   string
	concurrencyFlag int
	silentOutput    bool
	failExit        bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFileFlag,
		"config",
		"",
		"",
		"path to the config file (default "+config.DefaultFileName+")",
	)
	rootCmd.PersistentFlags().StringVarP(
		&modeFlag,
		"mode",
		"m",
		"",
		"record granularity: --mode scenario|feature",
	)
	rootCmd.PersistentFlags().StringVarP(
		&skippedFlag,
		"skipped",
		"",
		"",
		"how skipped steps affect the verdict: --skipped passes|fails",
	)
	rootCmd.PersistentFlags().StringVarP(
		&logLevelFlag,
		"log-level",
		"",
		"",
		"log level: debug, info, warn, error",
	)
	rootCmd.PersistentFlags().StringVarP(
		&logFormatFlag,
		"log-format",
		"",
		"",
		"log format: text, json",
	)
	rootCmd.PersistentFlags().IntVarP(
		&concurrencyFlag,
		"concurrency",
		"c",
		0,
		"number of reports parsed at once, 0 means one per CPU",
	)
	rootCmd.Flags().StringVarP(
		&inputDirFlag,
		"input",
		"i",
		"",
		"directory with cucumber json reports, - reads a single report from stdin",
	)
	rootCmd.Flags().StringVarP(
		&outputDirFlag,
		"output",
		"o",
		"",
		"output path to records and screenshots: -o <output-path>",
	)
	rootCmd.Flags().BoolVarP(
		&silentOutput,
		"silent",
		"s",
		false,
		"silent record output(JSON)",
	)
	rootCmd.Flags().BoolVarP(
		&failExit,
		"fail-exit",
		"e",
		false,
		"exit with code 1 when any record failed",
	)
}

var rootCmd = &cobra.Command{
	Use:          "testfloctl",
	Long:         "Convert cucumber json reports into canonical test records",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		ing, err := newIngester(cfg)
		if err != nil {
			return err
		}

		logger := logging.New("testfloctl")

		var batches []ingest.Batch
		if useStdin(cmd, cfg.InputDir) {
			logger.Info("reading report from stdin")

			b, err := ing.Reader(ctx, stdinName, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("ingest Reader: %w", err)
			}

			batches = append(batches, b)
		} else {
			batches, err = ing.Dir(ctx, reportfs.New(cfg.InputDir))
			if err != nil {
				return fmt.Errorf("ingest Dir: %w", err)
			}
		}

		report := exporter.Export(batches)
		if report.Err != nil {
			logger.Warn("export finished with errors", slog.Any("error", report.Err))
		}

		var outOpts []exporter.WriterOption
		if cfg.OutputDir != "" {
			outOpts = append(outOpts, exporter.WriteToFile(cfg.OutputDir))
		}

		if !silentOutput {
			outOpts = append(outOpts, exporter.WriteReportTo(cmd.OutOrStdout()))
		}

		writer := exporter.NewWriter(outOpts...)
		if err := writer.WriteReport(ctx, report.Envelopes); err != nil {
			return fmt.Errorf("exporter.NewWriter WriteReport: %w", err)
		}

		if err := writer.WriteAttachments(ctx, report.Attachments); err != nil {
			return fmt.Errorf("exporter.NewWriter WriteAttachments: %w", err)
		}

		logger.Info(
			"conversion completed",
			slog.Int("records", len(report.Envelopes)),
			slog.Int("screenshots", len(report.Attachments)),
		)

		if failExit && anyFailed(report.Envelopes) {
			logger.Error("one or more records failed, exiting with error 1")
			os.Exit(1)
		}

		return nil
	},
}

// resolveConfig loads the config file, applies the flags the user set on
// top of it and initializes logging.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFileFlag)
	if err != nil {
		return cfg, fmt.Errorf("config.Load: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir = inputDirFlag
	}

	if flags.Changed("output") {
		cfg.OutputDir = outputDirFlag
	}

	if flags.Changed("mode") {
		cfg.Mode = modeFlag
	}

	if flags.Changed("skipped") {
		cfg.Skipped = skippedFlag
	}

	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}

	if flags.Changed("log-format") {
		cfg.LogFormat = logFormatFlag
	}

	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrencyFlag
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config Validate: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, fmt.Errorf("logging.ParseLevel: %w", err)
	}

	logging.Init(level, cfg.LogFormat, cmd.ErrOrStderr())

	return cfg, nil
}

func newParser(cfg config.Config) (*parser.Parser, error) {
	policy, err := status.ParseSkippedPolicy(cfg.Skipped)
	if err != nil {
		return nil, fmt.Errorf("status.ParseSkippedPolicy: %w", err)
	}

	return parser.New(parser.WithSkippedPolicy(policy), parser.WithLogger(logging.New("parser"))), nil
}

func newIngester(cfg config.Config) (*ingest.Ingester, error) {
	p, err := newParser(cfg)
	if err != nil {
		return nil, err
	}

	mode, err := parser.ParseMode(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("parser.ParseMode: %w", err)
	}

	return ingest.New(
		p,
		ingest.WithMode(mode),
		ingest.WithLimit(cfg.Concurrency),
		ingest.WithLogger(logging.New("ingest")),
	), nil
}

// useStdin reports whether the report comes from stdin: either - was given
// or the input directory was left at its default and does not exist.
func useStdin(cmd *cobra.Command, inputDir string) bool {
	if inputDir == stdinName {
		return true
	}

	if cmd.Flags().Changed("input") {
		return false
	}

	_, err := os.Stat(inputDir)

	return errors.Is(err, fs.ErrNotExist)
}

func anyFailed(envelopes []exporter.Envelope) bool {
	for _, e := range envelopes {
		if e.Record.RecordStatus() == testflo.OutcomeFailed {
			return true
		}
	}

	return false
}

// openReport opens a report file or stdin.
func openReport(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == stdinName {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("os.Open: %w", err)
	}

	return f, nil
}
