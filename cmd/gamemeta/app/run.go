package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/gamemeta/internal/checkpoint"
	"github.com/agentstation/gamemeta/internal/matcher"
	"github.com/agentstation/gamemeta/internal/pipeline"
	"github.com/agentstation/gamemeta/internal/retry"
	"github.com/agentstation/gamemeta/internal/workqueue"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/logging"
	"github.com/agentstation/gamemeta/pkg/provenance"
)

// NewRunCommand creates the run command.
func (a *App) NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Reconcile the work queue into the output store",
		Long: `Run reads the game names of the input file, queries every configured
source for each of them and appends the reconciled records to the output
store. The output store is locked for the duration of the run. A run that
was interrupted resumes after the last stored record.

The output store is a CSV file, or a SQLite database when the path ends in
.db, .sqlite or .sqlite3.`,
		Example: `  gamemeta run --input data/reviews.csv --output data/games.csv
  gamemeta run --sources rawg,igdb --concurrent
  gamemeta run --provenance data/provenance.yaml --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: a.runPipeline,
	}

	c := a.config
	flags := cmd.Flags()
	flags.StringVarP(&c.Input, "input", "i", c.Input, "work queue CSV file")
	flags.StringVar(&c.Column, "column", c.Column, "work queue column holding game names")
	flags.StringVarP(&c.Output, "output", "o", c.Output, "output store (.csv, or .db/.sqlite/.sqlite3 for SQLite)")
	flags.StringSliceVar(&c.Sources, "sources", c.Sources, "sources to query, in any order")
	flags.Float64Var(&c.GoodRatio, "good-ratio", c.GoodRatio, "name similarity above which a candidate is a strong match")
	flags.Float64Var(&c.MinRatio, "min-ratio", c.MinRatio, "name similarity above which a dated candidate may match")
	flags.DurationVar(&c.RateLimitBackoff, "rate-limit-backoff", c.RateLimitBackoff, "delay before retrying a throttled call")
	flags.IntVar(&c.MaxRateLimitRetries, "max-rate-limit-retries", c.MaxRateLimitRetries, "consecutive throttles that abort the run")
	flags.DurationVar(&c.RetryDelay, "retry-delay", c.RetryDelay, "delay between failed attempts of one game")
	flags.IntVar(&c.MaxRetries, "max-retries", c.MaxRetries, "failed attempts after which a game is abandoned")
	flags.DurationVar(&c.CourtesyDelay, "courtesy-delay", c.CourtesyDelay, "delay after every provider call")
	flags.IntVar(&c.SaveEvery, "save-every", c.SaveEvery, "successful games per checkpoint flush")
	flags.BoolVar(&c.Concurrent, "concurrent", c.Concurrent, "query the sources of one game in parallel")
	flags.StringVar(&c.Provenance, "provenance", c.Provenance, "write the origin of every field to this YAML file")
	flags.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address")
	flags.Float64Var(&c.RequestsPerSecond, "requests-per-second", c.RequestsPerSecond, "HTTP requests per second per source (negative disables pacing)")

	return cmd
}

func (a *App) runPipeline(cmd *cobra.Command, _ []string) (err error) {
	cfg := a.config
	if err := cfg.Validate(); err != nil {
		return err
	}
	ids, err := cfg.SourceIDs()
	if err != nil {
		return err
	}

	ctx := logging.WithOperation(logging.WithLogger(cmd.Context(), a.logger), "run")
	logger := logging.FromContext(ctx)

	queue, err := workqueue.Load(cfg.Input, cfg.Column)
	if err != nil {
		return err
	}
	set, err := a.Sources(ids)
	if err != nil {
		return err
	}

	manager, err := checkpoint.Open(cfg.Output, checkpoint.WithSaveEvery(cfg.SaveEvery))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := manager.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if cfg.MetricsAddr != "" {
		a.ServeMetrics(cfg.MetricsAddr)
	}

	controller := retry.New(retry.Config{
		RateLimitBackoff:    cfg.RateLimitBackoff,
		MaxRateLimitRetries: cfg.MaxRateLimitRetries,
		CourtesyDelay:       cfg.CourtesyDelay,
	})
	tracker := provenance.NewTracker(cfg.Provenance != "")
	p := pipeline.New(set, controller, manager,
		pipeline.Config{
			SearchLimit: constants.SearchLimit,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			Concurrent:  cfg.Concurrent,
		},
		pipeline.WithMatcher(matcher.Matcher{GoodRatio: cfg.GoodRatio, MinRatio: cfg.MinRatio}),
		pipeline.WithTracker(tracker),
		pipeline.WithOutput(cmd.OutOrStdout()),
	)

	logger.Info().
		Int("entities", len(queue)).
		Int("sources", set.Len()).
		Str("output", cfg.Output).
		Bool("concurrent", cfg.Concurrent).
		Msg("Starting run")

	summary, err := p.Run(ctx, queue)

	if cfg.Provenance != "" {
		if saveErr := provenance.Save(cfg.Provenance, tracker.Map()); saveErr != nil {
			err = errors.Join(err, saveErr)
		} else {
			logger.Info().Str("path", cfg.Provenance).Msg("Saved provenance")
		}
	}

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.
		Int("total", summary.Total).
		Int("skipped", summary.Skipped).
		Int("succeeded", summary.Succeeded).
		Int("abandoned", summary.Abandoned).
		Int("flushes", summary.Flushes).
		Bool("aborted", summary.Aborted).
		Dur("duration", summary.Duration).
		Msg("Run finished")
	return err
}
