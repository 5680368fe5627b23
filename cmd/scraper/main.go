package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kluster/lead-scraper/internal/config"
	"kluster/lead-scraper/internal/db"
	"kluster/lead-scraper/internal/jobs"
	"kluster/lead-scraper/internal/models"
	"kluster/lead-scraper/internal/providers"
	"kluster/lead-scraper/internal/worker"
)

type jobRunner interface {
	RunOne(ctx context.Context, id uuid.UUID) (jobs.Outcome, error)
	RunPending(ctx context.Context) (worker.Summary, error)
}

// resolveJobID prefers the positional argument over SCRAPE_JOB_ID.
func resolveJobID(args []string, envID string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return envID
}

// run processes one job when jobID is set and every pending job otherwise.
// Jobs that fail are recorded in the store and do not make run fail.
func run(ctx context.Context, r jobRunner, log logrus.FieldLogger, jobID string) error {
	if jobID == "" {
		_, err := r.RunPending(ctx)
		return err
	}

	id, err := uuid.Parse(jobID)
	if err != nil {
		log.WithField("job_id", jobID).Error("Job not found")
		return fmt.Errorf("%w: %s", worker.ErrJobNotFound, jobID)
	}

	out, err := r.RunOne(ctx, id)
	if errors.Is(err, worker.ErrJobNotFound) {
		log.WithField("job_id", jobID).Error("Job not found")
		return err
	}
	if err != nil {
		return err
	}
	if out.Status == models.JobStatusFailed {
		log.WithField("job_id", jobID).WithError(out.Err).Warn("Job finished with failure")
	}
	return nil
}

func newRunner(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*worker.Runner, func(), error) {
	store, err := db.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	scraper := jobs.NewScraper(store,
		providers.NewSerper(cfg, log),
		providers.NewSerpAPI(cfg, log),
		log)
	return worker.NewRunner(store, scraper, log), store.Close, nil
}

func newRootCmd(cfg *config.Config, log logrus.FieldLogger) *cobra.Command {
	return &cobra.Command{
		Use:           "scraper [job-id]",
		Short:         "Runs local-business scrape jobs",
		Long:          "Processes the given scrape job, or SCRAPE_JOB_ID, or every pending job.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, closeStore, err := newRunner(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			return run(ctx, runner, log, resolveJobID(args, cfg.JobID))
		},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	logger := config.NewLogger(cfg)
	log := logger.WithField("run_id", uuid.NewString())
	log.Info("Starting scraper")

	if err := newRootCmd(cfg, log).ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Error("Scraper run failed")
		os.Exit(1)
	}
}
