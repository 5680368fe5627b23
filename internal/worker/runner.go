package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kluster/lead-scraper/internal/jobs"
	"kluster/lead-scraper/internal/models"
)

// ErrJobNotFound is returned by RunOne when the requested job does not exist.
var ErrJobNotFound = errors.New("job not found")

// JobSource is where the runner reads jobs from.
type JobSource interface {
	ListPending(ctx context.Context) ([]models.ScrapeJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScrapeJob, error)
}

// Executor runs a single job to a terminal state.
type Executor interface {
	Execute(ctx context.Context, job models.ScrapeJob) (jobs.Outcome, error)
}

// Summary holds the totals of a run.
type Summary struct {
	Jobs      int
	Completed int
	Failed    int
	Companies int
}

func (s *Summary) add(o jobs.Outcome) {
	s.Jobs++
	s.Companies += o.Count
	if o.Status == models.JobStatusCompleted {
		s.Completed++
	} else {
		s.Failed++
	}
}

// Runner processes jobs one at a time in the calling goroutine.
type Runner struct {
	source JobSource
	exec   Executor
	log    logrus.FieldLogger
}

// NewRunner creates a Runner.
func NewRunner(source JobSource, exec Executor, log logrus.FieldLogger) *Runner {
	return &Runner{source: source, exec: exec, log: log}
}

// RunOne processes the job with the given id whatever its current status.
func (r *Runner) RunOne(ctx context.Context, id uuid.UUID) (jobs.Outcome, error) {
	job, err := r.source.GetByID(ctx, id)
	if err != nil {
		return jobs.Outcome{}, err
	}
	if job == nil {
		return jobs.Outcome{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return r.exec.Execute(ctx, *job)
}

// RunPending processes every pending job, oldest first. A failed job does not
// stop the run; an error from the store does.
func (r *Runner) RunPending(ctx context.Context) (Summary, error) {
	var sum Summary

	pending, err := r.source.ListPending(ctx)
	if err != nil {
		return sum, err
	}
	if len(pending) == 0 {
		r.log.Info("No pending jobs found")
		return sum, nil
	}
	r.log.WithField("count", len(pending)).Info("Found pending jobs")

	for _, job := range pending {
		out, err := r.exec.Execute(ctx, job)
		if err != nil {
			return sum, err
		}
		sum.add(out)
	}

	r.log.WithFields(logrus.Fields{
		"jobs":      sum.Jobs,
		"completed": sum.Completed,
		"failed":    sum.Failed,
		"companies": sum.Companies,
	}).Info("All pending jobs processed")
	return sum, nil
}
