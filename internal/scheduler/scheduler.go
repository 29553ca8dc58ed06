package scheduler

import (
	"time"

	"github.com/adhocore/gronx"

	"github.com/nullclaw/nullclaw/internal/logger"
	"github.com/nullclaw/nullclaw/internal/scrub"
)

// Scheduler polls a fixed set of cron jobs at PollInterval and runs
// those due, via gronx's cron-expression matcher.
type Scheduler struct {
	Jobs         []Job
	PollInterval time.Duration

	cron    gronx.Gronx
	lastRun map[string]time.Time
}

// NewScheduler builds a Scheduler over jobs, polling every pollInterval.
func NewScheduler(jobs []Job, pollInterval time.Duration) *Scheduler {
	return &Scheduler{
		Jobs:         jobs,
		PollInterval: pollInterval,
		cron:         gronx.New(),
		lastRun:      make(map[string]time.Time),
	}
}

// Loop blocks, polling every PollInterval and running any job whose cron
// expression is due, until shutdown is observed, returning nil. A job
// with an invalid cron expression or a failing Run is logged and
// skipped rather than aborting the loop; Loop's error return exists so
// Supervise has an "unexpected return" case to restart on in a future
// failure mode (e.g. a panic recovered by the caller), per spec.md
// §4.9.
func (s *Scheduler) Loop(shutdown func() bool) error {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		if shutdown() {
			return nil
		}
		<-ticker.C
		if shutdown() {
			return nil
		}
		if err := s.runDue(time.Now()); err != nil {
			return err
		}
	}
}

func (s *Scheduler) runDue(now time.Time) error {
	for _, job := range s.Jobs {
		due, err := s.cron.IsDue(job.Cron, now)
		if err != nil {
			logger.WarnCF("scheduler", "invalid cron expression, skipping job", logger.Fields{
				"job":   job.Name,
				"cron":  job.Cron,
				"error": scrub.SanitizeAPIError(err.Error()),
			})
			continue
		}
		if !due {
			continue
		}
		if last, ok := s.lastRun[job.Name]; ok && now.Sub(last) < time.Minute {
			// gronx.IsDue matches for the entire minute it is true; avoid
			// re-running a job on every poll tick within that minute.
			continue
		}
		s.lastRun[job.Name] = now
		s.runJob(job)
	}
	return nil
}

func (s *Scheduler) runJob(job Job) {
	if job.Run == nil {
		return
	}
	if err := job.Run(); err != nil {
		logger.WarnCF("scheduler", "job run failed", logger.Fields{
			"job":   job.Name,
			"error": scrub.SanitizeAPIError(err.Error()),
		})
	}
}
