// Package scheduler implements the cron-style Scheduler Supervisor from
// spec.md §4.9: a supervised blocking loop over persisted cron jobs,
// restarted with exponential backoff on unexpected exit. Cron-expression
// matching is delegated to github.com/adhocore/gronx.
package scheduler

import (
	"encoding/json"
	"os"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// Job is one persisted cron job: a name, a standard 5-field cron
// expression, and the work to run when due.
type Job struct {
	Name string `json:"name"`
	Cron string `json:"cron"`

	// Run is not persisted; it is bound by the caller after loading jobs
	// from disk, keyed by Name.
	Run func() error `json:"-"`
}

// persistedJob is the on-disk shape; Run is bound separately.
type persistedJob struct {
	Name string `json:"name"`
	Cron string `json:"cron"`
}

// LoadJobs reads the persisted job list from path. A missing file
// yields an empty job set, not an error, per spec.md §4.9. A malformed
// file is logged (scrubbed) and also yields an empty set rather than
// aborting startup, matching the tolerant-JSON-config policy used
// elsewhere in the daemon.
func LoadJobs(path string) []Job {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		logger.WarnCF("scheduler", "failed to read persisted jobs, starting with empty job set", logger.Fields{
			"error": err.Error(),
		})
		return nil
	}

	var persisted []persistedJob
	if err := json.Unmarshal(data, &persisted); err != nil {
		logger.WarnCF("scheduler", "malformed persisted jobs file, starting with empty job set", logger.Fields{
			"error": err.Error(),
		})
		return nil
	}

	jobs := make([]Job, 0, len(persisted))
	for _, p := range persisted {
		jobs = append(jobs, Job{Name: p.Name, Cron: p.Cron})
	}
	return jobs
}
