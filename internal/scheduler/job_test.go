package scheduler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadJobs_MissingFileYieldsEmptySet(t *testing.T) {
	jobs := LoadJobs(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if jobs != nil {
		t.Errorf("jobs = %v, want nil for missing file", jobs)
	}
}

func TestLoadJobs_MalformedFileYieldsEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	jobs := LoadJobs(path)
	if jobs != nil {
		t.Errorf("jobs = %v, want nil for malformed file", jobs)
	}
}

func TestLoadJobs_ParsesValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	content := `[{"name":"daily-digest","cron":"0 9 * * *"},{"name":"heartbeat","cron":"*/5 * * * *"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	jobs := LoadJobs(path)
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	if jobs[0].Name != "daily-digest" || jobs[0].Cron != "0 9 * * *" {
		t.Errorf("jobs[0] = %+v", jobs[0])
	}
}
