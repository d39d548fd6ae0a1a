package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadJobs reads the persisted watch definitions. A missing file yields an
// empty list.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scheduler: load watches: %w", err)
	}
	var jobs []Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("scheduler: parse watches: %w", err)
	}
	return jobs, nil
}

// SaveJobs persists the watch definitions so they survive restarts.
func SaveJobs(path string, jobs []Job) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("scheduler: save watches: %w", err)
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("scheduler: save watches: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

