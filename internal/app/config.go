package app

import (
	"time"

	"github.com/avendel/reqstress/internal/scoring"
)

// Config contains the runtime options shared by the CLI and the API server.
type Config struct {
	// RulesPath points at a JSON or YAML rules file. Empty selects the
	// built-in ruleset.
	RulesPath string

	// TopN is the length of the ranked riskiest-requirements list.
	TopN int

	// Workers bounds the analyzer's per-requirement worker pool.
	Workers int

	// DatabasePath is the SQLite file holding uploads and reports. Only the
	// server shell opens it; the CLI runs without persistence.
	DatabasePath string

	// JobEventBuffer sizes each job's event channel.
	JobEventBuffer int

	// JobRetention is how long finished jobs stay queryable.
	JobRetention time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RulesPath:      "",
		TopN:           scoring.DefaultTopN,
		Workers:        4,
		DatabasePath:   "reqstress.db",
		JobEventBuffer: 16,
		JobRetention:   time.Hour,
	}
}
