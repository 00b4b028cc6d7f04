package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/eventcall-app/eventcall/internal/client/auth"
	"github.com/eventcall-app/eventcall/internal/flagx"
	"github.com/eventcall-app/eventcall/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// rely on timex.Duration so JSON can specify them either as strings like
// "2s" or as integer nanoseconds.
type JsonConfig struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`

	Tokens   []string `json:"tokens"`
	ProxyURL string   `json:"proxy_url"`
	Backend  string   `json:"backend"`
	Demo     *bool    `json:"demo"`
	Origin   string   `json:"origin"`

	LocalUsers []auth.StaticUser `json:"local_users"`

	PollTimeout  timex.Duration `json:"poll_timeout"`
	PollInterval timex.Duration `json:"poll_interval"`

	RetryMaxAttempts int            `json:"retry_max_attempts"`
	RetryBaseDelay   timex.Duration `json:"retry_base_delay"`
	AttemptTimeout   timex.Duration `json:"attempt_timeout"`

	SnapshotPath     string         `json:"snapshot_path"`
	AutosaveInterval timex.Duration `json:"autosave_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c/-config flag. Absent file means no overlay; a present but broken
// file panics, matching flag misuse behavior.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	applyJson(cfg, &jc)
}

// applyJson copies set fields only, so the file can be partial.
func applyJson(cfg *Config, jc *JsonConfig) {
	if jc.Owner != "" {
		cfg.Owner = jc.Owner
	}
	if jc.Repo != "" {
		cfg.Repo = jc.Repo
	}
	if jc.Branch != "" {
		cfg.Branch = jc.Branch
	}
	if len(jc.Tokens) > 0 {
		cfg.Tokens = jc.Tokens
	}
	if jc.ProxyURL != "" {
		cfg.ProxyURL = jc.ProxyURL
	}
	if jc.Backend != "" {
		cfg.Backend = jc.Backend
	}
	if jc.Demo != nil {
		cfg.Demo = *jc.Demo
	}
	if jc.Origin != "" {
		cfg.Origin = jc.Origin
	}
	if len(jc.LocalUsers) > 0 {
		cfg.LocalUsers = jc.LocalUsers
	}
	if jc.PollTimeout.Duration != 0 {
		cfg.PollTimeout = time.Duration(jc.PollTimeout.Duration)
	}
	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = time.Duration(jc.PollInterval.Duration)
	}
	if jc.RetryMaxAttempts != 0 {
		cfg.RetryMaxAttempts = jc.RetryMaxAttempts
	}
	if jc.RetryBaseDelay.Duration != 0 {
		cfg.RetryBaseDelay = time.Duration(jc.RetryBaseDelay.Duration)
	}
	if jc.AttemptTimeout.Duration != 0 {
		cfg.AttemptTimeout = time.Duration(jc.AttemptTimeout.Duration)
	}
	if jc.SnapshotPath != "" {
		cfg.SnapshotPath = jc.SnapshotPath
	}
	if jc.AutosaveInterval.Duration != 0 {
		cfg.AutosaveInterval = time.Duration(jc.AutosaveInterval.Duration)
	}
}
