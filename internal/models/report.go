package models

import "time"

// SettingOutcome for one applied/skipped/failed setting
type SettingOutcome string

const (
	OutcomeApplied SettingOutcome = "applied"
	OutcomeSkipped SettingOutcome = "skipped"
	OutcomeFailed  SettingOutcome = "failed"
)

// AppliedSetting detail
type AppliedSetting struct {
	Setting Setting `json:"setting"`
}

// SkippedSetting detail
type SkippedSetting struct {
	Setting Setting `json:"setting"`
	Reason  string  `json:"reason"`
}

// FailedSetting detail
type FailedSetting struct {
	Setting Setting `json:"setting"`
	Error   string  `json:"error"`
}

// ApplyReport is the structured result of one runner invocation.
// Built fresh per run and returned to the caller; the engine never
// persists it.
type ApplyReport struct {
	ContainerID   string           `json:"containerId"`
	CatalogID     string           `json:"catalogId"`
	TargetScope   string           `json:"targetScope,omitempty"`
	BackupID      string           `json:"backupId,omitempty"`
	BackupWarning string           `json:"backupWarning,omitempty"`
	DryRun        bool             `json:"dryRun,omitempty"`
	Started       time.Time        `json:"started"`
	Finished      time.Time        `json:"finished"`
	Attempted     int              `json:"attempted"`
	Applied       []AppliedSetting `json:"applied"`
	Skipped       []SkippedSetting `json:"skipped"`
	Failed        []FailedSetting  `json:"failed"`
}

// Succeeded reports whether every applicable setting was applied.
func (r *ApplyReport) Succeeded() bool {
	return len(r.Failed) == 0
}
