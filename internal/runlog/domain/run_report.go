package domain

import "time"

// RunReport is the persisted summary of one dispatch run. Saved keyed by
// run ID, so re-saving the same run overwrites instead of duplicating.
type RunReport struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	StartedAt  time.Time `json:"started_at" gorm:"index"`
	FinishedAt time.Time `json:"finished_at"`

	TotalAccounts int `json:"total_accounts"`
	Eligible      int `json:"eligible"`
	Published     int `json:"published"`
	RenderFailed  int `json:"render_failed"`
	PublishFailed int `json:"publish_failed"`

	SkippedInactive        int `json:"skipped_inactive"`
	SkippedNonHuman        int `json:"skipped_non_human"`
	SkippedOrgUnitExcluded int `json:"skipped_org_unit_excluded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
