package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunStatus is the lifecycle state of a provisioning run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed" // finished, error list may be non-empty
	RunAborted   RunStatus = "aborted"   // fatal remote error, stopped mid-phase
	RunRejected  RunStatus = "rejected"  // failed validation, nothing was created
)

// SetupResult aggregates the outcome of a single provisioning run. It is
// created at run start, mutated only by the pipeline, and returned to the
// caller at run end. Never shared across runs.
type SetupResult struct {
	RolesCreated      int           `json:"roles_created"`
	CategoriesCreated int           `json:"categories_created"`
	ChannelsCreated   int           `json:"channels_created"`
	EmbedsPosted      int           `json:"embeds_posted"`
	Errors            []string      `json:"errors"`
	Aborted           bool          `json:"aborted"`
	Duration          time.Duration `json:"duration"`
}

// Success is strictly "no per-item errors and not aborted", independent of
// how many items were actually created.
func (r *SetupResult) Success() bool {
	return len(r.Errors) == 0 && !r.Aborted
}

// AddError appends a per-item error message. Order is preserved so callers
// can show the first few.
func (r *SetupResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// ErrorSample returns the first five per-item errors, for logs and summaries
// that should not carry the whole list.
func (r *SetupResult) ErrorSample() []string {
	if len(r.Errors) > 5 {
		return r.Errors[:5]
	}
	return r.Errors
}

// ProvisionRun is the persisted record of a provisioning run, kept so the
// dashboard can list run history per guild.
type ProvisionRun struct {
	gorm.Model
	RunID        string `gorm:"uniqueIndex;size:64" json:"run_id"`
	GuildID      string `gorm:"index;size:64" json:"guild_id"`
	TemplateID   string `gorm:"size:128" json:"template_id"`
	TemplateName string `gorm:"size:256" json:"template_name"`

	Status RunStatus `gorm:"index;size:32" json:"status"`

	RolesCreated      int `json:"roles_created"`
	CategoriesCreated int `json:"categories_created"`
	ChannelsCreated   int `json:"channels_created"`
	EmbedsPosted      int `json:"embeds_posted"`

	Errors     datatypes.JSON `gorm:"type:jsonb" json:"errors"`
	DurationMs int64          `json:"duration_ms"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// TableName overrides the table name
func (ProvisionRun) TableName() string {
	return "provision_runs"
}
