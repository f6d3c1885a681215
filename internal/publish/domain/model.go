package domain

import "time"

// Job status constants
const (
	JobPublishing = "publishing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Per-menu progress status constants
const (
	ProgressPending = "pending"
	ProgressSuccess = "success"
	ProgressFailed  = "failed"
)

// Provisioning step names, in execution order. Persisted on the job after
// every transition so a polling UI can show live progress.
const (
	StepCreateMenu    = "create_menu"
	StepUploadImage   = "upload_image"
	StepSetAlias      = "set_alias"
	StepRecordVersion = "record_version"
	StepSetDefault    = "set_default"
	StepDone          = "done"
)

// MenuProgress tracks one menu through the provisioning sequence.
type MenuProgress struct {
	AliasID    string `json:"alias_id"`
	MenuName   string `json:"menu_name"`
	Step       string `json:"step"`
	Status     string `json:"status"`
	RichMenuID string `json:"rich_menu_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// PublishJob is the durable record of one publish attempt.
type PublishJob struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	DraftID     string         `json:"draft_id,omitempty"`
	Status      string         `json:"status"`
	CurrentStep string         `json:"current_step"`
	Progress    []MenuProgress `json:"progress"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Version is one historical binding of an alias to a platform-assigned rich
// menu ID. Versions are append-only; the current one per alias carries
// IsActive=true.
type Version struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	DraftID    string    `json:"draft_id,omitempty"`
	JobID      string    `json:"job_id,omitempty"`
	AliasID    string    `json:"alias_id"`
	RichMenuID string    `json:"rich_menu_id"`
	MenuName   string    `json:"menu_name"`
	IsMain     bool      `json:"is_main"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublishResult is the per-menu outcome returned to the caller.
type PublishResult struct {
	AliasID    string `json:"aliasId"`
	RichMenuID string `json:"richMenuId"`
	IsMain     bool   `json:"isMain"`
}
