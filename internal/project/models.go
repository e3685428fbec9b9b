package project

import "time"

// Project is one saved edit. The document column carries the full timeline;
// name is duplicated outside it so lists never parse documents.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  Document  `json:"document"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	ExportStatusPending   = "pending"
	ExportStatusRunning   = "running"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// Export records one export run of a project so the UI can list past
// outputs and surface failures.
type Export struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Format     string    `json:"format"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	OutputPath string    `json:"output_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
