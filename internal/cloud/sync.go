package cloud

import (
	"context"
	"log/slog"
)

// SyncService moves project documents between the agent and the cloud
// backend. PullDocument returns nil without an error when the project
// has no remote copy.
type SyncService interface {
	PushDocument(ctx context.Context, payload DocumentPushPayload) (*DocumentPushResult, error)
	PullDocument(ctx context.Context, projectID string) (*RemoteDocument, error)
	ListRemote(ctx context.Context) ([]RemoteProject, error)
}

// StubSync acknowledges pushes locally and reports nothing to pull.
type StubSync struct {
	logger *slog.Logger
}

func NewStubSync(logger *slog.Logger) *StubSync {
	return &StubSync{logger: logger}
}

func (s *StubSync) PushDocument(ctx context.Context, payload DocumentPushPayload) (*DocumentPushResult, error) {
	s.logger.Info("cloud sync stub: document push requested",
		"project_id", payload.ProjectID,
		"name", payload.Name)
	return &DocumentPushResult{ProjectID: payload.ProjectID, Revision: payload.Revision}, nil
}

func (s *StubSync) PullDocument(ctx context.Context, projectID string) (*RemoteDocument, error) {
	s.logger.Info("cloud sync stub: document pull requested", "project_id", projectID)
	return nil, nil
}

func (s *StubSync) ListRemote(ctx context.Context) ([]RemoteProject, error) {
	s.logger.Info("cloud sync stub: remote listing requested")
	return nil, nil
}
