package cloud

import "log/slog"

// Client bundles the cloud-facing services the agent uses. The agent
// runs fully offline with the stub client when no backend is configured.
type Client interface {
	Auth() AuthService
	Sync() SyncService
	RegisterDevice(deviceID string) error
}

type StubClient struct {
	auth   *StubAuth
	sync   *StubSync
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{
		auth:   NewStubAuth(logger),
		sync:   NewStubSync(logger),
		logger: logger,
	}
}

func (c *StubClient) Auth() AuthService {
	return c.auth
}

func (c *StubClient) Sync() SyncService {
	return c.sync
}

func (c *StubClient) RegisterDevice(deviceID string) error {
	c.logger.Info("cloud stub: device registration requested", "device_id", deviceID)
	return nil
}
