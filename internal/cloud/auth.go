package cloud

import "log/slog"

// AuthService reports the agent's standing with the cloud backend.
// Tokens are provisioned out of band and carried in config, so there
// is no interactive login flow.
type AuthService interface {
	SignIn(token string) error
	SignOut() error
	IsAuthenticated() bool
	AccessToken() string
}

// StubAuth is the no-backend implementation. It never holds a token.
type StubAuth struct {
	logger *slog.Logger
}

func NewStubAuth(logger *slog.Logger) *StubAuth {
	return &StubAuth{logger: logger}
}

func (s *StubAuth) SignIn(token string) error {
	s.logger.Info("cloud auth stub: sign-in requested")
	return nil
}

func (s *StubAuth) SignOut() error {
	s.logger.Info("cloud auth stub: sign-out requested")
	return nil
}

func (s *StubAuth) IsAuthenticated() bool {
	return false
}

func (s *StubAuth) AccessToken() string {
	return ""
}
