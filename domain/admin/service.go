package admin

import (
	"context"
	"crypto/subtle"
	"os"

	"github.com/keylet/waitlist-api/internal/log"
	apperrors "github.com/keylet/waitlist-api/pkg/errors"
)

// AdminSecretEnvKey names the environment variable holding the shared admin
// secret. It is read lazily at authentication time, not at startup.
const AdminSecretEnvKey = "ADMIN_SECRET_KEY"

// User-facing messages for the admin gate.
const (
	MsgAuthenticated   = "Authentication successful"
	MsgInvalidPassword = "Invalid password. Please try again."
	MsgServerConfig    = "Server configuration error"
)

// SecretSource supplies the configured admin secret at call time. The second
// return reports whether a secret is configured at all.
type SecretSource func() (string, bool)

func EnvSecretSource() (string, bool) {
	secret, ok := os.LookupEnv(AdminSecretEnvKey)
	if !ok || secret == "" {
		return "", false
	}
	return secret, true
}

// AuthResult is the outcome of a credential check. A mismatch is a result
// value, not an error; only a missing secret is an error.
type AuthResult struct {
	OK      bool
	Message string
}

type AdminGateService interface {
	// Authenticate compares the submitted credential against the configured
	// secret. Fails with a ConfigurationError when no secret is configured,
	// which must stay distinguishable from a wrong password.
	Authenticate(ctx context.Context, submitted string) (*AuthResult, error)
}

type adminGateService struct {
	logger       *log.Logger
	secretSource SecretSource
}

func NewAdminGateService(logger *log.Logger, source SecretSource) AdminGateService {
	if source == nil {
		source = EnvSecretSource
	}
	return &adminGateService{logger: logger, secretSource: source}
}

func (s *adminGateService) Authenticate(ctx context.Context, submitted string) (*AuthResult, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	secret, configured := s.secretSource()
	if !configured {
		logger.Error("Admin secret is not configured", "env_key", AdminSecretEnvKey)
		return nil, apperrors.NewConfigurationError(MsgServerConfig, nil)
	}

	// Constant-time comparison; no trimming, no case folding. The submitted
	// value is never logged.
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(secret)) == 1 {
		return &AuthResult{OK: true, Message: MsgAuthenticated}, nil
	}

	logger.Info("Admin authentication rejected")
	return &AuthResult{OK: false, Message: MsgInvalidPassword}, nil
}
