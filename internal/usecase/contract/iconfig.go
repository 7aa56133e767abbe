package usecasecontract

import (
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

// IConfigProvider exposes the settings the use cases and handlers depend on.
type IConfigProvider interface {
	IsProduction() bool
	GetAppBaseURL() string
	GetClientURL() string
	GetJWTExpiry() time.Duration
	GetDefaultStorageMode() entity.StorageMode
	GetActivationTokenExpiry() time.Duration
	GetPasswordResetTokenExpiry() time.Duration
	GetBulkRegistrationBatchSize() int
}

// IAppLogger is the printf-style logger used across layers.
type IAppLogger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// IValidator checks free-form input that does not go through request binding.
type IValidator interface {
	ValidateEmail(email string) error
	ValidatePasswordStrength(password string) error
	ValidateUsername(username string) error
}
