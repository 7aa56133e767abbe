package contract

import (
	"context"
	"io"
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

type IHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordHash(password, hashedPassword string) error
	HashString(s string) string
	CheckHash(s, hash string) bool
}

type IRandomGenerator interface {
	GenerateRandomToken(n int) (string, error)
}

type IUUIDGenerator interface {
	NewUUID() string
}

// IEmailService delivers HTML mail.
type IEmailService interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// IMediaStorage keeps profile pictures outside the database.
type IMediaStorage interface {
	Upload(ctx context.Context, file io.Reader, filename string) (entity.ProfilePicture, error)
	Delete(ctx context.Context, publicID string) error
}

// IOAuthStateStore remembers in-flight OAuth redirects. Consume is one-shot and returns
// apperror.ErrNotFound for unknown or expired states.
type IOAuthStateStore interface {
	Save(ctx context.Context, state string, value entity.OAuthState, ttl time.Duration) error
	Consume(ctx context.Context, state string) (*entity.OAuthState, error)
}

// IOAuthProvider drives the authorization-code flow of one federation partner.
type IOAuthProvider interface {
	Provider() entity.Provider
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*entity.OAuthProfile, error)
}

// IMessagePublisher sends JSON payloads to the user exchange.
type IMessagePublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// LinkEmail fills an email whose call to action is a single tokenised link.
type LinkEmail struct {
	Name      string
	Link      string
	ExpiresIn string
}

// IEmailComposer renders the transactional emails.
type IEmailComposer interface {
	ActivationEmail(data LinkEmail) (subject, body string, err error)
	PasswordResetEmail(data LinkEmail) (subject, body string, err error)
}
