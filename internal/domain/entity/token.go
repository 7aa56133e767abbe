package entity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
)

// Claims are the signed contents of a session token.
type Claims struct {
	UserID   string   `json:"id"`
	UserType UserType `json:"role"`
	jwt.RegisteredClaims
}

// StorageMode is where the client keeps its session token.
type StorageMode string

const (
	StorageCookie  StorageMode = "cookie"
	StorageLocal   StorageMode = "local"
	StorageSession StorageMode = "session"
)

// Valid reports whether m is one of the three known modes.
func (m StorageMode) Valid() bool {
	switch m {
	case StorageCookie, StorageLocal, StorageSession:
		return true
	}
	return false
}

// ParseStorageMode reads a client-supplied storage mode. An empty value selects the
// deployment default; an unknown value is a validation error.
func ParseStorageMode(raw string, fallback StorageMode) (StorageMode, error) {
	if raw == "" {
		return fallback, nil
	}
	mode := StorageMode(raw)
	if !mode.Valid() {
		return "", apperror.Validation(fmt.Sprintf("unsupported storage mode %q", raw))
	}
	return mode, nil
}

// TokenDelivery is how an issued token travels back to the client. It is a closed set:
// CookieDelivery or BearerDelivery.
type TokenDelivery interface {
	deliveryMode() StorageMode
}

// CookieDelivery places the token in an httpOnly cookie; the body carries no token.
type CookieDelivery struct {
	Token   string
	Expires time.Time
	Secure  bool
}

func (CookieDelivery) deliveryMode() StorageMode { return StorageCookie }

// BearerDelivery hands the token to the client, which stores it in local or session
// storage and replays it as an Authorization header.
type BearerDelivery struct {
	Token string
	Mode  StorageMode
}

func (d BearerDelivery) deliveryMode() StorageMode { return d.Mode }

// ModeOf returns the storage mode a delivery was issued for.
func ModeOf(d TokenDelivery) StorageMode {
	return d.deliveryMode()
}

// IssuedToken pairs the authenticated user with the delivery of their token.
type IssuedToken struct {
	User     *User
	Delivery TokenDelivery
}

// OAuthState is what the server remembers about an in-flight provider redirect.
type OAuthState struct {
	Provider    Provider    `json:"provider" bson:"provider"`
	StorageMode StorageMode `json:"storage" bson:"storage"`
}

// OAuthProfile is the identity a provider vouches for after the code exchange.
type OAuthProfile struct {
	Provider   Provider
	ProviderID string
	Name       string
	Email      string
	PictureURL string
}
