package usecase

import (
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

// JWTService defines the interface for JWT operations.
type JWTService interface {
	Sign(userID string, userType entity.UserType) (string, time.Time, error)
	Verify(token string) (*entity.Claims, error)
}
