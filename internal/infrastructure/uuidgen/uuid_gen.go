package uuidgen

import (
	"github.com/google/uuid"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
)

// Generator hands out random (v4) user ids.
type Generator struct{}

func NewGenerator() contract.IUUIDGenerator {
	return &Generator{}
}

func (g *Generator) NewUUID() string {
	return uuid.NewString()
}

var _ contract.IUUIDGenerator = (*Generator)(nil)
