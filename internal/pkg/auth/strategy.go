package auth

import (
	"time"

	"github.com/google/uuid"
)

// Strategy issues and verifies bearer tokens.
type Strategy interface {
	IssueToken(userID uuid.UUID, role string) (string, error)
	ParseToken(token string) (*Claims, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}
