// Package identity verifies connection tokens and resolves them to player
// identities. Verification happens once per websocket connection.
package identity

//go:generate mockgen -destination=mock/mock_verifier.go -package=identitymock github.com/deepdelve/dungeon-api/internal/clients/identity Verifier

import (
	"context"

	"github.com/deepdelve/dungeon-api/internal/errors"
)

// Identity is a verified player identity
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

// Verifier resolves a bearer token to an identity
type Verifier interface {
	// Verify checks a token and returns the identity behind it
	// Returns errors.Unauthenticated when the token is unknown or empty
	Verify(ctx context.Context, token string) (*Identity, error)
}

// StaticConfig holds a fixed token-to-identity table
type StaticConfig struct {
	Identities map[string]Identity
}

// Validate ensures the config is usable
func (c *StaticConfig) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if len(c.Identities) == 0 {
		return errors.InvalidArgument("at least one identity is required")
	}
	return nil
}

type static struct {
	identities map[string]Identity
}

// NewStatic creates a verifier backed by a fixed token table
func NewStatic(cfg *StaticConfig) (Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &static{identities: cfg.Identities}, nil
}

func (v *static) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, errors.Unauthenticated("token is required")
	}
	id, ok := v.identities[token]
	if !ok {
		return nil, errors.Unauthenticated("unknown token")
	}
	return &id, nil
}

type insecure struct{}

// NewInsecure creates a verifier that trusts any non-empty token and uses
// it as the player ID. Development only.
func NewInsecure() Verifier {
	return insecure{}
}

func (insecure) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, errors.Unauthenticated("token is required")
	}
	return &Identity{ID: token, DisplayName: token}, nil
}
