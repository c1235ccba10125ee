// Package players provides the interface for player record persistence
package players

//go:generate mockgen -destination=mock/mock_repository.go -package=playersmock github.com/deepdelve/dungeon-api/internal/repositories/players Repository

import (
	"context"

	"github.com/deepdelve/dungeon-api/internal/entities"
)

// Repository defines the interface for player record persistence
type Repository interface {
	// Upsert creates or replaces a player record
	Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error)

	// Get retrieves a player by ID
	// Returns errors.NotFound if the player doesn't exist
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// SetOnline flips the player's online flag
	SetOnline(ctx context.Context, input SetOnlineInput) (*SetOnlineOutput, error)

	// SetFloor records the player's current floor
	SetFloor(ctx context.Context, input SetFloorInput) (*SetFloorOutput, error)
}

// UpsertInput defines the input for upserting a player
type UpsertInput struct {
	Player *entities.Player
}

// UpsertOutput defines the output for upserting a player
type UpsertOutput struct {
	Player *entities.Player
}

// GetInput defines the input for getting a player
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting a player
type GetOutput struct {
	Player *entities.Player
}

// SetOnlineInput defines the input for flipping the online flag
type SetOnlineInput struct {
	ID     string
	Online bool
}

// SetOnlineOutput defines the output for flipping the online flag
type SetOnlineOutput struct {
	Player *entities.Player
}

// SetFloorInput defines the input for recording the current floor
type SetFloorInput struct {
	ID    string
	Floor string
}

// SetFloorOutput defines the output for recording the current floor
type SetFloorOutput struct {
	Player *entities.Player
}
