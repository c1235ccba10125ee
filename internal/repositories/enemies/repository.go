// Package enemies provides the interface for enemy instance persistence
package enemies

//go:generate mockgen -destination=mock/mock_repository.go -package=enemiesmock github.com/deepdelve/dungeon-api/internal/repositories/enemies Repository

import (
	"context"

	"github.com/deepdelve/dungeon-api/internal/entities"
)

// Repository defines the interface for enemy instance persistence.
// Movement and health live in memory; Update pushes them lazily.
type Repository interface {
	// Create persists a freshly spawned enemy
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves an enemy by ID
	// Returns errors.NotFound if the enemy doesn't exist
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update rewrites an enemy record (lazy position/health push)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// ListByFloor retrieves every enemy on one floor
	ListByFloor(ctx context.Context, input ListByFloorInput) (*ListByFloorOutput, error)

	// Delete removes an enemy record. Deleted reports how many records the
	// write matched; zero means the enemy was already gone.
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
}

// CreateInput defines the input for creating an enemy
type CreateInput struct {
	Enemy *entities.Enemy
}

// CreateOutput defines the output for creating an enemy
type CreateOutput struct {
	Enemy *entities.Enemy
}

// GetInput defines the input for getting an enemy
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting an enemy
type GetOutput struct {
	Enemy *entities.Enemy
}

// UpdateInput defines the input for updating an enemy
type UpdateInput struct {
	Enemy *entities.Enemy
}

// UpdateOutput defines the output for updating an enemy
type UpdateOutput struct {
	Enemy *entities.Enemy
}

// ListByFloorInput defines the input for listing a floor's enemies
type ListByFloorInput struct {
	Floor string
}

// ListByFloorOutput defines the output for listing a floor's enemies
type ListByFloorOutput struct {
	Enemies []*entities.Enemy
}

// DeleteInput defines the input for deleting an enemy
type DeleteInput struct {
	ID    string
	Floor string
}

// DeleteOutput defines the output for deleting an enemy
type DeleteOutput struct {
	Deleted int
}
