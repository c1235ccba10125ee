// Package items provides the interface for item instance persistence
package items

//go:generate mockgen -destination=mock/mock_repository.go -package=itemsmock github.com/deepdelve/dungeon-api/internal/repositories/items Repository

import (
	"context"

	"github.com/deepdelve/dungeon-api/internal/entities"
)

// Repository defines the interface for item instance persistence. The
// claimed flag is authoritative in the store: Claim and DeleteIfUnclaimed
// are conditional writes whose outputs report whether they matched, so a
// pickup racing an expiry resolves to exactly one winner.
type Repository interface {
	// Create persists a freshly spawned item
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves an item by ID
	// Returns errors.NotFound if the item doesn't exist
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// GetOwner reads just the authoritative claimed flag
	// Returns errors.NotFound if the item doesn't exist
	GetOwner(ctx context.Context, input GetOwnerInput) (*GetOwnerOutput, error)

	// Update rewrites an item record (lazy push of in-memory state)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// ListByFloor retrieves every item on one floor
	ListByFloor(ctx context.Context, input ListByFloorInput) (*ListByFloorOutput, error)

	// Claim sets the owner if and only if the item is still unclaimed.
	// Modified is 1 when the claim won, 0 when it lost the race.
	Claim(ctx context.Context, input ClaimInput) (*ClaimOutput, error)

	// DeleteIfUnclaimed removes the record if and only if it is still
	// unclaimed. Deleted is 1 when the removal matched, 0 otherwise.
	DeleteIfUnclaimed(ctx context.Context, input DeleteIfUnclaimedInput) (*DeleteIfUnclaimedOutput, error)
}

// CreateInput defines the input for creating an item
type CreateInput struct {
	Item *entities.Item
}

// CreateOutput defines the output for creating an item
type CreateOutput struct {
	Item *entities.Item
}

// GetInput defines the input for getting an item
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting an item
type GetOutput struct {
	Item *entities.Item
}

// GetOwnerInput defines the input for reading an item's owner
type GetOwnerInput struct {
	ID string
}

// GetOwnerOutput defines the output for reading an item's owner.
// Owner is empty while the item is unclaimed.
type GetOwnerOutput struct {
	Owner string
}

// UpdateInput defines the input for updating an item
type UpdateInput struct {
	Item *entities.Item
}

// UpdateOutput defines the output for updating an item
type UpdateOutput struct {
	Item *entities.Item
}

// ListByFloorInput defines the input for listing a floor's items
type ListByFloorInput struct {
	Floor string
}

// ListByFloorOutput defines the output for listing a floor's items
type ListByFloorOutput struct {
	Items []*entities.Item
}

// ClaimInput defines the input for claiming an item
type ClaimInput struct {
	ID    string
	Owner string
}

// ClaimOutput defines the output for claiming an item
type ClaimOutput struct {
	Modified int
}

// DeleteIfUnclaimedInput defines the input for a conditional delete
type DeleteIfUnclaimedInput struct {
	ID    string
	Floor string
}

// DeleteIfUnclaimedOutput defines the output for a conditional delete
type DeleteIfUnclaimedOutput struct {
	Deleted int
}
