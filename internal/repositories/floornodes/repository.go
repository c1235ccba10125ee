// Package floornodes provides the interface for floor node persistence
package floornodes

//go:generate mockgen -destination=mock/mock_repository.go -package=floornodesmock github.com/deepdelve/dungeon-api/internal/repositories/floornodes Repository

import (
	"context"

	"github.com/deepdelve/dungeon-api/internal/entities"
)

// Repository defines the interface for floor node persistence
type Repository interface {
	// CreateBatch persists every node of a freshly generated floor graph
	// Returns errors.InvalidArgument if any node is invalid
	CreateBatch(ctx context.Context, input CreateBatchInput) (*CreateBatchOutput, error)

	// Get retrieves a floor node by name
	// Returns errors.NotFound if the node doesn't exist
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update rewrites an existing floor node (stair binding)
	// Returns errors.NotFound if the node doesn't exist
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// ListByDungeonNode retrieves every floor node belonging to one floor
	ListByDungeonNode(ctx context.Context, input ListByDungeonNodeInput) (*ListByDungeonNodeOutput, error)

	// Reset deletes every floor node (full dungeon reset)
	Reset(ctx context.Context) error
}

// CreateBatchInput defines the input for persisting a floor graph
type CreateBatchInput struct {
	Nodes []*entities.FloorNode
}

// CreateBatchOutput defines the output for persisting a floor graph
type CreateBatchOutput struct {
	Created int
}

// GetInput defines the input for getting a floor node
type GetInput struct {
	Name string
}

// GetOutput defines the output for getting a floor node
type GetOutput struct {
	Node *entities.FloorNode
}

// UpdateInput defines the input for updating a floor node
type UpdateInput struct {
	Node *entities.FloorNode
}

// UpdateOutput defines the output for updating a floor node
type UpdateOutput struct {
	Node *entities.FloorNode
}

// ListByDungeonNodeInput defines the input for listing a floor's nodes
type ListByDungeonNodeInput struct {
	DungeonNode string
}

// ListByDungeonNodeOutput defines the output for listing a floor's nodes
type ListByDungeonNodeOutput struct {
	Nodes []*entities.FloorNode
}
