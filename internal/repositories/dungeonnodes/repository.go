// Package dungeonnodes provides the interface for dungeon node persistence
package dungeonnodes

//go:generate mockgen -destination=mock/mock_repository.go -package=dungeonnodesmock github.com/deepdelve/dungeon-api/internal/repositories/dungeonnodes Repository

import (
	"context"

	"github.com/deepdelve/dungeon-api/internal/entities"
)

// Repository defines the interface for dungeon node persistence
type Repository interface {
	// Create creates a new dungeon node
	// Returns errors.AlreadyExists if a node with the same name exists
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves a dungeon node by name
	// Returns errors.NotFound if the node doesn't exist
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// AppendChild links a child name into a parent's children list
	// Returns errors.NotFound if the parent doesn't exist
	AppendChild(ctx context.Context, input AppendChildInput) (*AppendChildOutput, error)

	// List retrieves every dungeon node
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	// Reset deletes every dungeon node (full dungeon reset)
	Reset(ctx context.Context) error
}

// CreateInput defines the input for creating a dungeon node
type CreateInput struct {
	Node *entities.DungeonNode
}

// CreateOutput defines the output for creating a dungeon node
type CreateOutput struct {
	Node *entities.DungeonNode
}

// GetInput defines the input for getting a dungeon node
type GetInput struct {
	Name string
}

// GetOutput defines the output for getting a dungeon node
type GetOutput struct {
	Node *entities.DungeonNode
}

// AppendChildInput defines the input for linking a child node
type AppendChildInput struct {
	Parent string
	Child  string
}

// AppendChildOutput defines the output for linking a child node
type AppendChildOutput struct {
	Node *entities.DungeonNode
}

// ListInput defines the input for listing dungeon nodes
type ListInput struct{}

// ListOutput defines the output for listing dungeon nodes
type ListOutput struct {
	Nodes []*entities.DungeonNode
}
