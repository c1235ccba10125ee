// Package floorlayout implements floor layout generation, positioning, and
// the read-only floor geometry queries.
package floorlayout

//go:generate mockgen -destination=mock/mock_service.go -package=floorlayoutmock github.com/deepdelve/dungeon-api/internal/orchestrators/floorlayout Service

import (
	"context"
	"math/rand"
	"sync"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/geometry"
	"github.com/deepdelve/dungeon-api/internal/repositories/floornodes"
)

// Service defines the floor layout interface
type Service interface {
	// GenerateFloor produces and stores the floor node graph for exactly
	// one dungeon node
	GenerateFloor(ctx context.Context, input *GenerateFloorInput) (*GenerateFloorOutput, error)

	// BindDownwardStair points one of a floor's unbound downward stairs at
	// a newly created child dungeon node
	BindDownwardStair(ctx context.Context, input *BindDownwardStairInput) (*BindDownwardStairOutput, error)

	// GetFloorLayout resolves a floor's graph into positioned geometry.
	// Returns errors.NotFound if the floor hasn't been generated.
	GetFloorLayout(ctx context.Context, input *GetFloorLayoutInput) (*GetFloorLayoutOutput, error)

	// GetFloorTiles returns just the tile sets of a floor
	GetFloorTiles(ctx context.Context, input *GetFloorTilesInput) (*GetFloorTilesOutput, error)

	// GetRoomStairs returns the stairs of a floor's rooms
	GetRoomStairs(ctx context.Context, input *GetRoomStairsInput) (*GetRoomStairsOutput, error)

	// Reset deletes every stored floor node (full dungeon reset)
	Reset(ctx context.Context) error
}

// GenerateFloorInput defines the input for generating a floor
type GenerateFloorInput struct {
	DungeonNode    string
	HasUpwardStair bool
}

// GenerateFloorOutput defines the output for generating a floor
type GenerateFloorOutput struct {
	RootNode string
	Rooms    int
	Hallways int
}

// BindDownwardStairInput defines the input for binding a downward stair
type BindDownwardStairInput struct {
	DungeonNode string
	Destination string
}

// BindDownwardStairOutput defines the output for binding a downward stair
type BindDownwardStairOutput struct {
	RoomName string
}

// GetFloorLayoutInput defines the input for resolving a floor layout
type GetFloorLayoutInput struct {
	DungeonNode string
}

// GetFloorLayoutOutput defines the output for resolving a floor layout
type GetFloorLayoutOutput struct {
	Floor *entities.GeneratedFloorData
}

// GetFloorTilesInput defines the input for reading a floor's tiles
type GetFloorTilesInput struct {
	DungeonNode string
}

// GetFloorTilesOutput defines the output for reading a floor's tiles
type GetFloorTilesOutput struct {
	FloorTiles         []entities.Tile
	WallTiles          []entities.Tile
	UpwardStairTiles   []entities.StairTile
	DownwardStairTiles []entities.StairTile
}

// GetRoomStairsInput defines the input for reading a floor's stairs
type GetRoomStairsInput struct {
	DungeonNode string
}

// RoomStair describes one stair within a floor
type RoomStair struct {
	RoomName    string
	Upward      bool
	X           int
	Y           int
	Destination string
}

// GetRoomStairsOutput defines the output for reading a floor's stairs
type GetRoomStairsOutput struct {
	Stairs []RoomStair
}

// Config holds the dependencies for the floor layout orchestrator
type Config struct {
	FloorNodeRepo floornodes.Repository
	Rand          *rand.Rand
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.FloorNodeRepo == nil {
		vb.RequiredField("FloorNodeRepo")
	}
	if c.Rand == nil {
		vb.RequiredField("Rand")
	}

	return vb.Build()
}

type orchestrator struct {
	floorNodeRepo floornodes.Repository

	// rand.Rand is not safe for concurrent use.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOrchestrator creates a new floor layout orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		floorNodeRepo: cfg.FloorNodeRepo,
		rng:           cfg.Rand,
	}, nil
}

func (o *orchestrator) GenerateFloor(ctx context.Context, input *GenerateFloorInput) (*GenerateFloorOutput, error) {
	if input.DungeonNode == "" {
		return nil, errors.InvalidArgument("dungeon node is required")
	}

	o.mu.Lock()
	nodes := o.generateGraph(input.DungeonNode, input.HasUpwardStair)
	o.mu.Unlock()

	if _, err := o.floorNodeRepo.CreateBatch(ctx, floornodes.CreateBatchInput{Nodes: nodes}); err != nil {
		return nil, errors.Wrapf(err, "failed to persist floor graph for %s", input.DungeonNode)
	}

	out := &GenerateFloorOutput{RootNode: nodes[0].Name}
	for _, n := range nodes {
		if n.IsRoom {
			out.Rooms++
		} else {
			out.Hallways++
		}
	}
	return out, nil
}

func (o *orchestrator) BindDownwardStair(ctx context.Context, input *BindDownwardStairInput) (*BindDownwardStairOutput, error) {
	if input.DungeonNode == "" || input.Destination == "" {
		return nil, errors.InvalidArgument("dungeon node and destination are required")
	}

	listed, err := o.floorNodeRepo.ListByDungeonNode(ctx, floornodes.ListByDungeonNodeInput{
		DungeonNode: input.DungeonNode,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list floor nodes for %s", input.DungeonNode)
	}

	for _, node := range listed.Nodes {
		if !node.IsRoom || !node.HasDownwardStair || node.StairDestination != "" {
			continue
		}
		node.StairDestination = input.Destination
		if _, err := o.floorNodeRepo.Update(ctx, floornodes.UpdateInput{Node: node}); err != nil {
			return nil, errors.Wrapf(err, "failed to bind stair in %s", node.Name)
		}
		return &BindDownwardStairOutput{RoomName: node.Name}, nil
	}

	return nil, errors.FailedPreconditionf("floor %s has no unbound downward stair", input.DungeonNode)
}

func (o *orchestrator) GetFloorLayout(ctx context.Context, input *GetFloorLayoutInput) (*GetFloorLayoutOutput, error) {
	if input.DungeonNode == "" {
		return nil, errors.InvalidArgument("dungeon node is required")
	}

	listed, err := o.floorNodeRepo.ListByDungeonNode(ctx, floornodes.ListByDungeonNodeInput{
		DungeonNode: input.DungeonNode,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list floor nodes for %s", input.DungeonNode)
	}
	if len(listed.Nodes) == 0 {
		return nil, errors.NotFoundf("floor %s not found", input.DungeonNode)
	}

	floor, err := ProcessFloorLayout(input.DungeonNode, listed.Nodes)
	if err != nil {
		return nil, err
	}

	return &GetFloorLayoutOutput{Floor: floor}, nil
}

func (o *orchestrator) GetFloorTiles(ctx context.Context, input *GetFloorTilesInput) (*GetFloorTilesOutput, error) {
	layout, err := o.GetFloorLayout(ctx, &GetFloorLayoutInput{DungeonNode: input.DungeonNode})
	if err != nil {
		return nil, err
	}

	floor := layout.Floor
	return &GetFloorTilesOutput{
		FloorTiles:         floor.FloorTiles,
		WallTiles:          floor.WallTiles,
		UpwardStairTiles:   floor.UpwardStairTiles,
		DownwardStairTiles: floor.DownwardStairTiles,
	}, nil
}

func (o *orchestrator) GetRoomStairs(ctx context.Context, input *GetRoomStairsInput) (*GetRoomStairsOutput, error) {
	layout, err := o.GetFloorLayout(ctx, &GetFloorLayoutInput{DungeonNode: input.DungeonNode})
	if err != nil {
		return nil, err
	}

	var stairs []RoomStair
	for _, room := range layout.Floor.Rooms {
		if room.HasUpwardStair {
			stairs = append(stairs, RoomStair{
				RoomName: room.Name,
				Upward:   true,
				X:        room.StairX,
				Y:        room.StairY,
			})
		}
		if room.HasDownwardStair {
			stairs = append(stairs, RoomStair{
				RoomName:    room.Name,
				X:           room.StairX,
				Y:           room.StairY,
				Destination: room.StairDestination,
			})
		}
	}

	return &GetRoomStairsOutput{Stairs: stairs}, nil
}

func (o *orchestrator) Reset(ctx context.Context) error {
	return o.floorNodeRepo.Reset(ctx)
}

// assembleTiles turns positioned geometry into the floor's tile sets
func assembleTiles(floor *entities.GeneratedFloorData) {
	up, down := geometry.StairTiles(floor.Rooms)
	downTiles := geometry.StairTilesToTiles(down)

	floor.UpwardStairTiles = up
	floor.DownwardStairTiles = down
	floor.FloorTiles = geometry.FloorTiles(floor.Rooms, floor.Hallways, downTiles)
	floor.WallTiles = geometry.WallTiles(floor.FloorTiles, downTiles)

	all := append(append([]entities.Tile{}, floor.FloorTiles...), floor.WallTiles...)
	floor.Bounds = geometry.BoundsOf(all)
}
