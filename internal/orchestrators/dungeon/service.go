// Package dungeon owns the dungeon node tree: initialization, ahead-of-play
// generation, and the spawn floor query.
package dungeon

//go:generate mockgen -destination=mock/mock_service.go -package=dungeonmock github.com/deepdelve/dungeon-api/internal/orchestrators/dungeon Service

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/floorlayout"
	"github.com/deepdelve/dungeon-api/internal/repositories/dungeonnodes"
)

const (
	// generationBuffer is how many levels past any reachable floor must
	// already exist before a player can arrive there.
	generationBuffer = 3

	// defaultMaxDepth is where boss levels become certain
	defaultMaxDepth = 10

	// maxNodesPerCall bounds how much tree one generate-ahead call may add
	maxNodesPerCall = 32
)

// Service defines the dungeon tree interface
type Service interface {
	// Initialize wipes all dungeon state and grows a fresh tree from the
	// root node, pre-generating ahead of the spawn floor
	Initialize(ctx context.Context, input *InitializeInput) (*InitializeOutput, error)

	// EnsureGeneratedAhead extends the tree so every floor reachable
	// within the generation buffer of the given floor exists
	EnsureGeneratedAhead(ctx context.Context, input *EnsureGeneratedAheadInput) (*EnsureGeneratedAheadOutput, error)

	// GetSpawnFloor returns the floor new players start on
	GetSpawnFloor(ctx context.Context, input *GetSpawnFloorInput) (*GetSpawnFloorOutput, error)
}

// InitializeInput defines the input for initializing the dungeon
type InitializeInput struct{}

// InitializeOutput defines the output for initializing the dungeon
type InitializeOutput struct {
	RootNode string
	Created  []string
}

// EnsureGeneratedAheadInput defines the input for generating ahead
type EnsureGeneratedAheadInput struct {
	Floor string
}

// EnsureGeneratedAheadOutput defines the output for generating ahead
type EnsureGeneratedAheadOutput struct {
	Created []string
}

// GetSpawnFloorInput defines the input for the spawn floor query
type GetSpawnFloorInput struct{}

// GetSpawnFloorOutput defines the output for the spawn floor query
type GetSpawnFloorOutput struct {
	Floor string
}

// Config holds the dependencies for the dungeon orchestrator
type Config struct {
	DungeonNodeRepo dungeonnodes.Repository
	FloorLayout     floorlayout.Service
	Rand            *rand.Rand

	// MaxDepth is the depth at which every new node is a boss level.
	// Zero means defaultMaxDepth.
	MaxDepth int
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.DungeonNodeRepo == nil {
		vb.RequiredField("DungeonNodeRepo")
	}
	if c.FloorLayout == nil {
		vb.RequiredField("FloorLayout")
	}
	if c.Rand == nil {
		vb.RequiredField("Rand")
	}

	return vb.Build()
}

type orchestrator struct {
	dungeonNodeRepo dungeonnodes.Repository
	floorLayout     floorlayout.Service
	maxDepth        int

	// One growth pass at a time. Generation is rare next to gameplay
	// traffic, so a single mutex beats partially grown branches racing
	// each other.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOrchestrator creates a new dungeon orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	return &orchestrator{
		dungeonNodeRepo: cfg.DungeonNodeRepo,
		floorLayout:     cfg.FloorLayout,
		maxDepth:        maxDepth,
		rng:             cfg.Rand,
	}, nil
}

func (o *orchestrator) Initialize(ctx context.Context, _ *InitializeInput) (*InitializeOutput, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.dungeonNodeRepo.Reset(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to reset dungeon nodes")
	}
	if err := o.floorLayout.Reset(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to reset floor layouts")
	}

	root := &entities.DungeonNode{Name: entities.RootDungeonNode}
	if _, err := o.dungeonNodeRepo.Create(ctx, dungeonnodes.CreateInput{Node: root}); err != nil {
		return nil, errors.Wrap(err, "failed to create root node")
	}

	// The root floor's upward stair is the dungeon entrance.
	if _, err := o.floorLayout.GenerateFloor(ctx, &floorlayout.GenerateFloorInput{
		DungeonNode:    root.Name,
		HasUpwardStair: true,
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to generate root floor %s", root.Name)
	}

	created, err := o.generateAhead(ctx, root.Name)
	if err != nil {
		return nil, err
	}

	slog.Info("dungeon initialized",
		"root", root.Name,
		"created", len(created))

	return &InitializeOutput{RootNode: root.Name, Created: created}, nil
}

func (o *orchestrator) EnsureGeneratedAhead(ctx context.Context, input *EnsureGeneratedAheadInput) (*EnsureGeneratedAheadOutput, error) {
	if input.Floor == "" {
		return nil, errors.InvalidArgument("floor is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	created, err := o.generateAhead(ctx, input.Floor)
	if err != nil {
		return nil, err
	}
	return &EnsureGeneratedAheadOutput{Created: created}, nil
}

func (o *orchestrator) GetSpawnFloor(ctx context.Context, _ *GetSpawnFloorInput) (*GetSpawnFloorOutput, error) {
	got, err := o.dungeonNodeRepo.Get(ctx, dungeonnodes.GetInput{Name: entities.RootDungeonNode})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.FailedPrecondition("dungeon has not been initialized")
		}
		return nil, err
	}
	return &GetSpawnFloorOutput{Floor: got.Node.Name}, nil
}

// generateAhead walks the tree breadth-first from the given floor and gives
// every non-boss leaf within the buffer its children. Newly created nodes
// join the walk, so one call fills the whole buffer. Caller holds o.mu.
func (o *orchestrator) generateAhead(ctx context.Context, from string) ([]string, error) {
	start, err := o.dungeonNodeRepo.Get(ctx, dungeonnodes.GetInput{Name: from})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load floor %s", from)
	}

	var created []string

	type frontierNode struct {
		node     *entities.DungeonNode
		relDepth int
	}
	queue := []frontierNode{{node: start.Node}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.relDepth >= generationBuffer || cur.node.IsBossLevel {
			continue
		}

		if len(created) < maxNodesPerCall {
			children := o.expand(ctx, cur.node)
			created = append(created, children...)
		}

		for _, childName := range cur.node.Children {
			child, err := o.dungeonNodeRepo.Get(ctx, dungeonnodes.GetInput{Name: childName})
			if err != nil {
				slog.Warn("skipping unreadable dungeon node",
					"node", childName,
					"error", err.Error())
				continue
			}
			queue = append(queue, frontierNode{node: child.Node, relDepth: cur.relDepth + 1})
		}
	}

	return created, nil
}

// expand creates one child dungeon node per downward stair of the parent's
// floor. A child floor is generated before the parent's stair is bound to
// it, so a partial failure leaves an unreferenced floor rather than a stair
// into nothing. Failures are logged and skipped; the next growth pass
// retries unbound stairs.
func (o *orchestrator) expand(ctx context.Context, parent *entities.DungeonNode) []string {
	stairs, err := o.floorLayout.GetRoomStairs(ctx, &floorlayout.GetRoomStairsInput{DungeonNode: parent.Name})
	if err != nil {
		slog.Warn("failed to read stairs for expansion",
			"node", parent.Name,
			"error", err.Error())
		return nil
	}

	unbound := 0
	for _, st := range stairs.Stairs {
		if !st.Upward && st.Destination == "" {
			unbound++
		}
	}

	var created []string
	for i := 0; i < unbound; i++ {
		childName := parent.Name + string(rune('A'+len(parent.Children)))
		childDepth := parent.Depth() + 1

		child := &entities.DungeonNode{
			Name:                 childName,
			IsDownwardFromParent: true,
			IsBossLevel:          o.rollBoss(childDepth),
		}

		if _, err := o.floorLayout.GenerateFloor(ctx, &floorlayout.GenerateFloorInput{
			DungeonNode:    childName,
			HasUpwardStair: true,
		}); err != nil {
			slog.Warn("failed to generate child floor",
				"node", childName,
				"error", err.Error())
			continue
		}

		if _, err := o.dungeonNodeRepo.Create(ctx, dungeonnodes.CreateInput{Node: child}); err != nil {
			slog.Warn("failed to create child dungeon node",
				"node", childName,
				"error", err.Error())
			continue
		}

		if _, err := o.floorLayout.BindDownwardStair(ctx, &floorlayout.BindDownwardStairInput{
			DungeonNode: parent.Name,
			Destination: childName,
		}); err != nil {
			slog.Warn("failed to bind stair to child",
				"parent", parent.Name,
				"child", childName,
				"error", err.Error())
			continue
		}

		appended, err := o.dungeonNodeRepo.AppendChild(ctx, dungeonnodes.AppendChildInput{
			Parent: parent.Name,
			Child:  childName,
		})
		if err != nil {
			slog.Warn("failed to link child to parent",
				"parent", parent.Name,
				"child", childName,
				"error", err.Error())
			continue
		}
		parent.Children = appended.Node.Children

		if child.IsBossLevel {
			slog.Info("boss level generated", "node", childName, "depth", childDepth)
		}
		created = append(created, childName)
	}

	return created
}

// rollBoss decides whether a node at the given depth is a boss level. The
// chance grows linearly with depth and is certain at maxDepth.
func (o *orchestrator) rollBoss(depth int) bool {
	if depth >= o.maxDepth {
		return true
	}
	return o.rng.Float64() < float64(depth)/float64(o.maxDepth)
}
