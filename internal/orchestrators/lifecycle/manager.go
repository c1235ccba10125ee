// Package lifecycle owns the live entities of populated floors: spawning,
// per-entity tick loops, combat application, and pickups. Position and
// health are authoritative in memory; the store sees them lazily.
package lifecycle

//go:generate mockgen -destination=mock/mock_broadcaster.go -package=lifecyclemock github.com/deepdelve/dungeon-api/internal/orchestrators/lifecycle Broadcaster

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/floorlayout"
	"github.com/deepdelve/dungeon-api/internal/pkg/clock"
	"github.com/deepdelve/dungeon-api/internal/pkg/idgen"
	"github.com/deepdelve/dungeon-api/internal/pkg/scheduler"
	"github.com/deepdelve/dungeon-api/internal/repositories/enemies"
	"github.com/deepdelve/dungeon-api/internal/repositories/items"
)

const (
	enemyTickInterval = 500 * time.Millisecond
	itemTickInterval  = 5 * time.Second

	enemyLifetime = 2 * time.Minute
	itemLifetime  = time.Minute

	enemiesPerFloor = 5
	itemsPerFloor   = 3

	// How many times a spawn retries for an unoccupied tile before it
	// silently reuses one.
	spawnTileAttempts = 50

	// World units moved per enemy tick (half a tile)
	enemyMoveSpeed = entities.CellSize / 2

	// Ticks between lazy pushes of in-memory enemy state to the store
	storePushInterval = 4
)

var (
	enemyTypes = []string{"slime", "skeleton", "bat"}
	itemTypes  = []string{"sword", "shield", "boots"}
)

// Broadcaster fans an event out to every client subscribed to a floor
type Broadcaster interface {
	Broadcast(floor string, event any)
}

// TileSource resolves a floor's walkable tiles. Satisfied by the floor
// layout service.
type TileSource interface {
	GetFloorTiles(ctx context.Context, input *floorlayout.GetFloorTilesInput) (*floorlayout.GetFloorTilesOutput, error)
}

// Config holds the dependencies for the lifecycle manager
type Config struct {
	EnemyRepo   enemies.Repository
	ItemRepo    items.Repository
	Tiles       TileSource
	Broadcaster Broadcaster
	Scheduler   scheduler.Scheduler
	Clock       clock.Clock
	IDGenerator idgen.Generator
	Roller      dice.Roller
	Rand        *rand.Rand
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.EnemyRepo == nil {
		vb.RequiredField("EnemyRepo")
	}
	if c.ItemRepo == nil {
		vb.RequiredField("ItemRepo")
	}
	if c.Tiles == nil {
		vb.RequiredField("Tiles")
	}
	if c.Broadcaster == nil {
		vb.RequiredField("Broadcaster")
	}
	if c.Scheduler == nil {
		vb.RequiredField("Scheduler")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	if c.Rand == nil {
		vb.RequiredField("Rand")
	}

	return vb.Build()
}

// activeEnemy is the in-memory tracking entry for one live enemy. Its
// onDespawned callback is installed at spawn so the despawn path only has
// to emit "I'm gone" without reaching back into the manager's maps.
type activeEnemy struct {
	enemy *entities.Enemy
	tiles map[entities.Tile]struct{}

	destX, destY float64
	hasDest      bool
	ticks        int

	stop        func()
	onDespawned func(id string)
}

type activeItem struct {
	item *entities.Item
	stop func()
}

// Manager tracks the live entities of every populated floor
type Manager struct {
	enemyRepo   enemies.Repository
	itemRepo    items.Repository
	tiles       TileSource
	broadcaster Broadcaster
	sched       scheduler.Scheduler
	clk         clock.Clock
	ids         idgen.Generator
	roller      dice.Roller

	mu          sync.Mutex
	rng         *rand.Rand
	enemies     map[string]*activeEnemy
	enemyFloors map[string]map[string]*activeEnemy
	items       map[string]*activeItem
	populated   map[string]bool
}

// NewManager creates a new lifecycle manager
func NewManager(cfg *Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Manager{
		enemyRepo:   cfg.EnemyRepo,
		itemRepo:    cfg.ItemRepo,
		tiles:       cfg.Tiles,
		broadcaster: cfg.Broadcaster,
		sched:       cfg.Scheduler,
		clk:         cfg.Clock,
		ids:         cfg.IDGenerator,
		roller:      cfg.Roller,
		rng:         cfg.Rand,
		enemies:     make(map[string]*activeEnemy),
		enemyFloors: make(map[string]map[string]*activeEnemy),
		items:       make(map[string]*activeItem),
		populated:   make(map[string]bool),
	}, nil
}

// PopulateFloorInput defines the input for populating a floor
type PopulateFloorInput struct {
	Floor string
}

// PopulateFloorOutput defines the output for populating a floor
type PopulateFloorOutput struct {
	Enemies int
	Items   int
}

// PopulateFloor spawns this floor's enemies and items and starts their tick
// loops. Populating an already populated floor is a no-op.
func (m *Manager) PopulateFloor(ctx context.Context, input *PopulateFloorInput) (*PopulateFloorOutput, error) {
	if input.Floor == "" {
		return nil, errors.InvalidArgument("floor is required")
	}

	tilesOut, err := m.tiles.GetFloorTiles(ctx, &floorlayout.GetFloorTilesInput{DungeonNode: input.Floor})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tiles for %s", input.Floor)
	}
	if len(tilesOut.FloorTiles) == 0 {
		return nil, errors.FailedPreconditionf("floor %s has no walkable tiles", input.Floor)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.populated[input.Floor] {
		return &PopulateFloorOutput{}, nil
	}
	m.populated[input.Floor] = true

	tileSet := make(map[entities.Tile]struct{}, len(tilesOut.FloorTiles))
	for _, t := range tilesOut.FloorTiles {
		tileSet[t] = struct{}{}
	}

	used := make(map[entities.Tile]bool)
	out := &PopulateFloorOutput{}

	for i := 0; i < enemiesPerFloor; i++ {
		if err := m.spawnEnemyLocked(ctx, input.Floor, tilesOut.FloorTiles, tileSet, used); err != nil {
			m.populated[input.Floor] = false
			return nil, err
		}
		out.Enemies++
	}

	for i := 0; i < itemsPerFloor; i++ {
		if err := m.spawnItemLocked(ctx, input.Floor, tilesOut.FloorTiles, used); err != nil {
			m.populated[input.Floor] = false
			return nil, err
		}
		out.Items++
	}

	return out, nil
}

// ActiveEnemies returns a snapshot of the tracked enemies on one floor,
// used to seed newly joined clients.
func (m *Manager) ActiveEnemies(floor string) []*entities.Enemy {
	m.mu.Lock()
	defer m.mu.Unlock()

	tracked := m.enemyFloors[floor]
	snapshot := make([]*entities.Enemy, 0, len(tracked))
	for _, ae := range tracked {
		e := *ae.enemy
		snapshot = append(snapshot, &e)
	}
	return snapshot
}

// Close stops every entity tick loop. Records are left in the store.
func (m *Manager) Close() {
	m.mu.Lock()
	var stops []func()
	for _, ae := range m.enemies {
		if ae.stop != nil {
			stops = append(stops, ae.stop)
		}
	}
	for _, ai := range m.items {
		if ai.stop != nil {
			stops = append(stops, ai.stop)
		}
	}
	m.enemies = make(map[string]*activeEnemy)
	m.enemyFloors = make(map[string]map[string]*activeEnemy)
	m.items = make(map[string]*activeItem)
	m.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// pickSpawnTileLocked attempts a tile nobody else spawned on, then gives up
// and reuses one. Caller holds m.mu.
func (m *Manager) pickSpawnTileLocked(tiles []entities.Tile, used map[entities.Tile]bool) entities.Tile {
	for i := 0; i < spawnTileAttempts; i++ {
		t := tiles[m.rng.Intn(len(tiles))]
		if !used[t] {
			used[t] = true
			return t
		}
	}
	return tiles[m.rng.Intn(len(tiles))]
}

func (m *Manager) trackEnemyLocked(ae *activeEnemy) {
	m.enemies[ae.enemy.ID] = ae
	floor := ae.enemy.Floor
	if m.enemyFloors[floor] == nil {
		m.enemyFloors[floor] = make(map[string]*activeEnemy)
	}
	m.enemyFloors[floor][ae.enemy.ID] = ae
}

// removeEnemy is the despawn callback: it only forgets the reference
func (m *Manager) removeEnemy(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ae, ok := m.enemies[id]
	if !ok {
		return
	}
	delete(m.enemies, id)
	if byFloor := m.enemyFloors[ae.enemy.Floor]; byFloor != nil {
		delete(byFloor, id)
		if len(byFloor) == 0 {
			delete(m.enemyFloors, ae.enemy.Floor)
		}
	}
}
