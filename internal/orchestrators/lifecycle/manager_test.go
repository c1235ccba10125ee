package lifecycle_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/geometry"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/floorlayout"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/lifecycle"
	lifecyclemock "github.com/deepdelve/dungeon-api/internal/orchestrators/lifecycle/mock"
	"github.com/deepdelve/dungeon-api/internal/pkg/clock"
	"github.com/deepdelve/dungeon-api/internal/pkg/idgen"
	"github.com/deepdelve/dungeon-api/internal/pkg/scheduler"
	"github.com/deepdelve/dungeon-api/internal/repositories/enemies"
	"github.com/deepdelve/dungeon-api/internal/repositories/items"
	"github.com/deepdelve/dungeon-api/internal/testutils"
)

type fakeTiles struct {
	tiles []entities.Tile
}

func (f *fakeTiles) GetFloorTiles(_ context.Context, _ *floorlayout.GetFloorTilesInput) (*floorlayout.GetFloorTilesOutput, error) {
	return &floorlayout.GetFloorTilesOutput{FloorTiles: f.tiles}, nil
}

type stubRoller struct{}

func (stubRoller) Roll(_ int) (int, error) { return 3, nil }

func (stubRoller) RollN(_, _ int) ([]int, error) { return []int{3, 3}, nil }

type ManagerTestSuite struct {
	suite.Suite
	mgr       *lifecycle.Manager
	clk       *clock.Manual
	sched     *scheduler.Manual
	enemyRepo enemies.Repository
	itemRepo  items.Repository
	cleanup   func()
	ctx       context.Context

	eventsMu sync.Mutex
	events   []any
}

func (s *ManagerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.events = nil

	var tiles []entities.Tile
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			tiles = append(tiles, entities.Tile{X: x, Y: y})
		}
	}
	s.buildManager(tiles)
}

func (s *ManagerTestSuite) TearDownTest() {
	s.mgr.Close()
	s.cleanup()
}

func (s *ManagerTestSuite) buildManager(tiles []entities.Tile) {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	var err error
	s.enemyRepo, err = enemies.NewRedis(&enemies.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.itemRepo, err = items.NewRedis(&items.RedisConfig{Client: client})
	s.Require().NoError(err)

	s.clk = clock.NewManual(time.Unix(1000, 0))
	s.sched = scheduler.NewManual(s.clk)

	ctrl := gomock.NewController(s.T())
	broadcaster := lifecyclemock.NewMockBroadcaster(ctrl)
	broadcaster.EXPECT().
		Broadcast(gomock.Any(), gomock.Any()).
		Do(func(_ string, event any) {
			s.eventsMu.Lock()
			s.events = append(s.events, event)
			s.eventsMu.Unlock()
		}).
		AnyTimes()

	s.mgr, err = lifecycle.NewManager(&lifecycle.Config{
		EnemyRepo:   s.enemyRepo,
		ItemRepo:    s.itemRepo,
		Tiles:       &fakeTiles{tiles: tiles},
		Broadcaster: broadcaster,
		Scheduler:   s.sched,
		Clock:       s.clk,
		IDGenerator: idgen.NewSequential("ent_"),
		Roller:      stubRoller{},
		Rand:        rand.New(rand.NewSource(99)),
	})
	s.Require().NoError(err)
}

func (s *ManagerTestSuite) eventCount(eventType string) int {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	count := 0
	for _, ev := range s.events {
		switch e := ev.(type) {
		case *lifecycle.EnemySpawnedEvent:
			if e.Type == eventType {
				count++
			}
		case *lifecycle.EnemyMovedEvent:
			if e.Type == eventType {
				count++
			}
		case *lifecycle.EnemyHitEvent:
			if e.Type == eventType {
				count++
			}
		case *lifecycle.EnemyDespawnedEvent:
			if e.Type == eventType {
				count++
			}
		case *lifecycle.ItemSpawnedEvent:
			if e.Type == eventType {
				count++
			}
		case *lifecycle.ItemPickedUpEvent:
			if e.Type == eventType {
				count++
			}
		case *lifecycle.ItemDespawnedEvent:
			if e.Type == eventType {
				count++
			}
		}
	}
	return count
}

func (s *ManagerTestSuite) spawnedItemIDs() []string {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	var ids []string
	for _, ev := range s.events {
		if e, ok := ev.(*lifecycle.ItemSpawnedEvent); ok {
			ids = append(ids, e.Item.ID)
		}
	}
	return ids
}

func (s *ManagerTestSuite) populate(floor string) *lifecycle.PopulateFloorOutput {
	out, err := s.mgr.PopulateFloor(s.ctx, &lifecycle.PopulateFloorInput{Floor: floor})
	s.Require().NoError(err)
	return out
}

func (s *ManagerTestSuite) TestPopulateFloorSpawnsEntities() {
	out := s.populate("AB")
	s.Equal(5, out.Enemies)
	s.Equal(3, out.Items)

	listed, err := s.enemyRepo.ListByFloor(s.ctx, enemies.ListByFloorInput{Floor: "AB"})
	s.Require().NoError(err)
	s.Len(listed.Enemies, 5)

	listedItems, err := s.itemRepo.ListByFloor(s.ctx, items.ListByFloorInput{Floor: "AB"})
	s.Require().NoError(err)
	s.Len(listedItems.Items, 3)

	s.Equal(5, s.eventCount(lifecycle.EventEnemySpawned))
	s.Equal(3, s.eventCount(lifecycle.EventItemSpawned))
	s.Len(s.mgr.ActiveEnemies("AB"), 5)

	// Repopulating an already populated floor is a no-op.
	again := s.populate("AB")
	s.Zero(again.Enemies)
	s.Zero(again.Items)
	s.Equal(5, s.eventCount(lifecycle.EventEnemySpawned))
}

func (s *ManagerTestSuite) TestPopulateFloorReusesScarceTiles() {
	s.mgr.Close()
	s.cleanup()
	s.buildManager([]entities.Tile{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}})

	out := s.populate("AB")
	s.Equal(5, out.Enemies, "spawning falls back to reused tiles")

	listed, err := s.enemyRepo.ListByFloor(s.ctx, enemies.ListByFloorInput{Floor: "AB"})
	s.Require().NoError(err)
	s.Len(listed.Enemies, 5)
}

func (s *ManagerTestSuite) TestEnemiesBroadcastEveryTick() {
	s.populate("AB")

	s.sched.Advance(500 * time.Millisecond)
	s.Equal(5, s.eventCount(lifecycle.EventEnemyMoved))

	s.sched.Advance(500 * time.Millisecond)
	s.Equal(10, s.eventCount(lifecycle.EventEnemyMoved), "position goes out every tick, moved or not")
}

func (s *ManagerTestSuite) TestEnemiesExpire() {
	s.populate("AB")

	s.sched.Advance(2*time.Minute + time.Second)

	s.Equal(5, s.eventCount(lifecycle.EventEnemyDespawned))
	s.Empty(s.mgr.ActiveEnemies("AB"))

	listed, err := s.enemyRepo.ListByFloor(s.ctx, enemies.ListByFloorInput{Floor: "AB"})
	s.Require().NoError(err)
	s.Empty(listed.Enemies)
}

func (s *ManagerTestSuite) TestItemsExpireUnlessClaimed() {
	s.populate("AB")

	s.sched.Advance(time.Minute)

	s.Equal(3, s.eventCount(lifecycle.EventItemDespawned))
	listed, err := s.itemRepo.ListByFloor(s.ctx, items.ListByFloorInput{Floor: "AB"})
	s.Require().NoError(err)
	s.Empty(listed.Items)
}

func (s *ManagerTestSuite) TestPickupJustBeforeExpiryKeepsRecord() {
	s.populate("AB")
	ids := s.spawnedItemIDs()
	s.Require().Len(ids, 3)

	s.sched.Advance(55 * time.Second)

	out, err := s.mgr.PickUpItem(s.ctx, &lifecycle.PickUpItemInput{ItemID: ids[0], PlayerID: "player_1"})
	s.Require().NoError(err)
	s.Equal("player_1", out.Item.Owner)
	s.False(out.Item.InWorld)
	s.Equal(1, s.eventCount(lifecycle.EventItemPickedUp))

	s.sched.Advance(10 * time.Second)

	// The other two expired; the claimed one kept its record.
	s.Equal(2, s.eventCount(lifecycle.EventItemDespawned))

	got, err := s.itemRepo.Get(s.ctx, items.GetInput{ID: ids[0]})
	s.Require().NoError(err)
	s.Equal("player_1", got.Item.Owner)
}

func (s *ManagerTestSuite) TestPickUpItemLosesRace() {
	s.populate("AB")
	ids := s.spawnedItemIDs()

	_, err := s.itemRepo.Claim(s.ctx, items.ClaimInput{ID: ids[0], Owner: "someone_else"})
	s.Require().NoError(err)

	_, err = s.mgr.PickUpItem(s.ctx, &lifecycle.PickUpItemInput{ItemID: ids[0], PlayerID: "player_1"})
	s.True(errors.IsFailedPrecondition(err))
}

func (s *ManagerTestSuite) TestApplyAttackKillsInCone() {
	s.mgr.Close()
	s.cleanup()
	s.buildManager([]entities.Tile{{X: 0, Y: 0}})

	s.populate("AB")

	out, err := s.mgr.ApplyAttack(s.ctx, &lifecycle.ApplyAttackInput{
		Floor:      "AB",
		AttackerID: "player_1",
		Damage:     100,
		Cone: &geometry.ConeAttack{
			Origin:    geometry.LiftPlanar(0, 0),
			Direction: geometry.Vec3{X: 1},
			Range:     10,
		},
	})
	s.Require().NoError(err)
	s.Len(out.Hits, 5, "everyone spawned on the single tile is in the cone")
	s.Len(out.Killed, 5)

	s.Equal(5, s.eventCount(lifecycle.EventEnemyHit))
	s.Equal(5, s.eventCount(lifecycle.EventEnemyDespawned))
	s.Empty(s.mgr.ActiveEnemies("AB"))

	listed, err := s.enemyRepo.ListByFloor(s.ctx, enemies.ListByFloorInput{Floor: "AB"})
	s.Require().NoError(err)
	s.Empty(listed.Enemies)
}

func (s *ManagerTestSuite) TestApplyAttackDamageWithoutKill() {
	s.populate("AB")

	out, err := s.mgr.ApplyAttack(s.ctx, &lifecycle.ApplyAttackInput{
		Floor:      "AB",
		AttackerID: "player_1",
		Damage:     1,
		Capsule: &geometry.CapsuleAttack{
			From:   geometry.LiftPlanar(-100, -100),
			To:     geometry.LiftPlanar(100, 100),
			Radius: 1000,
		},
	})
	s.Require().NoError(err)
	s.Len(out.Hits, 5)
	s.Empty(out.Killed, "stub health is 10, one damage kills nobody")
	s.Len(s.mgr.ActiveEnemies("AB"), 5)
}

func (s *ManagerTestSuite) TestApplyAttackValidation() {
	_, err := s.mgr.ApplyAttack(s.ctx, &lifecycle.ApplyAttackInput{Floor: "AB", Damage: 5})
	s.True(errors.IsInvalidArgument(err), "an attack needs exactly one shape")

	_, err = s.mgr.ApplyAttack(s.ctx, &lifecycle.ApplyAttackInput{
		Floor:   "AB",
		Damage:  5,
		Cone:    &geometry.ConeAttack{Range: 1},
		Capsule: &geometry.CapsuleAttack{Radius: 1},
	})
	s.True(errors.IsInvalidArgument(err))
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}
