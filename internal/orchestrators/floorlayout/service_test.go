package floorlayout_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/floorlayout"
	"github.com/deepdelve/dungeon-api/internal/repositories/floornodes"
	"github.com/deepdelve/dungeon-api/internal/testutils"
)

type ServiceTestSuite struct {
	suite.Suite
	svc     floorlayout.Service
	cleanup func()
	ctx     context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.svc, s.cleanup = s.newService(42)
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) newService(seed int64) (floorlayout.Service, func()) {
	client, cleanup := testutils.CreateTestRedisClient(s.T())

	repo, err := floornodes.NewRedis(&floornodes.RedisConfig{Client: client})
	s.Require().NoError(err)

	svc, err := floorlayout.NewOrchestrator(&floorlayout.Config{
		FloorNodeRepo: repo,
		Rand:          rand.New(rand.NewSource(seed)),
	})
	s.Require().NoError(err)
	return svc, cleanup
}

func (s *ServiceTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *ServiceTestSuite) generate(dungeonNode string) *entities.GeneratedFloorData {
	_, err := s.svc.GenerateFloor(s.ctx, &floorlayout.GenerateFloorInput{
		DungeonNode:    dungeonNode,
		HasUpwardStair: true,
	})
	s.Require().NoError(err)

	layout, err := s.svc.GetFloorLayout(s.ctx, &floorlayout.GetFloorLayoutInput{DungeonNode: dungeonNode})
	s.Require().NoError(err)
	return layout.Floor
}

func (s *ServiceTestSuite) TestGenerateFloorRoomCount() {
	out, err := s.svc.GenerateFloor(s.ctx, &floorlayout.GenerateFloorInput{DungeonNode: "A"})
	s.Require().NoError(err)

	s.GreaterOrEqual(out.Rooms, 4)
	s.LessOrEqual(out.Rooms, 8)
	s.Equal("A-0", out.RootNode)
}

func (s *ServiceTestSuite) TestLayoutIsDeterministic() {
	first, cleanupA := s.newService(7)
	defer cleanupA()
	second, cleanupB := s.newService(7)
	defer cleanupB()

	for _, svc := range []floorlayout.Service{first, second} {
		_, err := svc.GenerateFloor(s.ctx, &floorlayout.GenerateFloorInput{DungeonNode: "AB", HasUpwardStair: true})
		s.Require().NoError(err)
	}

	layoutA, err := first.GetFloorLayout(s.ctx, &floorlayout.GetFloorLayoutInput{DungeonNode: "AB"})
	s.Require().NoError(err)
	layoutB, err := second.GetFloorLayout(s.ctx, &floorlayout.GetFloorLayoutInput{DungeonNode: "AB"})
	s.Require().NoError(err)

	s.Equal(layoutA.Floor, layoutB.Floor, "same stored graph resolves to the same geometry")

	// Resolving twice from the same store is also stable.
	again, err := first.GetFloorLayout(s.ctx, &floorlayout.GetFloorLayoutInput{DungeonNode: "AB"})
	s.Require().NoError(err)
	s.Equal(layoutA.Floor, again.Floor)
}

func (s *ServiceTestSuite) TestStairTileInvariants() {
	floor := s.generate("A")

	floorSet := make(map[entities.Tile]struct{}, len(floor.FloorTiles))
	for _, t := range floor.FloorTiles {
		floorSet[t] = struct{}{}
	}
	wallSet := make(map[entities.Tile]struct{}, len(floor.WallTiles))
	for _, t := range floor.WallTiles {
		wallSet[t] = struct{}{}
	}

	s.NotEmpty(floor.UpwardStairTiles)
	for _, st := range floor.UpwardStairTiles {
		s.Contains(floorSet, st.Tile, "upward stairs are walkable")
		s.NotContains(wallSet, st.Tile)
	}

	s.NotEmpty(floor.DownwardStairTiles)
	for _, st := range floor.DownwardStairTiles {
		s.NotContains(floorSet, st.Tile, "downward stairs are holes, not floor")
		s.NotContains(wallSet, st.Tile, "holes never solidify into walls")
	}

	for _, room := range floor.Rooms {
		s.False(room.HasUpwardStair && room.HasDownwardStair,
			"room %s holds both stair kinds", room.Name)
	}
}

func (s *ServiceTestSuite) TestStairsSitInsideTheirRoom() {
	floor := s.generate("A")

	rooms := make(map[string]entities.PositionedRoom, len(floor.Rooms))
	for _, r := range floor.Rooms {
		rooms[r.Name] = r
	}

	check := func(st entities.StairTile) {
		room, ok := rooms[st.RoomName]
		s.Require().True(ok)
		s.Greater(st.X, room.X)
		s.Less(st.X, room.X+room.Width-1)
		s.Greater(st.Y, room.Y)
		s.Less(st.Y, room.Y+room.Height-1)
	}
	for _, st := range floor.UpwardStairTiles {
		check(st)
	}
	for _, st := range floor.DownwardStairTiles {
		check(st)
	}
}

func (s *ServiceTestSuite) TestBindDownwardStair() {
	floor := s.generate("A")

	bound, err := s.svc.BindDownwardStair(s.ctx, &floorlayout.BindDownwardStairInput{
		DungeonNode: "A",
		Destination: "AA",
	})
	s.Require().NoError(err)
	s.NotEmpty(bound.RoomName)

	stairs, err := s.svc.GetRoomStairs(s.ctx, &floorlayout.GetRoomStairsInput{DungeonNode: "A"})
	s.Require().NoError(err)

	var destinations []string
	for _, st := range stairs.Stairs {
		if !st.Upward && st.Destination != "" {
			destinations = append(destinations, st.Destination)
		}
	}
	s.Equal([]string{"AA"}, destinations)

	// Exhaust the remaining unbound stairs, then expect a precondition
	// failure.
	remaining := len(floor.DownwardStairTiles) - 1
	for i := 0; i < remaining; i++ {
		_, err = s.svc.BindDownwardStair(s.ctx, &floorlayout.BindDownwardStairInput{
			DungeonNode: "A",
			Destination: "AB",
		})
		s.Require().NoError(err)
	}

	_, err = s.svc.BindDownwardStair(s.ctx, &floorlayout.BindDownwardStairInput{
		DungeonNode: "A",
		Destination: "AC",
	})
	s.True(errors.IsFailedPrecondition(err))
}

func (s *ServiceTestSuite) TestGetFloorLayoutMissing() {
	_, err := s.svc.GetFloorLayout(s.ctx, &floorlayout.GetFloorLayoutInput{DungeonNode: "ZZ"})
	s.True(errors.IsNotFound(err))
}

func (s *ServiceTestSuite) TestGetFloorTiles() {
	s.generate("A")

	tiles, err := s.svc.GetFloorTiles(s.ctx, &floorlayout.GetFloorTilesInput{DungeonNode: "A"})
	s.Require().NoError(err)

	s.NotEmpty(tiles.FloorTiles)
	s.NotEmpty(tiles.WallTiles)
	s.NotEmpty(tiles.UpwardStairTiles)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
