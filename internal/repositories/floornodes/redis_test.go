package floornodes_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/repositories/floornodes"
	"github.com/deepdelve/dungeon-api/internal/testutils"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	repo    floornodes.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	repo, err := floornodes.NewRedis(&floornodes.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *RedisRepositoryTestSuite) createFloor(dungeonNode string, count int) {
	nodes := make([]*entities.FloorNode, 0, count)
	for i := 0; i < count; i++ {
		nodes = append(nodes, &entities.FloorNode{
			Name:        dungeonNode + "-" + string(rune('0'+i)),
			DungeonNode: dungeonNode,
			IsRoom:      true,
			RoomWidth:   4,
			RoomHeight:  4,
		})
	}
	out, err := s.repo.CreateBatch(s.ctx, floornodes.CreateBatchInput{Nodes: nodes})
	s.Require().NoError(err)
	s.Require().Equal(count, out.Created)
}

func (s *RedisRepositoryTestSuite) TestCreateBatchAndList() {
	s.createFloor("A", 3)
	s.createFloor("AA", 2)

	listed, err := s.repo.ListByDungeonNode(s.ctx, floornodes.ListByDungeonNodeInput{DungeonNode: "A"})
	s.Require().NoError(err)
	s.Len(listed.Nodes, 3, "the floor index only returns the floor's own nodes")

	got, err := s.repo.Get(s.ctx, floornodes.GetInput{Name: "A-0"})
	s.Require().NoError(err)
	s.Equal("A", got.Node.DungeonNode)
	s.True(got.Node.IsRoom)
}

func (s *RedisRepositoryTestSuite) TestCreateBatchRejectsUnownedNode() {
	_, err := s.repo.CreateBatch(s.ctx, floornodes.CreateBatchInput{
		Nodes: []*entities.FloorNode{{Name: "A-0"}},
	})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RedisRepositoryTestSuite) TestUpdateBindsStair() {
	s.createFloor("A", 1)

	got, err := s.repo.Get(s.ctx, floornodes.GetInput{Name: "A-0"})
	s.Require().NoError(err)

	got.Node.HasDownwardStair = true
	got.Node.StairDestination = "AA"
	_, err = s.repo.Update(s.ctx, floornodes.UpdateInput{Node: got.Node})
	s.Require().NoError(err)

	got, err = s.repo.Get(s.ctx, floornodes.GetInput{Name: "A-0"})
	s.Require().NoError(err)
	s.Equal("AA", got.Node.StairDestination)
}

func (s *RedisRepositoryTestSuite) TestUpdateMissingNode() {
	_, err := s.repo.Update(s.ctx, floornodes.UpdateInput{
		Node: &entities.FloorNode{Name: "Z-0", DungeonNode: "Z"},
	})
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepositoryTestSuite) TestReset() {
	s.createFloor("A", 3)
	s.createFloor("AA", 2)

	s.Require().NoError(s.repo.Reset(s.ctx))

	for _, floor := range []string{"A", "AA"} {
		listed, err := s.repo.ListByDungeonNode(s.ctx, floornodes.ListByDungeonNodeInput{DungeonNode: floor})
		s.Require().NoError(err)
		s.Empty(listed.Nodes)
	}
	_, err := s.repo.Get(s.ctx, floornodes.GetInput{Name: "A-0"})
	s.True(errors.IsNotFound(err))
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
