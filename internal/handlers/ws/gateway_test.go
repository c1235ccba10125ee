package ws_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/deepdelve/dungeon-api/internal/clients/identity"
	"github.com/deepdelve/dungeon-api/internal/handlers/ws"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/dungeon"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/floorlayout"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/lifecycle"
	"github.com/deepdelve/dungeon-api/internal/pkg/clock"
	"github.com/deepdelve/dungeon-api/internal/pkg/idgen"
	"github.com/deepdelve/dungeon-api/internal/pkg/scheduler"
	"github.com/deepdelve/dungeon-api/internal/registry"
	"github.com/deepdelve/dungeon-api/internal/repositories/dungeonnodes"
	"github.com/deepdelve/dungeon-api/internal/repositories/enemies"
	"github.com/deepdelve/dungeon-api/internal/repositories/floornodes"
	"github.com/deepdelve/dungeon-api/internal/repositories/items"
	"github.com/deepdelve/dungeon-api/internal/repositories/players"
	"github.com/deepdelve/dungeon-api/internal/testutils"
)

type stubRoller struct{}

func (stubRoller) Roll(_ int) (int, error) { return 3, nil }

func (stubRoller) RollN(_, _ int) ([]int, error) { return []int{3, 3}, nil }

type GatewayTestSuite struct {
	suite.Suite
	server     *httptest.Server
	playerRepo players.Repository
	manager    *lifecycle.Manager
	cleanup    func()
	ctx        context.Context
}

func (s *GatewayTestSuite) SetupTest() {
	s.ctx = context.Background()

	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	floorRepo, err := floornodes.NewRedis(&floornodes.RedisConfig{Client: client})
	s.Require().NoError(err)
	nodeRepo, err := dungeonnodes.NewRedis(&dungeonnodes.RedisConfig{Client: client})
	s.Require().NoError(err)
	enemyRepo, err := enemies.NewRedis(&enemies.RedisConfig{Client: client})
	s.Require().NoError(err)
	itemRepo, err := items.NewRedis(&items.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.playerRepo, err = players.NewRedis(&players.RedisConfig{Client: client})
	s.Require().NoError(err)

	layout, err := floorlayout.NewOrchestrator(&floorlayout.Config{
		FloorNodeRepo: floorRepo,
		Rand:          rand.New(rand.NewSource(5)),
	})
	s.Require().NoError(err)

	dungeonSvc, err := dungeon.NewOrchestrator(&dungeon.Config{
		DungeonNodeRepo: nodeRepo,
		FloorLayout:     layout,
		Rand:            rand.New(rand.NewSource(5)),
	})
	s.Require().NoError(err)

	reg := registry.New()
	clk := clock.NewManual(time.Unix(1000, 0))

	s.manager, err = lifecycle.NewManager(&lifecycle.Config{
		EnemyRepo:   enemyRepo,
		ItemRepo:    itemRepo,
		Tiles:       layout,
		Broadcaster: reg,
		Scheduler:   scheduler.NewManual(clk),
		Clock:       clk,
		IDGenerator: idgen.NewSequential("ent_"),
		Roller:      stubRoller{},
		Rand:        rand.New(rand.NewSource(5)),
	})
	s.Require().NoError(err)
	reg.SetEnemySource(s.manager)

	gateway, err := ws.New(&ws.Config{
		Dungeon:     dungeonSvc,
		FloorLayout: layout,
		Lifecycle:   s.manager,
		Registry:    reg,
		PlayerRepo:  s.playerRepo,
		Identity:    identity.NewInsecure(),
		Clock:       clk,
	})
	s.Require().NoError(err)

	_, err = dungeonSvc.Initialize(s.ctx, &dungeon.InitializeInput{})
	s.Require().NoError(err)

	s.server = httptest.NewServer(gateway.Routes())
}

func (s *GatewayTestSuite) TearDownTest() {
	s.server.Close()
	s.manager.Close()
	s.cleanup()
}

func (s *GatewayTestSuite) getJSON(path string, v any) int {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func (s *GatewayTestSuite) dial(token string) *websocket.Conn {
	url := strings.Replace(s.server.URL, "http", "ws", 1) + "/v1/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn
}

// readUntil skips events until one of the wanted type arrives
func (s *GatewayTestSuite) readUntil(conn *websocket.Conn, eventType string) map[string]any {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	for i := 0; i < 50; i++ {
		var event map[string]any
		s.Require().NoError(conn.ReadJSON(&event))
		if event["type"] == eventType {
			return event
		}
	}
	s.Require().FailNow("event not received", "wanted %s", eventType)
	return nil
}

func (s *GatewayTestSuite) TestSpawnEndpoint() {
	var resp struct {
		Floor string `json:"floor"`
	}
	status := s.getJSON("/v1/spawn", &resp)
	s.Equal(http.StatusOK, status)
	s.Equal("A", resp.Floor)
}

func (s *GatewayTestSuite) TestFloorQueryEndpoints() {
	var layout struct {
		DungeonNode string           `json:"dungeon_node"`
		Rooms       []map[string]any `json:"rooms"`
	}
	status := s.getJSON("/v1/floors/A/layout", &layout)
	s.Equal(http.StatusOK, status)
	s.Equal("A", layout.DungeonNode)
	s.NotEmpty(layout.Rooms)

	var tiles struct {
		FloorTiles       []map[string]any `json:"floor_tiles"`
		UpwardStairTiles []map[string]any `json:"upward_stair_tiles"`
	}
	status = s.getJSON("/v1/floors/A/tiles", &tiles)
	s.Equal(http.StatusOK, status)
	s.NotEmpty(tiles.FloorTiles)
	s.NotEmpty(tiles.UpwardStairTiles)

	var stairs struct {
		Stairs []map[string]any `json:"stairs"`
	}
	status = s.getJSON("/v1/floors/A/stairs", &stairs)
	s.Equal(http.StatusOK, status)
	s.NotEmpty(stairs.Stairs)
}

func (s *GatewayTestSuite) TestUnknownFloorIsNotFound() {
	var errResp struct {
		Code string `json:"code"`
	}
	status := s.getJSON("/v1/floors/ZZZ/tiles", &errResp)
	s.Equal(http.StatusNotFound, status)
	s.Equal("NOT_FOUND", errResp.Code)
}

func (s *GatewayTestSuite) TestSocketRequiresToken() {
	url := strings.Replace(s.server.URL, "http", "ws", 1) + "/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	defer func() { _ = resp.Body.Close() }()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *GatewayTestSuite) TestConnectReceivesEnemySnapshot() {
	conn := s.dial("alice")
	defer func() { _ = conn.Close() }()

	snapshot := s.readUntil(conn, "enemy_snapshot")
	s.Equal("A", snapshot["floor"])
	s.Len(snapshot["enemies"], 5, "the spawn floor was populated on join")

	got, err := s.playerRepo.Get(s.ctx, players.GetInput{ID: "alice"})
	s.Require().NoError(err)
	s.True(got.Player.Online)
	s.Equal("A", got.Player.Floor)
}

func (s *GatewayTestSuite) TestPlayerEventsFanOut() {
	alice := s.dial("alice")
	defer func() { _ = alice.Close() }()
	s.readUntil(alice, "enemy_snapshot")

	bob := s.dial("bob")
	defer func() { _ = bob.Close() }()
	s.readUntil(bob, "enemy_snapshot")

	joined := s.readUntil(alice, "player_joined")
	s.Equal("bob", joined["id"])

	s.Require().NoError(bob.WriteJSON(map[string]any{
		"type": "move", "x": 12.5, "y": 7.5, "facing_x": 1.0, "facing_y": 0.0,
	}))
	moved := s.readUntil(alice, "player_moved")
	s.Equal("bob", moved["id"])
	s.Equal(12.5, moved["x"])

	s.Require().NoError(bob.WriteJSON(map[string]any{
		"type": "action", "action": "melee_attack", "aim_x": 15.0, "aim_y": 7.5,
	}))
	action := s.readUntil(alice, "player_action")
	s.Equal("bob", action["id"])
	s.Equal("melee_attack", action["action"])
}

func (s *GatewayTestSuite) TestDisconnectAnnouncesAndGoesOffline() {
	alice := s.dial("alice")
	defer func() { _ = alice.Close() }()
	s.readUntil(alice, "enemy_snapshot")

	bob := s.dial("bob")
	s.readUntil(bob, "enemy_snapshot")
	s.readUntil(alice, "player_joined")

	s.Require().NoError(bob.Close())

	left := s.readUntil(alice, "player_left")
	s.Equal("bob", left["id"])

	s.Require().Eventually(func() bool {
		got, err := s.playerRepo.Get(s.ctx, players.GetInput{ID: "bob"})
		return err == nil && !got.Player.Online
	}, 2*time.Second, 20*time.Millisecond)
}

func TestGatewayTestSuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}
