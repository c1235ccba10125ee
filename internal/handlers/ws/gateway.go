// Package ws is the client-facing gateway: read-only floor queries over
// HTTP and the live event feed over websockets.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/deepdelve/dungeon-api/internal/clients/identity"
	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/geometry"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/dungeon"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/floorlayout"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/lifecycle"
	"github.com/deepdelve/dungeon-api/internal/pkg/clock"
	"github.com/deepdelve/dungeon-api/internal/registry"
	"github.com/deepdelve/dungeon-api/internal/repositories/players"
)

// Attack parameters are server-authoritative; clients only aim. Melee and
// ranged attacks are directed cones; spells are capsules along the line
// from caster to aim point.
const (
	meleeRange  = 7.5
	meleeDamage = 3

	rangedRange  = 50.0
	rangedDamage = 2

	spellRadius    = 2.5
	spellMaxLength = 50.0
	spellDamage    = 4
)

// Config holds the dependencies for the gateway
type Config struct {
	Dungeon     dungeon.Service
	FloorLayout floorlayout.Service
	Lifecycle   *lifecycle.Manager
	Registry    *registry.Registry
	PlayerRepo  players.Repository
	Identity    identity.Verifier
	Clock       clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Dungeon == nil {
		vb.RequiredField("Dungeon")
	}
	if c.FloorLayout == nil {
		vb.RequiredField("FloorLayout")
	}
	if c.Lifecycle == nil {
		vb.RequiredField("Lifecycle")
	}
	if c.Registry == nil {
		vb.RequiredField("Registry")
	}
	if c.PlayerRepo == nil {
		vb.RequiredField("PlayerRepo")
	}
	if c.Identity == nil {
		vb.RequiredField("Identity")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}

	return vb.Build()
}

// Gateway serves the floor queries and the websocket event feed
type Gateway struct {
	dungeon     dungeon.Service
	floorLayout floorlayout.Service
	lifecycle   *lifecycle.Manager
	registry    *registry.Registry
	playerRepo  players.Repository
	identity    identity.Verifier
	clk         clock.Clock
	upgrader    websocket.Upgrader
}

// New creates a new gateway
func New(cfg *Config) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Gateway{
		dungeon:     cfg.Dungeon,
		floorLayout: cfg.FloorLayout,
		lifecycle:   cfg.Lifecycle,
		registry:    cfg.Registry,
		playerRepo:  cfg.PlayerRepo,
		identity:    cfg.Identity,
		clk:         cfg.Clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Routes builds the gateway's HTTP routes
func (g *Gateway) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/spawn", g.handleSpawn).Methods(http.MethodGet)
	r.HandleFunc("/v1/floors/{name}/layout", g.handleLayout).Methods(http.MethodGet)
	r.HandleFunc("/v1/floors/{name}/tiles", g.handleTiles).Methods(http.MethodGet)
	r.HandleFunc("/v1/floors/{name}/stairs", g.handleStairs).Methods(http.MethodGet)
	r.HandleFunc("/v1/ws", g.handleSocket).Methods(http.MethodGet)
	return r
}

type spawnResponse struct {
	Floor string `json:"floor"`
}

func (g *Gateway) handleSpawn(w http.ResponseWriter, r *http.Request) {
	out, err := g.dungeon.GetSpawnFloor(r.Context(), &dungeon.GetSpawnFloorInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, spawnResponse{Floor: out.Floor})
}

func (g *Gateway) handleLayout(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	out, err := g.floorLayout.GetFloorLayout(r.Context(), &floorlayout.GetFloorLayoutInput{DungeonNode: name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out.Floor)
}

type tilesResponse struct {
	FloorTiles         []entities.Tile      `json:"floor_tiles"`
	WallTiles          []entities.Tile      `json:"wall_tiles"`
	UpwardStairTiles   []entities.StairTile `json:"upward_stair_tiles"`
	DownwardStairTiles []entities.StairTile `json:"downward_stair_tiles"`
}

func (g *Gateway) handleTiles(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	out, err := g.floorLayout.GetFloorTiles(r.Context(), &floorlayout.GetFloorTilesInput{DungeonNode: name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tilesResponse{
		FloorTiles:         out.FloorTiles,
		WallTiles:          out.WallTiles,
		UpwardStairTiles:   out.UpwardStairTiles,
		DownwardStairTiles: out.DownwardStairTiles,
	})
}

type stairResponse struct {
	RoomName    string `json:"room_name"`
	Upward      bool   `json:"upward"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Destination string `json:"destination,omitempty"`
}

type stairsResponse struct {
	Stairs []stairResponse `json:"stairs"`
}

func (g *Gateway) handleStairs(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	out, err := g.floorLayout.GetRoomStairs(r.Context(), &floorlayout.GetRoomStairsInput{DungeonNode: name})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := stairsResponse{Stairs: make([]stairResponse, 0, len(out.Stairs))}
	for _, st := range out.Stairs {
		resp.Stairs = append(resp.Stairs, stairResponse{
			RoomName:    st.RoomName,
			Upward:      st.Upward,
			X:           st.X,
			Y:           st.Y,
			Destination: st.Destination,
		})
	}
	writeJSON(w, resp)
}

// handleSocket is the websocket entry point: verify the token, seat the
// player on the spawn floor, then pump messages until disconnect.
func (g *Gateway) handleSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ident, err := g.identity.Verify(ctx, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}

	spawn, err := g.dungeon.GetSpawnFloor(ctx, &dungeon.GetSpawnFloorInput{})
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "player", ident.ID, "error", err.Error())
		return
	}

	s := newSession(ident.ID, ident.DisplayName, conn, newSlidingWindow(g.clk, moveRateLimit, moveRateWindow))
	go s.writePump()

	if _, err := g.playerRepo.Upsert(ctx, players.UpsertInput{Player: &entities.Player{
		ID:          ident.ID,
		DisplayName: ident.DisplayName,
		Email:       ident.Email,
		Floor:       spawn.Floor,
		Online:      true,
	}}); err != nil {
		slog.Warn("player upsert failed", "player", ident.ID, "error", err.Error())
	}

	slog.Info("player connected", "player", ident.ID, "floor", spawn.Floor)
	g.enterFloor(ctx, s, spawn.Floor)

	g.readLoop(ctx, s)
	g.disconnect(s)
}

func (g *Gateway) readLoop(ctx context.Context, s *session) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-s.done:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed input skips the operation, nothing more.
			slog.Debug("dropping malformed message", "player", s.id, "error", err.Error())
			continue
		}
		g.dispatch(ctx, s, msg)
	}
}

func (g *Gateway) dispatch(ctx context.Context, s *session, msg clientMessage) {
	switch msg.Type {
	case MessageJoinFloor:
		g.handleJoinFloor(ctx, s, msg.Floor)
	case MessageMove:
		g.handleMove(s, msg)
	case MessageAction:
		g.handleAction(ctx, s, msg)
	case MessagePickUp:
		g.handlePickUp(ctx, s, msg.ItemID)
	default:
		slog.Debug("dropping unknown message type", "player", s.id, "type", msg.Type)
	}
}

// enterFloor generates ahead of the player, populates the floor, and
// reseats the subscription, announcing the transition to both floors.
func (g *Gateway) enterFloor(ctx context.Context, s *session, floor string) {
	if _, err := g.dungeon.EnsureGeneratedAhead(ctx, &dungeon.EnsureGeneratedAheadInput{Floor: floor}); err != nil {
		slog.Warn("generate ahead failed", "player", s.id, "floor", floor, "error", err.Error())
		return
	}
	if _, err := g.lifecycle.PopulateFloor(ctx, &lifecycle.PopulateFloorInput{Floor: floor}); err != nil {
		slog.Warn("populate floor failed", "player", s.id, "floor", floor, "error", err.Error())
		return
	}

	s.x, s.y = g.floorEntryPoint(ctx, floor)
	from := g.registry.Move(floor, s)
	s.floor = floor

	if from != "" {
		g.registry.Broadcast(from, &PlayerLeftEvent{Type: EventPlayerLeft, ID: s.id})
	}
	g.registry.BroadcastExcluding(floor, &PlayerJoinedEvent{
		Type:        EventPlayerJoined,
		ID:          s.id,
		DisplayName: s.displayName,
		X:           s.x,
		Y:           s.y,
	}, s.id)

	if _, err := g.playerRepo.SetFloor(ctx, players.SetFloorInput{ID: s.id, Floor: floor}); err != nil {
		slog.Warn("player floor push failed", "player", s.id, "error", err.Error())
	}
}

// floorEntryPoint is where a player lands on a floor: its upward stair if
// one exists, the origin otherwise.
func (g *Gateway) floorEntryPoint(ctx context.Context, floor string) (float64, float64) {
	out, err := g.floorLayout.GetRoomStairs(ctx, &floorlayout.GetRoomStairsInput{DungeonNode: floor})
	if err != nil {
		return 0, 0
	}
	for _, st := range out.Stairs {
		if st.Upward {
			return float64(st.X) * entities.CellSize, float64(st.Y) * entities.CellSize
		}
	}
	return 0, 0
}

func (g *Gateway) handleJoinFloor(ctx context.Context, s *session, floor string) {
	if floor == "" || floor == s.floor {
		return
	}
	g.enterFloor(ctx, s, floor)
}

func (g *Gateway) handleMove(s *session, msg clientMessage) {
	if !s.moveRate.Allow() {
		return
	}

	s.x, s.y = msg.X, msg.Y
	s.facingX, s.facingY = msg.FacingX, msg.FacingY

	g.registry.BroadcastExcluding(s.floor, &PlayerMovedEvent{
		Type:    EventPlayerMoved,
		ID:      s.id,
		X:       s.x,
		Y:       s.y,
		FacingX: s.facingX,
		FacingY: s.facingY,
	}, s.id)
}

func (g *Gateway) handleAction(ctx context.Context, s *session, msg clientMessage) {
	// The action itself fans out first so observers see the swing before
	// any hit it causes.
	g.registry.BroadcastExcluding(s.floor, &PlayerActionEvent{
		Type:   EventPlayerAction,
		ID:     s.id,
		Action: msg.Action,
		AimX:   msg.AimX,
		AimY:   msg.AimY,
	}, s.id)

	input := g.attackInput(s, msg)
	if input == nil {
		// Unknown action kinds are broadcast-only.
		return
	}

	if _, err := g.lifecycle.ApplyAttack(ctx, input); err != nil {
		slog.Warn("attack skipped", "player", s.id, "action", msg.Action, "error", err.Error())
	}
}

func (g *Gateway) attackInput(s *session, msg clientMessage) *lifecycle.ApplyAttackInput {
	dirX, dirY := msg.AimX-s.x, msg.AimY-s.y

	switch msg.Action {
	case ActionMeleeAttack:
		return &lifecycle.ApplyAttackInput{
			Floor:      s.floor,
			AttackerID: s.id,
			Damage:     meleeDamage,
			Cone: &geometry.ConeAttack{
				Origin:    geometry.LiftPlanar(s.x, s.y),
				Direction: geometry.Vec3{X: dirX, Z: dirY},
				Range:     meleeRange,
			},
		}
	case ActionRangedAttack:
		return &lifecycle.ApplyAttackInput{
			Floor:      s.floor,
			AttackerID: s.id,
			Damage:     rangedDamage,
			Cone: &geometry.ConeAttack{
				Origin:    geometry.LiftPlanar(s.x, s.y),
				Direction: geometry.Vec3{X: dirX, Z: dirY},
				Range:     rangedRange,
			},
		}
	case ActionSpellCast:
		toX, toY := msg.AimX, msg.AimY
		if dist := math.Hypot(dirX, dirY); dist > spellMaxLength {
			toX = s.x + dirX/dist*spellMaxLength
			toY = s.y + dirY/dist*spellMaxLength
		}
		return &lifecycle.ApplyAttackInput{
			Floor:      s.floor,
			AttackerID: s.id,
			Damage:     spellDamage,
			Capsule: &geometry.CapsuleAttack{
				From:   geometry.LiftPlanar(s.x, s.y),
				To:     geometry.LiftPlanar(toX, toY),
				Radius: spellRadius,
			},
		}
	default:
		return nil
	}
}

func (g *Gateway) handlePickUp(ctx context.Context, s *session, itemID string) {
	_, err := g.lifecycle.PickUpItem(ctx, &lifecycle.PickUpItemInput{ItemID: itemID, PlayerID: s.id})
	if err != nil && !errors.IsFailedPrecondition(err) {
		slog.Warn("pickup failed", "player", s.id, "item", itemID, "error", err.Error())
	}
}

// disconnect tears a session down: the registry forgets it, the floor
// hears about it, and the player record goes offline. Entity timers are
// untouched; lifetimes don't depend on observers.
func (g *Gateway) disconnect(s *session) {
	s.close()

	ctx := context.Background()
	if floor := g.registry.Leave(s.id); floor != "" {
		g.registry.Broadcast(floor, &PlayerLeftEvent{Type: EventPlayerLeft, ID: s.id})
	}
	if _, err := g.playerRepo.SetOnline(ctx, players.SetOnlineInput{ID: s.id, Online: false}); err != nil {
		slog.Warn("player offline push failed", "player", s.id, "error", err.Error())
	}

	slog.Info("player disconnected", "player", s.id)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":  code.String(),
		"error": err.Error(),
	})
}
