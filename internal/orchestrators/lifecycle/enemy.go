package lifecycle

import (
	"context"
	"log/slog"
	"math"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/geometry"
	"github.com/deepdelve/dungeon-api/internal/repositories/enemies"
)

// spawnEnemyLocked creates one enemy, persists it, announces it, and starts
// its tick loop. Caller holds m.mu.
func (m *Manager) spawnEnemyLocked(ctx context.Context, floor string, tiles []entities.Tile, tileSet map[entities.Tile]struct{}, used map[entities.Tile]bool) error {
	tile := m.pickSpawnTileLocked(tiles, used)

	health, err := m.rollEnemyHealth()
	if err != nil {
		return err
	}

	enemy := &entities.Enemy{
		ID:              m.ids.Generate(),
		Type:            enemyTypes[m.rng.Intn(len(enemyTypes))],
		Floor:           floor,
		X:               float64(tile.X) * entities.CellSize,
		Y:               float64(tile.Y) * entities.CellSize,
		FacingY:         1,
		Health:          health,
		MaxHealth:       health,
		SpawnedAtUnixMs: m.clk.Now().UnixMilli(),
	}

	if _, err := m.enemyRepo.Create(ctx, enemies.CreateInput{Enemy: enemy}); err != nil {
		return errors.Wrapf(err, "failed to persist enemy %s", enemy.ID)
	}

	ae := &activeEnemy{
		enemy:       enemy,
		tiles:       tileSet,
		onDespawned: m.removeEnemy,
	}
	m.trackEnemyLocked(ae)

	m.broadcaster.Broadcast(floor, &EnemySpawnedEvent{Type: EventEnemySpawned, Enemy: enemy})

	id := enemy.ID
	ae.stop = m.sched.Every(enemyTickInterval, func(tickCtx context.Context) {
		m.enemyTick(tickCtx, id)
	})
	return nil
}

func (m *Manager) rollEnemyHealth() (int, error) {
	rolls, err := m.roller.RollN(2, 8)
	if err != nil {
		return 0, errors.Wrap(err, "failed to roll enemy health")
	}
	health := 4
	for _, r := range rolls {
		health += r
	}
	return health, nil
}

// enemyTick runs one tick of an enemy's life: expiry check, wander step,
// broadcast, and a lazy store push.
func (m *Manager) enemyTick(ctx context.Context, id string) {
	m.mu.Lock()
	ae, ok := m.enemies[id]
	if !ok {
		m.mu.Unlock()
		return
	}

	if m.clk.Now().UnixMilli()-ae.enemy.SpawnedAtUnixMs >= enemyLifetime.Milliseconds() {
		m.mu.Unlock()
		m.despawnEnemy(ctx, ae)
		return
	}

	m.wanderLocked(ae)
	ae.ticks++
	push := ae.ticks%storePushInterval == 0
	snapshot := *ae.enemy
	m.mu.Unlock()

	m.broadcaster.Broadcast(snapshot.Floor, &EnemyMovedEvent{
		Type:    EventEnemyMoved,
		ID:      snapshot.ID,
		X:       snapshot.X,
		Y:       snapshot.Y,
		FacingX: snapshot.FacingX,
		FacingY: snapshot.FacingY,
		Health:  snapshot.Health,
	})

	if push {
		if _, err := m.enemyRepo.Update(ctx, enemies.UpdateInput{Enemy: &snapshot}); err != nil {
			slog.Warn("enemy store push failed", "id", snapshot.ID, "error", err.Error())
		}
	}
}

// wanderLocked steps the enemy toward its destination at fixed speed,
// picking a new 8-adjacent floor tile whenever it has none or has arrived.
// Caller holds m.mu.
func (m *Manager) wanderLocked(ae *activeEnemy) {
	e := ae.enemy

	if ae.hasDest {
		dx := ae.destX - e.X
		dy := ae.destY - e.Y
		dist := math.Hypot(dx, dy)
		if dist > enemyMoveSpeed {
			e.X += dx / dist * enemyMoveSpeed
			e.Y += dy / dist * enemyMoveSpeed
			e.FacingX = dx / dist
			e.FacingY = dy / dist
			return
		}
		e.X = ae.destX
		e.Y = ae.destY
		ae.hasDest = false
	}

	cur := entities.Tile{
		X: int(math.Round(e.X / entities.CellSize)),
		Y: int(math.Round(e.Y / entities.CellSize)),
	}

	var candidates []entities.Tile
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := entities.Tile{X: cur.X + dx, Y: cur.Y + dy}
			if _, ok := ae.tiles[n]; ok {
				candidates = append(candidates, n)
			}
		}
	}
	if len(candidates) == 0 {
		return
	}

	dest := candidates[m.rng.Intn(len(candidates))]
	ae.destX = float64(dest.X) * entities.CellSize
	ae.destY = float64(dest.Y) * entities.CellSize
	ae.hasDest = true
}

// despawnEnemy removes the enemy's record, announces the despawn only if
// the removal matched, stops the tick loop, and emits the gone callback.
func (m *Manager) despawnEnemy(ctx context.Context, ae *activeEnemy) {
	id := ae.enemy.ID
	floor := ae.enemy.Floor

	out, err := m.enemyRepo.Delete(ctx, enemies.DeleteInput{ID: id, Floor: floor})
	if err != nil {
		// Leave tracking intact; the next tick retries.
		slog.Warn("enemy despawn write failed", "id", id, "error", err.Error())
		return
	}
	if out.Deleted == 1 {
		m.broadcaster.Broadcast(floor, &EnemyDespawnedEvent{Type: EventEnemyDespawned, ID: id})
	}

	if ae.stop != nil {
		ae.stop()
	}
	if ae.onDespawned != nil {
		ae.onDespawned(id)
	}
}

// ApplyAttackInput defines the input for applying an area attack. Exactly
// one of Cone or Capsule must be set.
type ApplyAttackInput struct {
	Floor      string
	AttackerID string
	Damage     int
	Cone       *geometry.ConeAttack
	Capsule    *geometry.CapsuleAttack
}

// ApplyAttackOutput defines the output for applying an area attack
type ApplyAttackOutput struct {
	Hits   []string
	Killed []string
}

// ApplyAttack tests the attack shape against every tracked enemy on the
// attacker's floor, applies damage, and despawns the dead.
func (m *Manager) ApplyAttack(ctx context.Context, input *ApplyAttackInput) (*ApplyAttackOutput, error) {
	vb := errors.NewValidationBuilder()
	if input.Floor == "" {
		vb.RequiredField("Floor")
	}
	if input.Damage <= 0 {
		vb.Field("Damage", "must be positive")
	}
	if (input.Cone == nil) == (input.Capsule == nil) {
		vb.Field("Shape", "exactly one of Cone or Capsule is required")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	hits := func(x, y float64) bool {
		pos := geometry.LiftPlanar(x, y)
		if input.Cone != nil {
			return input.Cone.Hits(pos)
		}
		return input.Capsule.Hits(pos)
	}

	out := &ApplyAttackOutput{}
	var hitEvents []*EnemyHitEvent
	var dead []*activeEnemy

	m.mu.Lock()
	for _, ae := range m.enemyFloors[input.Floor] {
		if !hits(ae.enemy.X, ae.enemy.Y) {
			continue
		}
		ae.enemy.Health -= input.Damage
		out.Hits = append(out.Hits, ae.enemy.ID)
		hitEvents = append(hitEvents, &EnemyHitEvent{
			Type:   EventEnemyHit,
			ID:     ae.enemy.ID,
			Damage: input.Damage,
			Health: ae.enemy.Health,
		})
		if ae.enemy.Health <= 0 {
			out.Killed = append(out.Killed, ae.enemy.ID)
			dead = append(dead, ae)
		}
	}
	m.mu.Unlock()

	for _, ev := range hitEvents {
		m.broadcaster.Broadcast(input.Floor, ev)
	}
	for _, ae := range dead {
		m.despawnEnemy(ctx, ae)
	}

	return out, nil
}
