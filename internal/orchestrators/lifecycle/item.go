package lifecycle

import (
	"context"
	"log/slog"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/repositories/items"
)

// spawnItemLocked creates one item, persists it, announces it, and starts
// its tick loop. Caller holds m.mu.
func (m *Manager) spawnItemLocked(ctx context.Context, floor string, tiles []entities.Tile, used map[entities.Tile]bool) error {
	tile := m.pickSpawnTileLocked(tiles, used)

	stats, err := m.rollItemStats()
	if err != nil {
		return err
	}

	item := &entities.Item{
		ID:              m.ids.Generate(),
		Type:            itemTypes[m.rng.Intn(len(itemTypes))],
		Floor:           floor,
		X:               float64(tile.X) * entities.CellSize,
		Y:               float64(tile.Y) * entities.CellSize,
		InWorld:         true,
		Stats:           stats,
		SpawnedAtUnixMs: m.clk.Now().UnixMilli(),
	}

	if _, err := m.itemRepo.Create(ctx, items.CreateInput{Item: item}); err != nil {
		return errors.Wrapf(err, "failed to persist item %s", item.ID)
	}

	ai := &activeItem{item: item}
	m.items[item.ID] = ai

	m.broadcaster.Broadcast(floor, &ItemSpawnedEvent{Type: EventItemSpawned, Item: item})

	id := item.ID
	ai.stop = m.sched.Every(itemTickInterval, func(tickCtx context.Context) {
		m.itemTick(tickCtx, id)
	})
	return nil
}

func (m *Manager) rollItemStats() (entities.ItemStats, error) {
	attack, err := m.roller.Roll(6)
	if err != nil {
		return entities.ItemStats{}, errors.Wrap(err, "failed to roll item stats")
	}
	defense, err := m.roller.Roll(4)
	if err != nil {
		return entities.ItemStats{}, errors.Wrap(err, "failed to roll item stats")
	}
	speed, err := m.roller.Roll(4)
	if err != nil {
		return entities.ItemStats{}, errors.Wrap(err, "failed to roll item stats")
	}
	return entities.ItemStats{Attack: attack, Defense: defense, Speed: speed}, nil
}

// itemTick checks the authoritative claimed flag and the lifetime budget.
// A claimed item stops its timer and keeps its record; an expired unclaimed
// item deletes itself, but announces the despawn only if the conditional
// delete actually matched.
func (m *Manager) itemTick(ctx context.Context, id string) {
	m.mu.Lock()
	ai, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	floor := ai.item.Floor
	spawnedAt := ai.item.SpawnedAtUnixMs
	m.mu.Unlock()

	owner, err := m.itemRepo.GetOwner(ctx, items.GetOwnerInput{ID: id})
	if err != nil {
		if errors.IsNotFound(err) {
			m.stopItem(id)
			return
		}
		slog.Warn("item owner check failed", "id", id, "error", err.Error())
		return
	}
	if owner.Owner != "" {
		// Claimed elsewhere: the record stays, the timer stops.
		m.stopItem(id)
		return
	}

	if m.clk.Now().UnixMilli()-spawnedAt < itemLifetime.Milliseconds() {
		return
	}

	out, err := m.itemRepo.DeleteIfUnclaimed(ctx, items.DeleteIfUnclaimedInput{ID: id, Floor: floor})
	if err != nil {
		slog.Warn("item despawn write failed", "id", id, "error", err.Error())
		return
	}
	if out.Deleted == 1 {
		m.broadcaster.Broadcast(floor, &ItemDespawnedEvent{Type: EventItemDespawned, ID: id})
	}
	m.stopItem(id)
}

// stopItem halts an item's tick loop and forgets the in-memory reference
func (m *Manager) stopItem(id string) {
	m.mu.Lock()
	ai, ok := m.items[id]
	if ok {
		delete(m.items, id)
	}
	m.mu.Unlock()

	if ok && ai.stop != nil {
		ai.stop()
	}
}

// PickUpItemInput defines the input for picking up an item
type PickUpItemInput struct {
	ItemID   string
	PlayerID string
}

// PickUpItemOutput defines the output for picking up an item
type PickUpItemOutput struct {
	Item *entities.Item
}

// PickUpItem claims an item for a player. Losing the claim race (already
// claimed or already expired) is reported as a failed precondition.
func (m *Manager) PickUpItem(ctx context.Context, input *PickUpItemInput) (*PickUpItemOutput, error) {
	vb := errors.NewValidationBuilder()
	if input.ItemID == "" {
		vb.RequiredField("ItemID")
	}
	if input.PlayerID == "" {
		vb.RequiredField("PlayerID")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	claimed, err := m.itemRepo.Claim(ctx, items.ClaimInput{ID: input.ItemID, Owner: input.PlayerID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to claim item %s", input.ItemID)
	}
	if claimed.Modified == 0 {
		return nil, errors.FailedPreconditionf("item %s is already claimed or gone", input.ItemID)
	}

	got, err := m.itemRepo.Get(ctx, items.GetInput{ID: input.ItemID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load claimed item %s", input.ItemID)
	}

	item := got.Item
	item.InWorld = false
	if _, err := m.itemRepo.Update(ctx, items.UpdateInput{Item: item}); err != nil {
		slog.Warn("claimed item push failed", "id", item.ID, "error", err.Error())
	}

	m.broadcaster.Broadcast(item.Floor, &ItemPickedUpEvent{
		Type:  EventItemPickedUp,
		ID:    item.ID,
		Owner: input.PlayerID,
	})

	m.stopItem(input.ItemID)
	return &PickUpItemOutput{Item: item}, nil
}
