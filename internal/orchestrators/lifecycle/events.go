package lifecycle

import (
	"github.com/deepdelve/dungeon-api/internal/entities"
)

// Event type tags carried in every floor broadcast
const (
	EventEnemySpawned   = "enemy_spawned"
	EventEnemyMoved     = "enemy_moved"
	EventEnemyHit       = "enemy_hit"
	EventEnemyDespawned = "enemy_despawned"
	EventItemSpawned    = "item_spawned"
	EventItemPickedUp   = "item_picked_up"
	EventItemDespawned  = "item_despawned"
)

// EnemySpawnedEvent announces a new enemy on a floor
type EnemySpawnedEvent struct {
	Type  string          `json:"type"`
	Enemy *entities.Enemy `json:"enemy"`
}

// EnemyMovedEvent carries an enemy's per-tick position, facing, and health
type EnemyMovedEvent struct {
	Type    string  `json:"type"`
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	FacingX float64 `json:"facing_x"`
	FacingY float64 `json:"facing_y"`
	Health  int     `json:"health"`
}

// EnemyHitEvent announces damage applied to an enemy
type EnemyHitEvent struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Damage int    `json:"damage"`
	Health int    `json:"health"`
}

// EnemyDespawnedEvent announces an enemy leaving the floor
type EnemyDespawnedEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ItemSpawnedEvent announces a new item on a floor
type ItemSpawnedEvent struct {
	Type string         `json:"type"`
	Item *entities.Item `json:"item"`
}

// ItemPickedUpEvent announces a successful claim
type ItemPickedUpEvent struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Owner string `json:"owner"`
}

// ItemDespawnedEvent announces an unclaimed item expiring
type ItemDespawnedEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}
