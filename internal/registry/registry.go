// Package registry tracks which clients are subscribed to which floor and
// fans floor-scoped events out to them. It is an explicit object injected
// into everything that broadcasts, never ambient state.
package registry

import (
	"sync"

	"github.com/deepdelve/dungeon-api/internal/entities"
)

// Client is a floor subscriber. Send must not block; it reports false when
// the client can no longer accept events.
type Client interface {
	ID() string
	Send(event any) bool
}

// EnemySource supplies the live-enemy snapshot pushed to a client joining
// a floor.
type EnemySource interface {
	ActiveEnemies(floor string) []*entities.Enemy
}

// EventEnemySnapshot tags the snapshot event sent on join
const EventEnemySnapshot = "enemy_snapshot"

// EnemySnapshotEvent seeds a newly subscribed client with the floor's
// current enemies.
type EnemySnapshotEvent struct {
	Type    string            `json:"type"`
	Floor   string            `json:"floor"`
	Enemies []*entities.Enemy `json:"enemies"`
}

// Registry is the floor room registry. One mutex guards both maps so a
// move is atomic: no event window where a client is on two floors or none.
type Registry struct {
	mu       sync.Mutex
	floors   map[string]map[string]Client
	byClient map[string]string

	enemySource EnemySource
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		floors:   make(map[string]map[string]Client),
		byClient: make(map[string]string),
	}
}

// SetEnemySource installs the snapshot provider. The lifecycle manager
// broadcasts through the registry, so the source arrives after construction.
func (r *Registry) SetEnemySource(src EnemySource) {
	r.mu.Lock()
	r.enemySource = src
	r.mu.Unlock()
}

// Join subscribes a client to a floor, leaving any previous floor first,
// and pushes the floor's enemy snapshot to just that client.
func (r *Registry) Join(floor string, c Client) {
	r.mu.Lock()
	r.removeLocked(c.ID())
	r.addLocked(floor, c)
	src := r.enemySource
	r.mu.Unlock()

	r.pushSnapshot(floor, c, src)
}

// Leave unsubscribes a client from whatever floor it is on. Returns the
// floor left, or empty if the client wasn't subscribed.
func (r *Registry) Leave(clientID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(clientID)
}

// Move atomically reseats a client onto another floor and returns the floor
// it came from.
func (r *Registry) Move(floor string, c Client) string {
	r.mu.Lock()
	from := r.removeLocked(c.ID())
	r.addLocked(floor, c)
	src := r.enemySource
	r.mu.Unlock()

	r.pushSnapshot(floor, c, src)
	return from
}

// Broadcast sends an event to every client on a floor
func (r *Registry) Broadcast(floor string, event any) {
	r.BroadcastExcluding(floor, event, "")
}

// BroadcastExcluding sends an event to every client on a floor except one.
// Clients whose send fails are dropped from the registry.
func (r *Registry) BroadcastExcluding(floor string, event any, excludeID string) {
	r.mu.Lock()
	clients := make([]Client, 0, len(r.floors[floor]))
	for id, c := range r.floors[floor] {
		if id == excludeID {
			continue
		}
		clients = append(clients, c)
	}
	r.mu.Unlock()

	var stale []string
	for _, c := range clients {
		if !c.Send(event) {
			stale = append(stale, c.ID())
		}
	}

	if len(stale) > 0 {
		r.mu.Lock()
		for _, id := range stale {
			r.removeLocked(id)
		}
		r.mu.Unlock()
	}
}

// Floor reports which floor a client is subscribed to
func (r *Registry) Floor(clientID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	floor, ok := r.byClient[clientID]
	return floor, ok
}

// Count reports how many clients are subscribed to a floor
func (r *Registry) Count(floor string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.floors[floor])
}

func (r *Registry) addLocked(floor string, c Client) {
	if r.floors[floor] == nil {
		r.floors[floor] = make(map[string]Client)
	}
	r.floors[floor][c.ID()] = c
	r.byClient[c.ID()] = floor
}

func (r *Registry) removeLocked(clientID string) string {
	floor, ok := r.byClient[clientID]
	if !ok {
		return ""
	}
	delete(r.byClient, clientID)
	if set := r.floors[floor]; set != nil {
		delete(set, clientID)
		if len(set) == 0 {
			delete(r.floors, floor)
		}
	}
	return floor
}

func (r *Registry) pushSnapshot(floor string, c Client, src EnemySource) {
	if src == nil {
		return
	}
	c.Send(&EnemySnapshotEvent{
		Type:    EventEnemySnapshot,
		Floor:   floor,
		Enemies: src.ActiveEnemies(floor),
	})
}
