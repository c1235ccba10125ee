package entities

// Enemy is a short-lived live entity wandering one floor. Position and
// health are authoritative in memory and pushed to the store lazily.
type Enemy struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Floor     string  `json:"floor"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	FacingX   float64 `json:"facing_x"`
	FacingY   float64 `json:"facing_y"`
	Health    int     `json:"health"`
	MaxHealth int     `json:"max_health"`

	SpawnedAtUnixMs int64 `json:"spawned_at_unix_ms"`
}

// ItemStats is an item's generated stat block
type ItemStats struct {
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// Item is a pick-uppable item instance. A claimed item keeps its record
// (Owner set, InWorld false) but its timer stops.
type Item struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Floor   string    `json:"floor"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Owner   string    `json:"owner,omitempty"`
	InWorld bool      `json:"in_world"`
	Stats   ItemStats `json:"stats"`

	SpawnedAtUnixMs int64 `json:"spawned_at_unix_ms"`
}

// Player is a connected (or previously connected) player's record
type Player struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name,omitempty"`
	Email       string  `json:"email,omitempty"`
	Floor       string  `json:"floor,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Online      bool    `json:"online"`
}
