package ws

// Client messages arrive as a tagged union; Type selects which fields are
// meaningful. Unknown action kinds are rebroadcast without interpretation.
const (
	MessageJoinFloor = "join_floor"
	MessageMove      = "move"
	MessageAction    = "action"
	MessagePickUp    = "pickup_item"
)

// Action kinds the server interprets as attacks
const (
	ActionMeleeAttack  = "melee_attack"
	ActionRangedAttack = "ranged_attack"
	ActionSpellCast    = "spell_cast"
)

type clientMessage struct {
	Type string `json:"type"`

	// join_floor
	Floor string `json:"floor,omitempty"`

	// move
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	FacingX float64 `json:"facing_x,omitempty"`
	FacingY float64 `json:"facing_y,omitempty"`

	// action
	Action string  `json:"action,omitempty"`
	AimX   float64 `json:"aim_x,omitempty"`
	AimY   float64 `json:"aim_y,omitempty"`

	// pickup_item
	ItemID string `json:"item_id,omitempty"`
}

// Server-to-client player event tags
const (
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventPlayerMoved  = "player_moved"
	EventPlayerAction = "player_action"
)

// PlayerJoinedEvent announces a player arriving on a floor
type PlayerJoinedEvent struct {
	Type        string  `json:"type"`
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// PlayerLeftEvent announces a player leaving a floor
type PlayerLeftEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// PlayerMovedEvent relays an accepted movement update
type PlayerMovedEvent struct {
	Type    string  `json:"type"`
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	FacingX float64 `json:"facing_x"`
	FacingY float64 `json:"facing_y"`
}

// PlayerActionEvent relays an action to the rest of the floor
type PlayerActionEvent struct {
	Type   string  `json:"type"`
	ID     string  `json:"id"`
	Action string  `json:"action"`
	AimX   float64 `json:"aim_x"`
	AimY   float64 `json:"aim_y"`
}
