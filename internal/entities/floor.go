package entities

// Direction is a child node's attachment direction relative to the side its
// parent was entered from.
type Direction string

// Relative directions
const (
	DirectionLeft   Direction = "left"
	DirectionRight  Direction = "right"
	DirectionCenter Direction = "center"
)

// FloorNode is one room or hallway inside a single floor's layout graph.
// Room fields are meaningful only when IsRoom is true, HallwayLength only
// when it is false.
type FloorNode struct {
	Name        string `json:"name"`
	DungeonNode string `json:"dungeon_node"`
	IsRoom      bool   `json:"is_room"`

	RoomWidth        int    `json:"room_width,omitempty"`
	RoomHeight       int    `json:"room_height,omitempty"`
	HasUpwardStair   bool   `json:"has_upward_stair,omitempty"`
	HasDownwardStair bool   `json:"has_downward_stair,omitempty"`
	StairLocationX   int    `json:"stair_location_x,omitempty"`
	StairLocationY   int    `json:"stair_location_y,omitempty"`
	StairDestination string `json:"stair_destination,omitempty"`

	HallwayLength int `json:"hallway_length,omitempty"`

	ParentDirection  Direction `json:"parent_direction,omitempty"`
	ParentDoorOffset int       `json:"parent_door_offset,omitempty"`
	Children         []string  `json:"children"`
}
