package entities

// CellSize is the world-space edge length one tile represents. Entity
// positions are world coordinates: tile coordinate times CellSize.
const CellSize = 5.0

// Tile is one cell of the integer grid
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// StairTile is a stair cell tagged with the room that owns it and, for
// downward stairs, the child dungeon node it leads to once bound.
type StairTile struct {
	Tile
	RoomName    string `json:"room_name"`
	Destination string `json:"destination,omitempty"`
}

// Side identifies one wall of a room
type Side string

// Room sides
const (
	SideNorth Side = "north"
	SideSouth Side = "south"
	SideEast  Side = "east"
	SideWest  Side = "west"
)

// PositionedRoom is a room with absolute grid coordinates. X/Y is the
// minimum corner; the room occupies [X, X+Width) x [Y, Y+Height).
type PositionedRoom struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	DoorX    int  `json:"door_x"`
	DoorY    int  `json:"door_y"`
	DoorSide Side `json:"door_side"`

	HasUpwardStair   bool   `json:"has_upward_stair,omitempty"`
	HasDownwardStair bool   `json:"has_downward_stair,omitempty"`
	StairX           int    `json:"stair_x,omitempty"`
	StairY           int    `json:"stair_y,omitempty"`
	StairDestination string `json:"stair_destination,omitempty"`
}

// PositionedHallway is a hallway resolved to a straight segment from its
// entry tile to its far end, inclusive.
type PositionedHallway struct {
	Name   string `json:"name"`
	StartX int    `json:"start_x"`
	StartY int    `json:"start_y"`
	EndX   int    `json:"end_x"`
	EndY   int    `json:"end_y"`
	Length int    `json:"length"`
}

// Bounds is the floor's axis-aligned bounding box, inclusive
type Bounds struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// GeneratedFloorData is the fully resolved geometry of one floor. It is
// derived from the FloorNode graph on demand and never persisted.
type GeneratedFloorData struct {
	DungeonNode string              `json:"dungeon_node"`
	Rooms       []PositionedRoom    `json:"rooms"`
	Hallways    []PositionedHallway `json:"hallways"`
	Bounds      Bounds              `json:"bounds"`

	FloorTiles         []Tile      `json:"floor_tiles"`
	WallTiles          []Tile      `json:"wall_tiles"`
	UpwardStairTiles   []StairTile `json:"upward_stair_tiles"`
	DownwardStairTiles []StairTile `json:"downward_stair_tiles"`
}
