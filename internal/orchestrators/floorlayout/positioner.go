package floorlayout

import (
	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/geometry"
)

// absDir is an absolute travel direction on the grid
type absDir int

const (
	dirNorth absDir = iota
	dirEast
	dirSouth
	dirWest
)

func (d absDir) vertical() bool {
	return d == dirNorth || d == dirSouth
}

// turn rotates a travel direction by a child's relative attachment
func (d absDir) turn(rel entities.Direction) absDir {
	switch rel {
	case entities.DirectionLeft:
		return (d + 3) % 4
	case entities.DirectionRight:
		return (d + 1) % 4
	default:
		return d
	}
}

// enteredSide is the side of the child a traveler arrives through
func (d absDir) enteredSide() entities.Side {
	switch d {
	case dirNorth:
		return entities.SideSouth
	case dirSouth:
		return entities.SideNorth
	case dirEast:
		return entities.SideWest
	default:
		return entities.SideEast
	}
}

// attachRect is the rectangle children attach to: the full rectangle for a
// room, the far-end strip for a hallway.
type attachRect struct {
	x, y, w, h int
}

// exit resolves the tile just outside the rect in direction d, offset along
// the perpendicular axis. Offsets beyond the wall are clamped to its end.
func (r attachRect) exit(d absDir, offset int) (int, int) {
	bound := r.h
	if d.vertical() {
		bound = r.w
	}
	if offset >= bound {
		offset = bound - 1
	}
	if offset < 0 {
		offset = 0
	}

	switch d {
	case dirNorth:
		return r.x + offset, r.y + r.h
	case dirSouth:
		return r.x + offset, r.y - 1
	case dirEast:
		return r.x + r.w, r.y + offset
	default:
		return r.x - 1, r.y + offset
	}
}

// ProcessFloorLayout deterministically resolves a floor node graph into
// absolute geometry. The root room's minimum corner sits at the origin and
// the layout grows northward; identical input always yields identical
// output, so layouts are derived on demand instead of stored.
func ProcessFloorLayout(dungeonNode string, nodes []*entities.FloorNode) (*entities.GeneratedFloorData, error) {
	byName := make(map[string]*entities.FloorNode, len(nodes))
	referenced := make(map[string]bool)
	for _, n := range nodes {
		byName[n.Name] = n
		for _, c := range n.Children {
			referenced[c] = true
		}
	}

	// The root is the unreferenced room with the smallest name. A partial
	// store write can leave extra unreferenced nodes; those subgraphs are
	// simply never visited, so no geometry is produced for them.
	var root *entities.FloorNode
	for _, n := range nodes {
		if referenced[n.Name] || !n.IsRoom {
			continue
		}
		if root == nil || n.Name < root.Name {
			root = n
		}
	}
	if root == nil {
		return nil, errors.Internalf("floor %s has no root room", dungeonNode)
	}

	floor := &entities.GeneratedFloorData{DungeonNode: dungeonNode}
	p := &positioner{byName: byName, floor: floor, visited: make(map[string]bool)}

	rootRect := attachRect{x: 0, y: 0, w: root.RoomWidth, h: root.RoomHeight}
	p.emitRoom(root, rootRect, entities.Tile{X: 0, Y: 0}, entities.SideSouth)
	if err := p.placeChildren(root, rootRect, dirNorth); err != nil {
		return nil, err
	}

	assembleTiles(floor)
	return floor, nil
}

type positioner struct {
	byName  map[string]*entities.FloorNode
	floor   *entities.GeneratedFloorData
	visited map[string]bool
}

func (p *positioner) placeChildren(parent *entities.FloorNode, rect attachRect, travel absDir) error {
	for _, childName := range parent.Children {
		child, ok := p.byName[childName]
		if !ok {
			return errors.Internalf("floor node %s references unknown child %s", parent.Name, childName)
		}
		if p.visited[childName] {
			return errors.Internalf("floor node %s is attached more than once", childName)
		}
		p.visited[childName] = true

		dir := travel.turn(child.ParentDirection)
		entryX, entryY := rect.exit(dir, child.ParentDoorOffset)
		if err := p.place(child, dir, entryX, entryY); err != nil {
			return err
		}
	}
	return nil
}

func (p *positioner) place(node *entities.FloorNode, travel absDir, entryX, entryY int) error {
	if node.IsRoom {
		rect := roomRect(node, travel, entryX, entryY)
		p.emitRoom(node, rect, entities.Tile{X: entryX, Y: entryY}, travel.enteredSide())
		return p.placeChildren(node, rect, travel)
	}

	length := node.HallwayLength
	if length < 1 {
		length = 1
	}
	endX, endY := entryX, entryY
	switch travel {
	case dirNorth:
		endY += length - 1
	case dirSouth:
		endY -= length - 1
	case dirEast:
		endX += length - 1
	default:
		endX -= length - 1
	}

	p.floor.Hallways = append(p.floor.Hallways, entities.PositionedHallway{
		Name:   node.Name,
		StartX: entryX,
		StartY: entryY,
		EndX:   endX,
		EndY:   endY,
		Length: length,
	})

	return p.placeChildren(node, hallwayHeadRect(travel, endX, endY), travel)
}

// roomRect positions a room so its entry tile lies on the wall facing the
// parent, roughly centered along the perpendicular axis.
func roomRect(node *entities.FloorNode, travel absDir, entryX, entryY int) attachRect {
	w, h := node.RoomWidth, node.RoomHeight
	switch travel {
	case dirNorth:
		return attachRect{x: entryX - w/2, y: entryY, w: w, h: h}
	case dirSouth:
		return attachRect{x: entryX - w/2, y: entryY - h + 1, w: w, h: h}
	case dirEast:
		return attachRect{x: entryX, y: entryY - h/2, w: w, h: h}
	default:
		return attachRect{x: entryX - w + 1, y: entryY - h/2, w: w, h: h}
	}
}

// hallwayHeadRect is the widened strip at the hallway's far end
func hallwayHeadRect(travel absDir, endX, endY int) attachRect {
	if travel.vertical() {
		return attachRect{x: endX, y: endY, w: geometry.HallwayWidth, h: 1}
	}
	return attachRect{x: endX, y: endY, w: 1, h: geometry.HallwayWidth}
}

func (p *positioner) emitRoom(node *entities.FloorNode, rect attachRect, door entities.Tile, side entities.Side) {
	room := entities.PositionedRoom{
		Name:     node.Name,
		X:        rect.x,
		Y:        rect.y,
		Width:    rect.w,
		Height:   rect.h,
		DoorX:    door.X,
		DoorY:    door.Y,
		DoorSide: side,

		HasUpwardStair:   node.HasUpwardStair,
		HasDownwardStair: node.HasDownwardStair,
		StairDestination: node.StairDestination,
	}
	if node.HasUpwardStair || node.HasDownwardStair {
		room.StairX = rect.x + clampInterior(node.StairLocationX, rect.w)
		room.StairY = rect.y + clampInterior(node.StairLocationY, rect.h)
	}
	p.floor.Rooms = append(p.floor.Rooms, room)
}

// clampInterior keeps a stored stair coordinate off the room's edge tiles
func clampInterior(v, extent int) int {
	if v < 1 {
		return 1
	}
	if v > extent-2 {
		return extent - 2
	}
	return v
}
