// Package geometry provides pure spatial helpers: tile synthesis for
// positioned floor layouts and hit tests for area attacks.
package geometry

import (
	"github.com/deepdelve/dungeon-api/internal/entities"
)

// HallwayWidth is how many tiles wide a hallway is
const HallwayWidth = 2

// RoomTiles returns every integer coordinate inside the room's rectangle
func RoomTiles(room entities.PositionedRoom) []entities.Tile {
	tiles := make([]entities.Tile, 0, room.Width*room.Height)
	for x := room.X; x < room.X+room.Width; x++ {
		for y := room.Y; y < room.Y+room.Height; y++ {
			tiles = append(tiles, entities.Tile{X: x, Y: y})
		}
	}
	return tiles
}

// HallwayTiles samples unit-length steps along the hallway's segment and
// widens each step along the perpendicular axis. Duplicates are removed.
func HallwayTiles(h entities.PositionedHallway) []entities.Tile {
	stepX := sign(h.EndX - h.StartX)
	stepY := sign(h.EndY - h.StartY)

	seen := make(map[entities.Tile]struct{})
	var tiles []entities.Tile

	x, y := h.StartX, h.StartY
	for i := 0; i < h.Length; i++ {
		for w := 0; w < HallwayWidth; w++ {
			t := entities.Tile{X: x, Y: y}
			if stepX != 0 {
				t.Y += w
			} else {
				t.X += w
			}
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				tiles = append(tiles, t)
			}
		}
		x += stepX
		y += stepY
	}
	return tiles
}

// FloorTiles merges room and hallway tiles into one deduplicated set,
// dropping excluded positions (downward stair holes).
func FloorTiles(rooms []entities.PositionedRoom, hallways []entities.PositionedHallway, exclude []entities.Tile) []entities.Tile {
	excluded := tileSet(exclude)
	seen := make(map[entities.Tile]struct{})
	var tiles []entities.Tile

	add := func(t entities.Tile) {
		if _, ok := excluded[t]; ok {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		tiles = append(tiles, t)
	}

	for _, room := range rooms {
		for _, t := range RoomTiles(room) {
			add(t)
		}
	}
	for _, h := range hallways {
		for _, t := range HallwayTiles(h) {
			add(t)
		}
	}
	return tiles
}

// WallTiles returns every grid cell 8-adjacent to a floor tile that is not
// itself a floor tile and not an excluded position.
func WallTiles(floor []entities.Tile, exclude []entities.Tile) []entities.Tile {
	floorSet := tileSet(floor)
	excluded := tileSet(exclude)

	seen := make(map[entities.Tile]struct{})
	var walls []entities.Tile

	for _, t := range floor {
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				n := entities.Tile{X: t.X + dx, Y: t.Y + dy}
				if _, ok := floorSet[n]; ok {
					continue
				}
				if _, ok := excluded[n]; ok {
					continue
				}
				if _, ok := seen[n]; ok {
					continue
				}
				seen[n] = struct{}{}
				walls = append(walls, n)
			}
		}
	}
	return walls
}

// StairTiles collects one tagged tile per flagged room, split by kind
func StairTiles(rooms []entities.PositionedRoom) (up, down []entities.StairTile) {
	for _, room := range rooms {
		tile := entities.Tile{X: room.StairX, Y: room.StairY}
		if room.HasUpwardStair {
			up = append(up, entities.StairTile{Tile: tile, RoomName: room.Name})
		}
		if room.HasDownwardStair {
			down = append(down, entities.StairTile{
				Tile:        tile,
				RoomName:    room.Name,
				Destination: room.StairDestination,
			})
		}
	}
	return up, down
}

// StairTilesToTiles strips the tags off stair tiles
func StairTilesToTiles(stairs []entities.StairTile) []entities.Tile {
	tiles := make([]entities.Tile, 0, len(stairs))
	for _, s := range stairs {
		tiles = append(tiles, s.Tile)
	}
	return tiles
}

// BoundsOf computes the inclusive bounding box of the given tiles
func BoundsOf(tiles []entities.Tile) entities.Bounds {
	if len(tiles) == 0 {
		return entities.Bounds{}
	}
	b := entities.Bounds{MinX: tiles[0].X, MinY: tiles[0].Y, MaxX: tiles[0].X, MaxY: tiles[0].Y}
	for _, t := range tiles[1:] {
		if t.X < b.MinX {
			b.MinX = t.X
		}
		if t.Y < b.MinY {
			b.MinY = t.Y
		}
		if t.X > b.MaxX {
			b.MaxX = t.X
		}
		if t.Y > b.MaxY {
			b.MaxY = t.Y
		}
	}
	return b
}

func tileSet(tiles []entities.Tile) map[entities.Tile]struct{} {
	set := make(map[entities.Tile]struct{}, len(tiles))
	for _, t := range tiles {
		set[t] = struct{}{}
	}
	return set
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
