package floorlayout

import (
	"fmt"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/geometry"
)

// Generation tuning. Room sizes keep at least one interior tile on each
// axis so stairs never land on a wall.
const (
	minRooms = 4
	maxRooms = 8

	minRoomSize = 4
	maxRoomSize = 10

	minHallwayLength = 3
	maxHallwayLength = 8

	// Probability that a hallway continues into a room rather than
	// another hallway segment.
	roomChildChance = 0.6

	// Hard cap on nodes per floor regardless of growth luck
	maxFloorNodes = 64

	minDownwardStairs = 1
	maxDownwardStairs = 2
)

var relativeDirections = []entities.Direction{
	entities.DirectionLeft,
	entities.DirectionRight,
	entities.DirectionCenter,
}

// generateGraph grows a fresh floor node graph for one dungeon node.
// Caller holds o.mu for the rng.
func (o *orchestrator) generateGraph(dungeonNode string, hasUpwardStair bool) []*entities.FloorNode {
	target := minRooms + o.rng.Intn(maxRooms-minRooms+1)

	var nodes []*entities.FloorNode
	nextName := func() string {
		return fmt.Sprintf("%s-%d", dungeonNode, len(nodes))
	}

	root := &entities.FloorNode{
		Name:        nextName(),
		DungeonNode: dungeonNode,
		IsRoom:      true,
		RoomWidth:   minRoomSize + o.rng.Intn(maxRoomSize-minRoomSize+1),
		RoomHeight:  minRoomSize + o.rng.Intn(maxRoomSize-minRoomSize+1),
	}
	if hasUpwardStair {
		root.HasUpwardStair = true
		root.StairLocationX = 1 + o.rng.Intn(root.RoomWidth-2)
		root.StairLocationY = 1 + o.rng.Intn(root.RoomHeight-2)
	}
	nodes = append(nodes, root)

	rooms := 1
	queue := []*entities.FloorNode{root}
	for rooms < target && len(nodes) < maxFloorNodes {
		if len(queue) == 0 {
			// Growth died out early. Re-seed from a random existing
			// room so the floor still reaches its room target.
			queue = append(queue, o.randomRoom(nodes))
		}
		parent := queue[0]
		queue = queue[1:]

		// Branching decays as the floor fills up.
		children := 1
		if o.rng.Float64() < 1.0-float64(rooms)/float64(target) {
			children = 2
		}

		for i := 0; i < children && rooms < target && len(nodes) < maxFloorNodes; i++ {
			child := o.growChild(parent, nextName())
			if child.IsRoom {
				rooms++
			}
			parent.Children = append(parent.Children, child.Name)
			nodes = append(nodes, child)
			queue = append(queue, child)
		}
	}

	o.placeDownwardStairs(nodes)
	return nodes
}

// growChild creates one child node attached to parent. Rooms only ever
// attach hallways; hallways usually end in a room.
func (o *orchestrator) growChild(parent *entities.FloorNode, name string) *entities.FloorNode {
	child := &entities.FloorNode{
		Name:             name,
		DungeonNode:      parent.DungeonNode,
		ParentDirection:  relativeDirections[o.rng.Intn(len(relativeDirections))],
		ParentDoorOffset: o.rng.Intn(doorOffsetBound(parent)),
	}

	if parent.IsRoom || o.rng.Float64() >= roomChildChance {
		child.HallwayLength = minHallwayLength + o.rng.Intn(maxHallwayLength-minHallwayLength+1)
	} else {
		child.IsRoom = true
		child.RoomWidth = minRoomSize + o.rng.Intn(maxRoomSize-minRoomSize+1)
		child.RoomHeight = minRoomSize + o.rng.Intn(maxRoomSize-minRoomSize+1)
	}
	return child
}

// doorOffsetBound is the number of valid door positions along the wall the
// child attaches to. The positioner clamps per-side, so the bound only has
// to be safe for the shortest wall.
func doorOffsetBound(parent *entities.FloorNode) int {
	if !parent.IsRoom {
		return geometry.HallwayWidth
	}
	bound := parent.RoomWidth
	if parent.RoomHeight < bound {
		bound = parent.RoomHeight
	}
	return bound
}

func (o *orchestrator) randomRoom(nodes []*entities.FloorNode) *entities.FloorNode {
	var candidates []*entities.FloorNode
	for _, n := range nodes {
		if n.IsRoom {
			candidates = append(candidates, n)
		}
	}
	return candidates[o.rng.Intn(len(candidates))]
}

// placeDownwardStairs marks one or two rooms without an upward stair as
// holding a downward stair with an interior landing tile.
func (o *orchestrator) placeDownwardStairs(nodes []*entities.FloorNode) {
	var candidates []*entities.FloorNode
	for _, n := range nodes {
		if n.IsRoom && !n.HasUpwardStair {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return
	}

	o.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	count := minDownwardStairs + o.rng.Intn(maxDownwardStairs-minDownwardStairs+1)
	if count > len(candidates) {
		count = len(candidates)
	}

	for _, room := range candidates[:count] {
		room.HasDownwardStair = true
		room.StairLocationX = 1 + o.rng.Intn(room.RoomWidth-2)
		room.StairLocationY = 1 + o.rng.Intn(room.RoomHeight-2)
	}
}
