// Package entities provides core data structures for dungeon-api.
package entities

// RootDungeonNode is the name of the dungeon's root floor. Every other
// node's name is its parent's name plus one trailing letter, so a name's
// length equals its depth plus one.
const RootDungeonNode = "A"

// DungeonNode identifies one floor of the dungeon and its connectivity to
// child floors.
type DungeonNode struct {
	Name                 string   `json:"name"`
	Children             []string `json:"children"`
	IsDownwardFromParent bool     `json:"is_downward_from_parent"`
	IsBossLevel          bool     `json:"is_boss_level"`
}

// Depth returns the node's depth in the dungeon DAG (root is 0)
func (n *DungeonNode) Depth() int {
	return len(n.Name) - len(RootDungeonNode)
}

// IsLeaf reports whether the node has no children yet
func (n *DungeonNode) IsLeaf() bool {
	return len(n.Children) == 0
}
