package geometry

import "math"

const (
	// ConeHitRadius is the perpendicular tolerance around a directed
	// attack's center line.
	ConeHitRadius = 2.5

	// DefaultEntityHeight lifts a 2-axis enemy position into attack space:
	// enemies live on the ground plane, attacks are specified in 3 axes.
	DefaultEntityHeight = 1.0
)

// Vec3 is a point or direction in attack space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Dot returns the dot product of v and o
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Length returns the Euclidean norm of v
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Scale returns v scaled by s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// LiftPlanar places a ground-plane position at the default entity height
func LiftPlanar(x, z float64) Vec3 {
	return Vec3{X: x, Y: DefaultEntityHeight, Z: z}
}

// ConeAttack is a directed melee or ranged attack: an origin, a direction,
// and a maximum range.
type ConeAttack struct {
	Origin    Vec3
	Direction Vec3
	Range     float64
}

// Hits reports whether the target point is inside the cone: within range,
// in front of the origin, and within ConeHitRadius of the center line.
func (a ConeAttack) Hits(target Vec3) bool {
	toTarget := target.Sub(a.Origin)
	dist := toTarget.Length()
	if dist > a.Range {
		return false
	}
	if dist == 0 {
		return a.Range > 0
	}

	dirLen := a.Direction.Length()
	if dirLen == 0 {
		return false
	}
	if toTarget.Dot(a.Direction) <= 0 {
		return false
	}

	// Perpendicular distance from the target to the attack's center line.
	along := toTarget.Dot(a.Direction) / dirLen
	perp := math.Sqrt(math.Max(0, dist*dist-along*along))
	return perp <= ConeHitRadius
}

// CapsuleAttack is a spell effect: a line segment plus radius
type CapsuleAttack struct {
	From   Vec3
	To     Vec3
	Radius float64
}

// Hits projects the target onto the clamped segment and checks the distance
// to the closest point. A zero-length segment degrades to a sphere check.
func (a CapsuleAttack) Hits(target Vec3) bool {
	seg := a.To.Sub(a.From)
	segLenSq := seg.Dot(seg)
	if segLenSq == 0 {
		return target.Sub(a.From).Length() <= a.Radius
	}

	t := target.Sub(a.From).Dot(seg) / segLenSq
	t = math.Max(0, math.Min(1, t))
	closest := a.From.Add(seg.Scale(t))
	return target.Sub(closest).Length() <= a.Radius
}
