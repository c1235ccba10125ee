package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/deepdelve/dungeon-api/internal/geometry"
)

type CombatTestSuite struct {
	suite.Suite
}

func (s *CombatTestSuite) TestConeHitsTargetAtOrigin() {
	attack := geometry.ConeAttack{
		Origin:    geometry.Vec3{X: 10, Y: 1, Z: 10},
		Direction: geometry.Vec3{X: 1, Y: 0, Z: 0},
		Range:     8,
	}

	s.True(attack.Hits(attack.Origin), "target exactly at the origin must always be hit")
}

func (s *CombatTestSuite) TestConeRespectsRange() {
	attack := geometry.ConeAttack{
		Origin:    geometry.Vec3{},
		Direction: geometry.Vec3{X: 1, Y: 0, Z: 0},
		Range:     5,
	}

	s.True(attack.Hits(geometry.Vec3{X: 4.9}))
	s.False(attack.Hits(geometry.Vec3{X: 5.1}), "beyond range must miss")
}

func (s *CombatTestSuite) TestConeRejectsTargetsBehindOrigin() {
	attack := geometry.ConeAttack{
		Origin:    geometry.Vec3{},
		Direction: geometry.Vec3{X: 1, Y: 0, Z: 0},
		Range:     10,
	}

	s.False(attack.Hits(geometry.Vec3{X: -3}))
	s.False(attack.Hits(geometry.Vec3{Z: 3}), "perpendicular target has no forward component")
}

func (s *CombatTestSuite) TestConePerpendicularTolerance() {
	attack := geometry.ConeAttack{
		Origin:    geometry.Vec3{},
		Direction: geometry.Vec3{X: 1, Y: 0, Z: 0},
		Range:     20,
	}

	s.True(attack.Hits(geometry.Vec3{X: 10, Z: 2.4}))
	s.False(attack.Hits(geometry.Vec3{X: 10, Z: 2.6}), "outside the hit radius must miss")
}

func (s *CombatTestSuite) TestConeUnnormalizedDirection() {
	attack := geometry.ConeAttack{
		Origin:    geometry.Vec3{},
		Direction: geometry.Vec3{X: 42, Y: 0, Z: 0},
		Range:     20,
	}

	s.True(attack.Hits(geometry.Vec3{X: 10, Z: 1}), "direction magnitude must not matter")
}

func (s *CombatTestSuite) TestCapsuleHitsAlongSegment() {
	attack := geometry.CapsuleAttack{
		From:   geometry.Vec3{X: 0, Y: 1, Z: 0},
		To:     geometry.Vec3{X: 10, Y: 1, Z: 0},
		Radius: 3,
	}

	s.True(attack.Hits(geometry.Vec3{X: 5, Y: 1, Z: 2.9}))
	s.True(attack.Hits(geometry.Vec3{X: 0, Y: 1, Z: 0}))
	s.False(attack.Hits(geometry.Vec3{X: 5, Y: 1, Z: 3.1}))
	s.False(attack.Hits(geometry.Vec3{X: 14, Y: 1, Z: 0}), "beyond the far endpoint plus radius")
}

func (s *CombatTestSuite) TestCapsuleClampsToEndpoints() {
	attack := geometry.CapsuleAttack{
		From:   geometry.Vec3{},
		To:     geometry.Vec3{X: 10},
		Radius: 2,
	}

	// Closest point for a target past the end is the endpoint itself.
	s.True(attack.Hits(geometry.Vec3{X: 11.5}))
	s.False(attack.Hits(geometry.Vec3{X: 12.5}))
}

func (s *CombatTestSuite) TestCapsuleDegeneratesToSphere() {
	attack := geometry.CapsuleAttack{
		From:   geometry.Vec3{X: 3, Y: 1, Z: 3},
		To:     geometry.Vec3{X: 3, Y: 1, Z: 3},
		Radius: 2,
	}

	s.True(attack.Hits(geometry.Vec3{X: 4, Y: 1, Z: 3}))
	s.False(attack.Hits(geometry.Vec3{X: 6, Y: 1, Z: 3}))
}

func (s *CombatTestSuite) TestLiftPlanar() {
	v := geometry.LiftPlanar(2, 7)
	s.Equal(2.0, v.X)
	s.Equal(geometry.DefaultEntityHeight, v.Y)
	s.Equal(7.0, v.Z)
}

func TestCombatTestSuite(t *testing.T) {
	suite.Run(t, new(CombatTestSuite))
}
