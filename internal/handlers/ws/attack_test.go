package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepdelve/dungeon-api/internal/geometry"
)

func TestMeleeAttackIsAShortCone(t *testing.T) {
	g := &Gateway{}
	s := &session{id: "p1", floor: "A"}

	input := g.attackInput(s, clientMessage{Action: ActionMeleeAttack, AimX: 5, AimY: 0})
	require.NotNil(t, input)
	require.NotNil(t, input.Cone)
	assert.Nil(t, input.Capsule)
	assert.Equal(t, meleeDamage, input.Damage)
	assert.Equal(t, float64(meleeRange), input.Cone.Range)
}

func TestRangedAttackIsADirectedCone(t *testing.T) {
	g := &Gateway{}
	s := &session{id: "p1", floor: "A"}

	input := g.attackInput(s, clientMessage{Action: ActionRangedAttack, AimX: 5, AimY: 0})
	require.NotNil(t, input)
	require.NotNil(t, input.Cone)
	assert.Nil(t, input.Capsule)
	assert.Equal(t, rangedDamage, input.Damage)
	assert.Equal(t, float64(rangedRange), input.Cone.Range)

	// The cone keeps forward-dot semantics: far targets along the aim line
	// are hit, targets behind the shooter never are.
	assert.True(t, input.Cone.Hits(geometry.LiftPlanar(20, 0)))
	assert.False(t, input.Cone.Hits(geometry.LiftPlanar(-5, 0)))
}

func TestSpellCastIsACapsule(t *testing.T) {
	g := &Gateway{}
	s := &session{id: "p1", floor: "A"}

	input := g.attackInput(s, clientMessage{Action: ActionSpellCast, AimX: 20, AimY: 0})
	require.NotNil(t, input)
	require.NotNil(t, input.Capsule)
	assert.Nil(t, input.Cone)
	assert.Equal(t, spellDamage, input.Damage)
	assert.Equal(t, geometry.LiftPlanar(0, 0), input.Capsule.From)
	assert.Equal(t, geometry.LiftPlanar(20, 0), input.Capsule.To)
	assert.Equal(t, float64(spellRadius), input.Capsule.Radius)

	// A target standing at the aim point is inside the effect.
	assert.True(t, input.Capsule.Hits(geometry.LiftPlanar(20, 0)))
}

func TestSpellCastClampsSegmentLength(t *testing.T) {
	g := &Gateway{}
	s := &session{id: "p1", floor: "A"}

	input := g.attackInput(s, clientMessage{Action: ActionSpellCast, AimX: 200, AimY: 0})
	require.NotNil(t, input)
	require.NotNil(t, input.Capsule)
	assert.Equal(t, geometry.LiftPlanar(spellMaxLength, 0), input.Capsule.To)
}

func TestUnknownActionIsBroadcastOnly(t *testing.T) {
	g := &Gateway{}
	s := &session{id: "p1", floor: "A"}

	assert.Nil(t, g.attackInput(s, clientMessage{Action: "taunt"}))
}
