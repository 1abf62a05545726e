package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorOps(t *testing.T) {
	a := Pt(3, 4)
	b := Pt(1, -2)

	assert.Equal(t, Pt(4, 2), a.Add(b))
	assert.Equal(t, Pt(2, 6), a.Sub(b))
	assert.InDelta(t, 5, a.Length(), 1e-12)
	assert.InDelta(t, -5, a.Dot(b), 1e-12)

	// Cross is positive when the second vector is counter-clockwise of
	// the first.
	assert.Positive(t, Pt(1, 0).Cross(Pt(0, 1)))
	assert.Negative(t, Pt(0, 1).Cross(Pt(1, 0)))
}

func TestNormalize(t *testing.T) {
	n := Pt(3, 4).Normalize()
	assert.InDelta(t, 0.6, n.X, 1e-12)
	assert.InDelta(t, 0.8, n.Y, 1e-12)

	assert.Equal(t, Point{}, Point{}.Normalize())
}

func TestPerpAndRotate(t *testing.T) {
	assert.Equal(t, Pt(0, 1), Pt(1, 0).Perp())

	r := Pt(1, 0).Rotate(math.Pi / 2)
	assert.InDelta(t, 0, r.X, 1e-12)
	assert.InDelta(t, 1, r.Y, 1e-12)
}

func TestLerpAndMid(t *testing.T) {
	a := Pt(0, 0)
	b := Pt(10, 20)

	assert.Equal(t, Pt(5, 10), a.Mid(b))
	assert.Equal(t, Pt(2.5, 5), a.Lerp(b, 0.25))
	assert.Equal(t, b, a.Lerp(b, 1))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Pt(1, 2).IsFinite())
	assert.False(t, Pt(math.NaN(), 0).IsFinite())
	assert.False(t, Pt(0, math.Inf(1)).IsFinite())
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0, NormalizeAngle(2*math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, NormalizeAngle(-math.Pi), 1e-12)
	assert.InDelta(t, 3*math.Pi/2, NormalizeAngle(-math.Pi/2), 1e-12)
	assert.InDelta(t, 0.5, NormalizeAngle(4*math.Pi+0.5), 1e-12)
}
