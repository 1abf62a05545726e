package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

func assertPointNear(t *testing.T, want, got geometry.Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
}

func TestTranslateBy(t *testing.T) {
	m := TranslateBy(3, -2)
	assertPointNear(t, geometry.Pt(4, 3), m.Apply(geometry.Pt(1, 5)))
}

func TestRotateAboutCenter(t *testing.T) {
	m := RotateAbout(geometry.Pt(10, 10), math.Pi/2)

	// The center is a fixed point.
	assertPointNear(t, geometry.Pt(10, 10), m.Apply(geometry.Pt(10, 10)))
	assertPointNear(t, geometry.Pt(10, 15), m.Apply(geometry.Pt(15, 10)))
}

func TestScaleAboutOrigin(t *testing.T) {
	m := ScaleAbout(geometry.Pt(2, 2), 3)
	assertPointNear(t, geometry.Pt(2, 2), m.Apply(geometry.Pt(2, 2)))
	assertPointNear(t, geometry.Pt(8, 2), m.Apply(geometry.Pt(4, 2)))
}

func TestMirrorAcross(t *testing.T) {
	tests := []struct {
		name   string
		a, b   geometry.Point
		in     geometry.Point
		expect geometry.Point
	}{
		{"horizontal axis", geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(3, 4), geometry.Pt(3, -4)},
		{"vertical axis", geometry.Pt(5, 0), geometry.Pt(5, 10), geometry.Pt(3, 4), geometry.Pt(7, 4)},
		{"diagonal axis", geometry.Pt(0, 0), geometry.Pt(1, 1), geometry.Pt(2, 0), geometry.Pt(0, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MirrorAcross(tt.a, tt.b)
			assertPointNear(t, tt.expect, m.Apply(tt.in))
			assert.True(t, m.IsMirroring())
		})
	}
}

func TestMirrorAcrossDegenerateAxis(t *testing.T) {
	m := MirrorAcross(geometry.Pt(1, 1), geometry.Pt(1, 1))
	assert.True(t, m.IsIdentity())
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// Rotate then translate is not translate then rotate.
	rot := RotateAbout(geometry.Pt(0, 0), math.Pi/2)
	tr := TranslateBy(10, 0)

	p := geometry.Pt(1, 0)
	assertPointNear(t, geometry.Pt(10, 1), tr.Multiply(rot).Apply(p))
	assertPointNear(t, geometry.Pt(0, 11), rot.Multiply(tr).Apply(p))
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := TranslateBy(4, -7).
		Multiply(RotateAbout(geometry.Pt(2, 3), 0.7)).
		Multiply(ScaleAbout(geometry.Pt(-1, 5), 2.5))

	inv := m.Invert()
	require.False(t, m.IsIdentity())

	p := geometry.Pt(12.5, -3.25)
	assertPointNear(t, p, inv.Apply(m.Apply(p)))
}

func TestMatrixInvertSingular(t *testing.T) {
	m := ScaleAbout(geometry.Pt(0, 0), 0)
	assert.True(t, m.Invert().IsIdentity())
}

func TestMatrixDecomposition(t *testing.T) {
	m := RotateAbout(geometry.Pt(0, 0), 0.4).Multiply(ScaleAbout(geometry.Pt(0, 0), 3))
	assert.InDelta(t, 0.4, m.RotationAngle(), 1e-9)
	assert.InDelta(t, 3, m.UniformScale(), 1e-9)
	assert.False(t, m.IsMirroring())
}
