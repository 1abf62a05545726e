package snap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/engine"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

func snapLine(id string, x1, y1, x2, y2 float64) document.Shape {
	return document.Shape{
		ID:      id,
		Visible: true,
		Geometry: document.Line{
			Start: geometry.Pt(x1, y1),
			End:   geometry.Pt(x2, y2),
		},
	}
}

func allKinds() map[engine.SnapKind]bool {
	return map[engine.SnapKind]bool{
		engine.SnapEndpoint:     true,
		engine.SnapMidpoint:     true,
		engine.SnapCenter:       true,
		engine.SnapQuadrant:     true,
		engine.SnapIntersection: true,
		engine.SnapGrid:         true,
	}
}

func TestFindNearestSnapPointPrefersClosest(t *testing.T) {
	r := New()
	shapes := []document.Shape{snapLine("l", 0, 0, 10, 0)}

	sp, ok := r.FindNearestSnapPoint(geometry.Pt(9.5, 0.5), shapes, allKinds(), 2, 0)
	require.True(t, ok)
	assert.Equal(t, engine.SnapEndpoint, sp.Kind)
	assert.InDelta(t, 10, sp.Point.X, 1e-9)
	assert.Equal(t, "l", sp.ShapeID)

	sp, ok = r.FindNearestSnapPoint(geometry.Pt(5.3, 0.2), shapes, allKinds(), 2, 0)
	require.True(t, ok)
	assert.Equal(t, engine.SnapMidpoint, sp.Kind)
	assert.InDelta(t, 5, sp.Point.X, 1e-9)
}

func TestFindNearestSnapPointOutOfRange(t *testing.T) {
	r := New()
	shapes := []document.Shape{snapLine("l", 0, 0, 10, 0)}

	_, ok := r.FindNearestSnapPoint(geometry.Pt(50, 50), shapes, allKinds(), 2, 0)
	assert.False(t, ok)
}

func TestFindNearestSnapPointRespectsKindFilter(t *testing.T) {
	r := New()
	shapes := []document.Shape{snapLine("l", 0, 0, 10, 0)}
	kinds := map[engine.SnapKind]bool{engine.SnapMidpoint: true}

	sp, ok := r.FindNearestSnapPoint(geometry.Pt(0.5, 0), shapes, kinds, 6, 0)
	require.True(t, ok)
	assert.Equal(t, engine.SnapMidpoint, sp.Kind)
}

func TestFindNearestSnapPointSkipsInvisibleShapes(t *testing.T) {
	r := New()
	hidden := snapLine("l", 0, 0, 10, 0)
	hidden.Visible = false

	_, ok := r.FindNearestSnapPoint(geometry.Pt(0.5, 0.5), []document.Shape{hidden}, allKinds(), 2, 0)
	assert.False(t, ok)
}

func TestIntersectionSnap(t *testing.T) {
	r := New()
	shapes := []document.Shape{
		snapLine("a", 0, 5, 20, 5),
		snapLine("b", 5, 0, 5, 20),
	}

	sp, ok := r.FindNearestSnapPoint(geometry.Pt(5.4, 5.4), shapes, allKinds(), 1, 0)
	require.True(t, ok)
	assert.Equal(t, engine.SnapIntersection, sp.Kind)
	assert.InDelta(t, 5, sp.Point.X, 1e-9)
	assert.InDelta(t, 5, sp.Point.Y, 1e-9)
}

func TestGridSnapOnlyWithoutGeometricSnap(t *testing.T) {
	r := New()
	shapes := []document.Shape{snapLine("l", 0, 0, 10, 0)}

	// Far from any shape point, the grid fills in.
	sp, ok := r.FindNearestSnapPoint(geometry.Pt(12, 9), shapes, allKinds(), 3, 10)
	require.True(t, ok)
	assert.Equal(t, engine.SnapGrid, sp.Kind)
	assert.InDelta(t, 10, sp.Point.X, 1e-9)
	assert.InDelta(t, 10, sp.Point.Y, 1e-9)

	// A geometric snap in range beats a closer grid point.
	sp, ok = r.FindNearestSnapPoint(geometry.Pt(9.4, 0.5), shapes, allKinds(), 3, 10)
	require.True(t, ok)
	assert.Equal(t, engine.SnapEndpoint, sp.Kind)
}

func TestCircleQuadrantSnap(t *testing.T) {
	r := New()
	shapes := []document.Shape{{
		ID:       "c",
		Visible:  true,
		Geometry: document.Circle{Center: geometry.Pt(0, 0), Radius: 10},
	}}

	sp, ok := r.FindNearestSnapPoint(geometry.Pt(0.3, 9.5), shapes, allKinds(), 2, 0)
	require.True(t, ok)
	assert.Equal(t, engine.SnapQuadrant, sp.Kind)
	assert.InDelta(t, 0, sp.Point.X, 1e-9)
	assert.InDelta(t, 10, sp.Point.Y, 1e-9)
}

func TestBeamAxisSnap(t *testing.T) {
	r := New()
	shapes := []document.Shape{{
		ID:      "b",
		Visible: true,
		Geometry: document.Beam{
			Position: geometry.Pt(0, 0),
			Scale:    1,
			Params:   map[string]float64{"length": 20},
		},
	}}

	sp, ok := r.FindNearestSnapPoint(geometry.Pt(10.2, 0.4), shapes, allKinds(), 2, 0)
	require.True(t, ok)
	assert.Equal(t, engine.SnapMidpoint, sp.Kind)
	assert.InDelta(t, 10, sp.Point.X, 1e-9)
}

func TestTrackingLinesOrtho(t *testing.T) {
	r := New()

	lines := r.TrackingLines(geometry.Pt(0, 0), geometry.Pt(10, 0.5))
	require.Len(t, lines, 1)
	assert.Equal(t, "ortho", lines[0].Kind)
	assert.InDelta(t, 1, lines[0].Direction.X, 1e-9)
	assert.InDelta(t, 0, lines[0].Direction.Y, 1e-9)

	lines = r.TrackingLines(geometry.Pt(0, 0), geometry.Pt(0.5, -10))
	require.Len(t, lines, 1)
	assert.InDelta(t, -1, lines[0].Direction.Y, 1e-9)
}

func TestTrackingLinesPolar(t *testing.T) {
	r := New()

	// 45.8 degrees is inside the 3-degree polar band around 45.
	a := 45.8 * math.Pi / 180
	cursor := geometry.Pt(10*math.Cos(a), 10*math.Sin(a))
	lines := r.TrackingLines(geometry.Pt(0, 0), cursor)
	require.Len(t, lines, 1)
	assert.Equal(t, "polar", lines[0].Kind)
	assert.InDelta(t, math.Cos(math.Pi/4), lines[0].Direction.X, 1e-9)

	// 30 degrees is near no guide at all.
	a = 30 * math.Pi / 180
	cursor = geometry.Pt(10*math.Cos(a), 10*math.Sin(a))
	assert.Empty(t, r.TrackingLines(geometry.Pt(0, 0), cursor))
}

func TestTrackingLinesDegenerateCursor(t *testing.T) {
	r := New()
	assert.Empty(t, r.TrackingLines(geometry.Pt(5, 5), geometry.Pt(5, 5)))
}
