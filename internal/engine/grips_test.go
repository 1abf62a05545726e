package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

func shapeOf(g document.Geometry) document.Shape {
	return document.Shape{ID: "s", Visible: true, Geometry: g}
}

func TestGripPointsLine(t *testing.T) {
	grips := GripPoints(shapeOf(document.Line{
		Start: geometry.Pt(0, 0),
		End:   geometry.Pt(10, 0),
	}))
	require.Len(t, grips, 3)
	assertPointNear(t, geometry.Pt(0, 0), grips[0].Point)
	assertPointNear(t, geometry.Pt(10, 0), grips[1].Point)
	assertPointNear(t, geometry.Pt(5, 0), grips[2].Point)
	assert.Equal(t, GripMidpoint, grips[2].Kind)
}

func TestGripPointsRectangleOrder(t *testing.T) {
	grips := GripPoints(shapeOf(document.Rectangle{
		TopLeft: geometry.Pt(0, 0),
		Width:   10,
		Height:  6,
	}))
	require.Len(t, grips, 9)

	want := []geometry.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 6}, {X: 10, Y: 6},
		{X: 5, Y: 0}, {X: 10, Y: 3}, {X: 5, Y: 6}, {X: 0, Y: 3},
		{X: 5, Y: 3},
	}
	for i, g := range grips {
		assertPointNear(t, want[i], g.Point)
	}
	assert.Equal(t, GripCorner, grips[0].Kind)
	assert.Equal(t, GripEdge, grips[4].Kind)
	assert.Equal(t, GripCenter, grips[8].Kind)
}

func TestGripPointsArcMidpointLocksAxes(t *testing.T) {
	grips := GripPoints(shapeOf(document.Arc{
		Center:     geometry.Pt(0, 0),
		Radius:     5,
		StartAngle: 0,
		EndAngle:   math.Pi,
	}))
	require.Len(t, grips, 4)
	assertPointNear(t, geometry.Pt(5, 0), grips[1].Point)
	assertPointNear(t, geometry.Pt(-5, 0), grips[2].Point)
	assertPointNear(t, geometry.Pt(0, 5), grips[3].Point)
	assert.Equal(t, AxisNone, grips[3].Axis)
	assert.Equal(t, AxisBoth, grips[1].Axis)
}

func TestGripPointsPolylineOpenVsClosed(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}

	open := GripPoints(shapeOf(document.Polyline{Points: pts}))
	assert.Len(t, open, 5) // 3 vertices + 2 segment midpoints

	closed := GripPoints(shapeOf(document.Polyline{Points: pts, Closed: true}))
	require.Len(t, closed, 6)
	assertPointNear(t, geometry.Pt(5, 5), closed[5].Point)
}

func TestGripPointsCircleMatchPromotedEllipse(t *testing.T) {
	circle := shapeOf(document.Circle{Center: geometry.Pt(2, 3), Radius: 5})
	ellipse := shapeOf(document.Ellipse{
		Center:  geometry.Pt(2, 3),
		RadiusX: 5,
		RadiusY: 5,
	})

	cg := GripPoints(circle)
	eg := GripPoints(ellipse)
	require.Len(t, cg, 5)
	require.Len(t, eg, 5)
	for i := range cg {
		assertPointNear(t, cg[i].Point, eg[i].Point)
	}
}

func TestGripPointsTextHandles(t *testing.T) {
	grips := GripPoints(shapeOf(document.Text{
		Position: geometry.Pt(0, 0),
		Content:  "abcd",
		Height:   10,
	}))
	require.Len(t, grips, 4)
	// Width is estimated from the glyph count.
	assertPointNear(t, geometry.Pt(12, -5), grips[0].Point)
	assertPointNear(t, geometry.Pt(0, 0), grips[1].Point)
	assertPointNear(t, geometry.Pt(24, 0), grips[2].Point)
	assertPointNear(t, geometry.Pt(12, -20), grips[3].Point)
	assert.Equal(t, AxisXOnly, grips[1].Axis)
	assert.Equal(t, AxisXOnly, grips[2].Axis)
	assert.Equal(t, AxisNone, grips[3].Axis)
}

func TestGripPointsDimension(t *testing.T) {
	grips := GripPoints(shapeOf(document.Dimension{
		Start:        geometry.Pt(0, 0),
		End:          geometry.Pt(10, 0),
		Offset:       4,
		TextPosition: geometry.Pt(5, 6),
	}))
	require.Len(t, grips, 4)
	assertPointNear(t, geometry.Pt(5, 6), grips[0].Point)
	assertPointNear(t, geometry.Pt(5, 4), grips[1].Point)
	assert.Equal(t, GripOffset, grips[1].Kind)
}

func TestRectangleCornerDragNormalizes(t *testing.T) {
	rect := shapeOf(document.Rectangle{
		TopLeft: geometry.Pt(0, 0),
		Width:   10,
		Height:  10,
	})

	// Dragging the top-right corner across both axes of its anchor
	// (the bottom-left corner stays put) renormalizes the box.
	geo, ok := ComputeGripUpdates(rect, 1, geometry.Pt(-5, -5))
	require.True(t, ok)
	out := geo.(document.Rectangle)
	assertPointNear(t, geometry.Pt(-5, -5), out.TopLeft)
	assert.InDelta(t, 15, out.Width, 1e-9)
	assert.InDelta(t, 15, out.Height, 1e-9)
}

func TestRectangleEdgeAndCenterDrags(t *testing.T) {
	rect := shapeOf(document.Rectangle{
		TopLeft: geometry.Pt(0, 0),
		Width:   10,
		Height:  6,
	})

	geo, ok := ComputeGripUpdates(rect, 5, geometry.Pt(14, 99))
	require.True(t, ok)
	out := geo.(document.Rectangle)
	assert.InDelta(t, 14, out.Width, 1e-9)
	assert.InDelta(t, 6, out.Height, 1e-9)

	geo, ok = ComputeGripUpdates(rect, 8, geometry.Pt(10, 10))
	require.True(t, ok)
	out = geo.(document.Rectangle)
	assertPointNear(t, geometry.Pt(5, 7), out.TopLeft)
	assert.InDelta(t, 10, out.Width, 1e-9)
}

func TestLineMidpointDragTranslates(t *testing.T) {
	line := shapeOf(document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)})

	geo, ok := ComputeGripUpdates(line, 2, geometry.Pt(5, 3))
	require.True(t, ok)
	out := geo.(document.Line)
	assertPointNear(t, geometry.Pt(0, 3), out.Start)
	assertPointNear(t, geometry.Pt(10, 3), out.End)
}

func TestCircleGripDrags(t *testing.T) {
	circle := shapeOf(document.Circle{Center: geometry.Pt(0, 0), Radius: 5})

	geo, ok := ComputeGripUpdates(circle, 0, geometry.Pt(3, 4))
	require.True(t, ok)
	assertPointNear(t, geometry.Pt(3, 4), geo.(document.Circle).Center)

	geo, ok = ComputeGripUpdates(circle, 2, geometry.Pt(0, 8))
	require.True(t, ok)
	assert.InDelta(t, 8, geo.(document.Circle).Radius, 1e-9)

	_, ok = ComputeGripUpdates(circle, 1, geometry.Pt(0, 0))
	assert.False(t, ok)
}

func TestEllipseCardinalDragProjectsOntoAxis(t *testing.T) {
	ellipse := shapeOf(document.Ellipse{
		Center:  geometry.Pt(0, 0),
		RadiusX: 4,
		RadiusY: 2,
	})

	// Off-axis drags only count their projection onto the grip's axis.
	geo, ok := ComputeGripUpdates(ellipse, 1, geometry.Pt(6, 1))
	require.True(t, ok)
	out := geo.(document.Ellipse)
	assert.InDelta(t, 6, out.RadiusX, 1e-9)
	assert.InDelta(t, 2, out.RadiusY, 1e-9)

	geo, ok = ComputeGripUpdates(ellipse, 4, geometry.Pt(1, -3))
	require.True(t, ok)
	assert.InDelta(t, 3, geo.(document.Ellipse).RadiusY, 1e-9)
}

func TestEllipseCardinalDragRespectsRotation(t *testing.T) {
	ellipse := shapeOf(document.Ellipse{
		Center:   geometry.Pt(0, 0),
		RadiusX:  4,
		RadiusY:  2,
		Rotation: math.Pi / 2,
	})

	// The +X cardinal now points along world +Y.
	geo, ok := ComputeGripUpdates(ellipse, 1, geometry.Pt(0, 7))
	require.True(t, ok)
	assert.InDelta(t, 7, geo.(document.Ellipse).RadiusX, 1e-9)
}

func TestArcEndpointDragChangesOnlyAngle(t *testing.T) {
	arc := shapeOf(document.Arc{
		Center:     geometry.Pt(0, 0),
		Radius:     5,
		StartAngle: 0,
		EndAngle:   math.Pi,
	})

	// The dragged point is off the circle; the radius stays put.
	geo, ok := ComputeGripUpdates(arc, 1, geometry.Pt(10, 10))
	require.True(t, ok)
	out := geo.(document.Arc)
	assert.InDelta(t, math.Pi/4, out.StartAngle, 1e-9)
	assert.InDelta(t, 5, out.Radius, 1e-9)
	assertPointNear(t, geometry.Pt(0, 0), out.Center)
}

func TestArcMidpointDragRederivesCircle(t *testing.T) {
	arc := shapeOf(document.Arc{
		Center:     geometry.Pt(0, 0),
		Radius:     5,
		StartAngle: 0,
		EndAngle:   math.Pi,
	})

	// Dragging the midpoint back onto the same circle reproduces it.
	geo, ok := ComputeGripUpdates(arc, 3, geometry.Pt(0, 5))
	require.True(t, ok)
	out := geo.(document.Arc)
	assertPointNear(t, geometry.Pt(0, 0), out.Center)
	assert.InDelta(t, 5, out.Radius, 1e-9)
	assert.InDelta(t, 0, out.StartAngle, 1e-9)
	assert.InDelta(t, math.Pi, out.EndAngle, 1e-9)
}

func TestArcMidpointDragFlipsSweepWhenBelowChord(t *testing.T) {
	arc := shapeOf(document.Arc{
		Center:     geometry.Pt(0, 0),
		Radius:     5,
		StartAngle: 0,
		EndAngle:   math.Pi,
	})

	geo, ok := ComputeGripUpdates(arc, 3, geometry.Pt(0, -5))
	require.True(t, ok)
	out := geo.(document.Arc)
	assert.InDelta(t, math.Pi, out.StartAngle, 1e-9)
	assert.InDelta(t, 0, out.EndAngle, 1e-9)

	// The dragged point lies on the new sweep.
	assert.True(t, angleOnArc(out, -math.Pi/2))
}

func TestArcMidpointDragCollinearRefused(t *testing.T) {
	arc := shapeOf(document.Arc{
		Center:     geometry.Pt(0, 0),
		Radius:     5,
		StartAngle: 0,
		EndAngle:   math.Pi,
	})

	_, ok := ComputeGripUpdates(arc, 3, geometry.Pt(0, 0))
	assert.False(t, ok)
}

func TestTextRotationGripSnapsNearRightAngles(t *testing.T) {
	text := shapeOf(document.Text{
		Position: geometry.Pt(0, 0),
		Content:  "ab",
		Height:   10,
	})

	// The rotation handle hangs above the baseline, so straight up is
	// zero rotation. 46 degrees snaps onto 45, 30 stays free.
	a := 46 * math.Pi / 180
	geo, ok := ComputeGripUpdates(text, 3, geometry.Pt(math.Sin(a), -math.Cos(a)))
	require.True(t, ok)
	assert.InDelta(t, math.Pi/4, geo.(document.Text).Rotation, 1e-9)

	a = 30 * math.Pi / 180
	geo, ok = ComputeGripUpdates(text, 3, geometry.Pt(math.Sin(a), -math.Cos(a)))
	require.True(t, ok)
	assert.InDelta(t, a, geo.(document.Text).Rotation, 1e-9)
}

func TestTextResizeScalesHeight(t *testing.T) {
	text := shapeOf(document.Text{
		Position: geometry.Pt(0, 0),
		Content:  "abcd",
		Height:   10,
	})

	// Right handle at x=24; halving the width halves the height.
	geo, ok := ComputeGripUpdates(text, 2, geometry.Pt(12, 5))
	require.True(t, ok)
	out := geo.(document.Text)
	assert.InDelta(t, 5, out.Height, 1e-9)
	assertPointNear(t, geometry.Pt(0, 0), out.Position)

	// Left handle anchors the right end.
	geo, ok = ComputeGripUpdates(text, 1, geometry.Pt(-6, 3))
	require.True(t, ok)
	out = geo.(document.Text)
	assert.InDelta(t, 12.5, out.Height, 1e-9)
	assertPointNear(t, geometry.Pt(-6, 0), out.Position)
}

func TestPolylineMidpointGripTranslatesSegment(t *testing.T) {
	pl := shapeOf(document.Polyline{
		Points: []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
	})

	// Index 3 is the midpoint of the first segment.
	geo, ok := ComputeGripUpdates(pl, 3, geometry.Pt(5, 2))
	require.True(t, ok)
	out := geo.(document.Polyline)
	assertPointNear(t, geometry.Pt(0, 2), out.Points[0])
	assertPointNear(t, geometry.Pt(10, 2), out.Points[1])
	assertPointNear(t, geometry.Pt(10, 10), out.Points[2])
}

func TestPolylineGripUpdateDoesNotAliasInput(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}
	pl := shapeOf(document.Polyline{Points: pts})

	_, ok := ComputeGripUpdates(pl, 0, geometry.Pt(-1, -1))
	require.True(t, ok)
	assertPointNear(t, geometry.Pt(0, 0), pts[0])
}

func TestHatchVertexDrag(t *testing.T) {
	h := shapeOf(document.Hatch{
		Boundary: []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
	})

	// The boundary is implicitly closed, so index 5 is the midpoint of
	// the closing segment.
	geo, ok := ComputeGripUpdates(h, 5, geometry.Pt(6, 6))
	require.True(t, ok)
	out := geo.(document.Hatch)
	assertPointNear(t, geometry.Pt(1, 1), out.Boundary[0])
	assertPointNear(t, geometry.Pt(11, 11), out.Boundary[2])
}

func TestDimensionOffsetGrip(t *testing.T) {
	dim := shapeOf(document.Dimension{
		Start:  geometry.Pt(0, 0),
		End:    geometry.Pt(10, 0),
		Offset: 1,
	})

	geo, ok := ComputeGripUpdates(dim, 1, geometry.Pt(5, 3))
	require.True(t, ok)
	assert.InDelta(t, 3, geo.(document.Dimension).Offset, 1e-9)

	geo, ok = ComputeGripUpdates(dim, 1, geometry.Pt(5, -3))
	require.True(t, ok)
	assert.InDelta(t, -3, geo.(document.Dimension).Offset, 1e-9)
}

func TestBeamEndpointDragStaysParametric(t *testing.T) {
	beam := shapeOf(document.Beam{
		Position: geometry.Pt(0, 0),
		Scale:    2,
		Section:  "IPE200",
		Params:   map[string]float64{"length": 10},
	})

	geo, ok := ComputeGripUpdates(beam, 1, geometry.Pt(0, 20))
	require.True(t, ok)
	out := geo.(document.Beam)
	assert.InDelta(t, math.Pi/2, out.Rotation, 1e-9)
	assert.InDelta(t, 10, out.Params["length"], 1e-9)
	assertPointNear(t, geometry.Pt(0, 0), out.Position)

	// The source params map stays untouched.
	src := beam.Geometry.(document.Beam)
	geo, ok = ComputeGripUpdates(beam, 1, geometry.Pt(40, 0))
	require.True(t, ok)
	assert.InDelta(t, 20, geo.(document.Beam).Params["length"], 1e-9)
	assert.InDelta(t, 10, src.Params["length"], 1e-9)
}

func TestBeamStartDragKeepsEnd(t *testing.T) {
	beam := shapeOf(document.Beam{
		Position: geometry.Pt(0, 0),
		Scale:    1,
		Params:   map[string]float64{"length": 10},
	})

	geo, ok := ComputeGripUpdates(beam, 0, geometry.Pt(10, -10))
	require.True(t, ok)
	out := geo.(document.Beam)
	assertPointNear(t, geometry.Pt(10, -10), out.Position)
	assertPointNear(t, geometry.Pt(10, 0), out.AxisEnd())
}

func TestComputeGripUpdatesInvalidIndex(t *testing.T) {
	line := shapeOf(document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(1, 1)})

	_, ok := ComputeGripUpdates(line, 3, geometry.Pt(0, 0))
	assert.False(t, ok)
	_, ok = ComputeGripUpdates(line, -1, geometry.Pt(0, 0))
	assert.False(t, ok)
	_, ok = ComputeGripUpdates(line, 0, geometry.Pt(math.NaN(), 0))
	assert.False(t, ok)
}
