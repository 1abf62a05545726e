package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

func lineShape(id string, x1, y1, x2, y2 float64) document.Shape {
	return document.Shape{
		ID:      id,
		Visible: true,
		Geometry: document.Line{
			Start: geometry.Pt(x1, y1),
			End:   geometry.Pt(x2, y2),
		},
	}
}

func TestTrimLineRemovesClickedPortion(t *testing.T) {
	target := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(20, 0)}
	cutter := lineShape("c", 10, -5, 10, 5)

	// Click on the right half: the End endpoint moves to the cut.
	out, ok := TrimLineAtIntersection(target, cutter, geometry.Pt(16, 0))
	require.True(t, ok)
	assertPointNear(t, geometry.Pt(0, 0), out.Start)
	assertPointNear(t, geometry.Pt(10, 0), out.End)

	// Click on the left half: the Start endpoint moves instead.
	out, ok = TrimLineAtIntersection(target, cutter, geometry.Pt(3, 0))
	require.True(t, ok)
	assertPointNear(t, geometry.Pt(10, 0), out.Start)
	assertPointNear(t, geometry.Pt(20, 0), out.End)
}

func TestTrimLinePicksIntersectionNearestClick(t *testing.T) {
	target := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(30, 0)}
	cutter := document.Shape{
		ID:      "circle",
		Visible: true,
		Geometry: document.Circle{
			Center: geometry.Pt(15, 0),
			Radius: 5,
		},
	}

	// The circle cuts at x=10 and x=20; a click near the right end
	// trims to x=20.
	out, ok := TrimLineAtIntersection(target, cutter, geometry.Pt(28, 0))
	require.True(t, ok)
	assertPointNear(t, geometry.Pt(20, 0), out.End)
}

func TestTrimLineNoIntersection(t *testing.T) {
	target := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)}
	cutter := lineShape("c", 0, 5, 10, 5)

	_, ok := TrimLineAtIntersection(target, cutter, geometry.Pt(5, 0))
	assert.False(t, ok)
}

func TestExtendLineToBoundary(t *testing.T) {
	target := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)}
	boundary := lineShape("b", 25, -5, 25, 5)

	out, ok := ExtendLineToBoundary(target, boundary)
	require.True(t, ok)
	assertPointNear(t, geometry.Pt(0, 0), out.Start)
	assertPointNear(t, geometry.Pt(25, 0), out.End)
}

func TestExtendLineBackwards(t *testing.T) {
	target := document.Line{Start: geometry.Pt(10, 0), End: geometry.Pt(20, 0)}
	boundary := lineShape("b", 2, -5, 2, 5)

	// The boundary lies behind Start, so Start extends.
	out, ok := ExtendLineToBoundary(target, boundary)
	require.True(t, ok)
	assertPointNear(t, geometry.Pt(2, 0), out.Start)
	assertPointNear(t, geometry.Pt(20, 0), out.End)
}

func TestExtendLineIgnoresIntersectionInsideSegment(t *testing.T) {
	target := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)}
	boundary := lineShape("b", 5, -5, 5, 5)

	_, ok := ExtendLineToBoundary(target, boundary)
	assert.False(t, ok)
}

func TestExtendLineParallelBoundary(t *testing.T) {
	target := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)}
	boundary := lineShape("b", 0, 5, 10, 5)

	_, ok := ExtendLineToBoundary(target, boundary)
	assert.False(t, ok)
}

func TestFilletPerpendicularLines(t *testing.T) {
	l1 := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)}
	l2 := document.Line{Start: geometry.Pt(10, 0), End: geometry.Pt(10, 10)}

	res, ok := FilletLines(l1, l2, 2)
	require.True(t, ok)
	require.NotNil(t, res.Arc)

	// Tangent points sit the tangent distance back from the corner.
	assertPointNear(t, geometry.Pt(0, 0), res.Line1.Start)
	assertPointNear(t, geometry.Pt(8, 0), res.Line1.End)
	assertPointNear(t, geometry.Pt(10, 2), res.Line2.Start)
	assertPointNear(t, geometry.Pt(10, 10), res.Line2.End)

	assertPointNear(t, geometry.Pt(8, 2), res.Arc.Center)
	assert.InDelta(t, 2, res.Arc.Radius, 1e-9)

	// The arc is tangent: it touches both trimmed endpoints.
	start := arcPoint(*res.Arc, res.Arc.StartAngle)
	end := arcPoint(*res.Arc, res.Arc.EndAngle)
	assertPointNear(t, geometry.Pt(8, 0), start)
	assertPointNear(t, geometry.Pt(10, 2), end)

	// Minor sweep only.
	sweep := geometry.NormalizeAngle(res.Arc.EndAngle - res.Arc.StartAngle)
	assert.LessOrEqual(t, sweep, math.Pi+1e-9)
}

func TestFilletZeroRadiusIsCornerTrim(t *testing.T) {
	l1 := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(8, 0)}
	l2 := document.Line{Start: geometry.Pt(10, 2), End: geometry.Pt(10, 10)}

	res, ok := FilletLines(l1, l2, 0)
	require.True(t, ok)
	assert.Nil(t, res.Arc)
	assertPointNear(t, geometry.Pt(10, 0), res.Line1.End)
	assertPointNear(t, geometry.Pt(10, 0), res.Line2.Start)
}

func TestFilletParallelLines(t *testing.T) {
	l1 := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)}
	l2 := document.Line{Start: geometry.Pt(0, 5), End: geometry.Pt(10, 5)}

	_, ok := FilletLines(l1, l2, 2)
	assert.False(t, ok)
}

func TestChamferLines(t *testing.T) {
	l1 := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)}
	l2 := document.Line{Start: geometry.Pt(10, 0), End: geometry.Pt(10, 10)}

	res, ok := ChamferLines(l1, l2, 3, 4)
	require.True(t, ok)
	require.NotNil(t, res.Segment)

	assertPointNear(t, geometry.Pt(7, 0), res.Line1.End)
	assertPointNear(t, geometry.Pt(10, 4), res.Line2.Start)
	assertPointNear(t, geometry.Pt(7, 0), res.Segment.Start)
	assertPointNear(t, geometry.Pt(10, 4), res.Segment.End)
}

func TestChamferZeroDistancesIsCornerTrim(t *testing.T) {
	l1 := document.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(9, 0)}
	l2 := document.Line{Start: geometry.Pt(10, 1), End: geometry.Pt(10, 10)}

	res, ok := ChamferLines(l1, l2, 0, 0)
	require.True(t, ok)
	assert.Nil(t, res.Segment)
	assertPointNear(t, geometry.Pt(10, 0), res.Line1.End)
	assertPointNear(t, geometry.Pt(10, 0), res.Line2.Start)
}

func TestOffsetLineSides(t *testing.T) {
	src := lineShape("l", 0, 0, 10, 0)

	above, ok := OffsetShape(src, 3, geometry.Pt(5, 5))
	require.True(t, ok)
	line := above.Geometry.(document.Line)
	assertPointNear(t, geometry.Pt(0, 3), line.Start)
	assertPointNear(t, geometry.Pt(10, 3), line.End)

	below, ok := OffsetShape(src, 3, geometry.Pt(5, -5))
	require.True(t, ok)
	line = below.Geometry.(document.Line)
	assertPointNear(t, geometry.Pt(0, -3), line.Start)
}

func TestOffsetCircle(t *testing.T) {
	src := document.Shape{
		ID:       "c",
		Visible:  true,
		Geometry: document.Circle{Center: geometry.Pt(0, 0), Radius: 10},
	}

	outside, ok := OffsetShape(src, 3, geometry.Pt(20, 0))
	require.True(t, ok)
	assert.InDelta(t, 13, outside.Geometry.(document.Circle).Radius, 1e-9)

	inside, ok := OffsetShape(src, 3, geometry.Pt(1, 0))
	require.True(t, ok)
	assert.InDelta(t, 7, inside.Geometry.(document.Circle).Radius, 1e-9)

	// Collapsing past the center is refused.
	_, ok = OffsetShape(src, 12, geometry.Pt(1, 0))
	assert.False(t, ok)
}

func TestOffsetRectangle(t *testing.T) {
	src := document.Shape{
		ID:      "r",
		Visible: true,
		Geometry: document.Rectangle{
			TopLeft: geometry.Pt(0, 0),
			Width:   10,
			Height:  6,
		},
	}

	out, ok := OffsetShape(src, 2, geometry.Pt(50, 50))
	require.True(t, ok)
	rect := out.Geometry.(document.Rectangle)
	assertPointNear(t, geometry.Pt(-2, -2), rect.TopLeft)
	assert.InDelta(t, 14, rect.Width, 1e-9)
	assert.InDelta(t, 10, rect.Height, 1e-9)
}

func TestOffsetRoundTripRestoresShape(t *testing.T) {
	src := lineShape("l", 0, 0, 10, 10)

	out, ok := OffsetShape(src, 2, geometry.Pt(0, 10))
	require.True(t, ok)
	back, ok := OffsetShape(out, 2, geometry.Pt(10, 0))
	require.True(t, ok)

	orig := src.Geometry.(document.Line)
	got := back.Geometry.(document.Line)
	assertPointNear(t, orig.Start, got.Start)
	assertPointNear(t, orig.End, got.End)
}

func TestOffsetPolyline(t *testing.T) {
	src := document.Shape{
		ID:      "pl",
		Visible: true,
		Geometry: document.Polyline{
			Points: []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
		},
	}

	out, ok := OffsetShape(src, 2, geometry.Pt(5, 5))
	require.True(t, ok)
	pl := out.Geometry.(document.Polyline)
	require.Len(t, pl.Points, 3)

	// End vertices move by the plain normal, the corner along its
	// miter.
	assertPointNear(t, geometry.Pt(0, 2), pl.Points[0])
	assertPointNear(t, geometry.Pt(8, 2), pl.Points[1])
	assertPointNear(t, geometry.Pt(8, 10), pl.Points[2])
}

func TestOffsetTextUnsupported(t *testing.T) {
	src := document.Shape{
		ID:       "t",
		Visible:  true,
		Geometry: document.Text{Position: geometry.Pt(0, 0), Content: "x", Height: 5},
	}
	_, ok := OffsetShape(src, 2, geometry.Pt(0, 0))
	assert.False(t, ok)
}
