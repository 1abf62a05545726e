// Package snap implements the default precision-input resolver:
// geometric snap points harvested from nearby shapes plus ortho and
// polar tracking guides.
package snap

import (
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/engine"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// polarStep is the angular increment of polar tracking guides.
const polarStep = math.Pi / 4

// Resolver satisfies engine.SnapResolver.
type Resolver struct{}

var _ engine.SnapResolver = Resolver{}

func New() Resolver { return Resolver{} }

// FindNearestSnapPoint collects the snap candidates of every shape,
// then grid points, and returns the closest one inside the tolerance.
// Geometric snaps win ties against grid snaps.
func (Resolver) FindNearestSnapPoint(p geometry.Point, candidates []document.Shape, kinds map[engine.SnapKind]bool, worldTol, gridSize float64) (engine.SnapPoint, bool) {
	best := engine.SnapPoint{}
	bestDist := math.Inf(1)
	consider := func(sp engine.SnapPoint) {
		d := p.Distance(sp.Point)
		if d <= worldTol && d < bestDist {
			best = sp
			bestDist = d
		}
	}

	for _, shape := range candidates {
		if !shape.Visible {
			continue
		}
		for _, sp := range shapeSnapPoints(shape, kinds) {
			consider(sp)
		}
	}

	if kinds[engine.SnapIntersection] {
		for i, a := range candidates {
			for _, b := range candidates[i+1:] {
				for _, pt := range shapeIntersections(a, b) {
					consider(engine.SnapPoint{Point: pt, Kind: engine.SnapIntersection})
				}
			}
		}
	}

	// Grid snapping only fills in when no geometric snap is in range.
	if math.IsInf(bestDist, 1) && kinds[engine.SnapGrid] && gridSize > 0 {
		gp := geometry.Pt(
			math.Round(p.X/gridSize)*gridSize,
			math.Round(p.Y/gridSize)*gridSize,
		)
		consider(engine.SnapPoint{Point: gp, Kind: engine.SnapGrid})
	}

	if math.IsInf(bestDist, 1) {
		return engine.SnapPoint{}, false
	}
	return best, true
}

// TrackingLines returns the ortho guide when the cursor is near an
// axis through base, and the polar guide for the nearest 45-degree
// ray otherwise.
func (Resolver) TrackingLines(base, cursor geometry.Point) []engine.TrackingLine {
	d := cursor.Sub(base)
	if d.Length() < geometry.Epsilon {
		return nil
	}

	var out []engine.TrackingLine
	if math.Abs(d.Y) <= math.Abs(d.X)*0.1 {
		out = append(out, engine.TrackingLine{
			Origin:    base,
			Direction: geometry.Pt(math.Copysign(1, d.X), 0),
			Kind:      "ortho",
		})
	}
	if math.Abs(d.X) <= math.Abs(d.Y)*0.1 {
		out = append(out, engine.TrackingLine{
			Origin:    base,
			Direction: geometry.Pt(0, math.Copysign(1, d.Y)),
			Kind:      "ortho",
		})
	}
	if len(out) > 0 {
		return out
	}

	angle := d.Angle()
	nearest := math.Round(angle/polarStep) * polarStep
	if math.Abs(angle-nearest) <= 3*math.Pi/180 {
		out = append(out, engine.TrackingLine{
			Origin:    base,
			Direction: geometry.Pt(math.Cos(nearest), math.Sin(nearest)),
			Kind:      "polar",
		})
	}
	return out
}

func shapeSnapPoints(s document.Shape, kinds map[engine.SnapKind]bool) []engine.SnapPoint {
	var out []engine.SnapPoint
	add := func(kind engine.SnapKind, pts ...geometry.Point) {
		if !kinds[kind] {
			return
		}
		for _, p := range pts {
			out = append(out, engine.SnapPoint{Point: p, Kind: kind, ShapeID: s.ID})
		}
	}

	switch v := s.Geometry.(type) {
	case document.Line:
		add(engine.SnapEndpoint, v.Start, v.End)
		add(engine.SnapMidpoint, v.Start.Mid(v.End))

	case document.Rectangle:
		tl := v.TopLeft
		tr := tl.Add(geometry.Pt(v.Width, 0))
		bl := tl.Add(geometry.Pt(0, v.Height))
		br := tl.Add(geometry.Pt(v.Width, v.Height))
		add(engine.SnapEndpoint, tl, tr, bl, br)
		add(engine.SnapMidpoint, tl.Mid(tr), tr.Mid(br), bl.Mid(br), tl.Mid(bl))
		add(engine.SnapCenter, tl.Mid(br))

	case document.Circle:
		add(engine.SnapCenter, v.Center)
		add(engine.SnapQuadrant,
			v.Center.Add(geometry.Pt(v.Radius, 0)),
			v.Center.Add(geometry.Pt(0, v.Radius)),
			v.Center.Add(geometry.Pt(-v.Radius, 0)),
			v.Center.Add(geometry.Pt(0, -v.Radius)),
		)

	case document.Arc:
		add(engine.SnapCenter, v.Center)
		start := v.Center.Add(geometry.Pt(v.Radius, 0).Rotate(v.StartAngle))
		end := v.Center.Add(geometry.Pt(v.Radius, 0).Rotate(v.EndAngle))
		add(engine.SnapEndpoint, start, end)

	case document.Ellipse:
		add(engine.SnapCenter, v.Center)
		add(engine.SnapQuadrant,
			v.Center.Add(geometry.Pt(v.RadiusX, 0).Rotate(v.Rotation)),
			v.Center.Add(geometry.Pt(0, v.RadiusY).Rotate(v.Rotation)),
			v.Center.Add(geometry.Pt(-v.RadiusX, 0).Rotate(v.Rotation)),
			v.Center.Add(geometry.Pt(0, -v.RadiusY).Rotate(v.Rotation)),
		)

	case document.Polyline:
		add(engine.SnapEndpoint, v.Points...)
		for i := 0; i+1 < len(v.Points); i++ {
			add(engine.SnapMidpoint, v.Points[i].Mid(v.Points[i+1]))
		}
		if v.Closed && len(v.Points) > 2 {
			add(engine.SnapMidpoint, v.Points[len(v.Points)-1].Mid(v.Points[0]))
		}

	case document.Spline:
		if len(v.ControlPoints) > 0 {
			add(engine.SnapEndpoint, v.ControlPoints[0], v.ControlPoints[len(v.ControlPoints)-1])
		}

	case document.Text:
		add(engine.SnapEndpoint, v.Position)

	case document.Dimension:
		add(engine.SnapEndpoint, v.Start, v.End)

	case document.Beam:
		add(engine.SnapEndpoint, v.AxisStart(), v.AxisEnd())
		add(engine.SnapMidpoint, v.AxisStart().Mid(v.AxisEnd()))

	case document.Hatch:
		add(engine.SnapEndpoint, v.Boundary...)
	}
	return out
}

// shapeIntersections approximates pairwise intersections by reducing
// both shapes to line segments and intersecting those. Curved shapes
// contribute their chords, which is accurate enough for snapping at
// typical zoom levels on straight-edged drawings.
func shapeIntersections(a, b document.Shape) []geometry.Point {
	segsA := shapeSegments(a.Geometry)
	segsB := shapeSegments(b.Geometry)
	var out []geometry.Point
	for _, sa := range segsA {
		for _, sb := range segsB {
			if p, ok := segmentIntersection(sa[0], sa[1], sb[0], sb[1]); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func shapeSegments(g document.Geometry) [][2]geometry.Point {
	switch v := g.(type) {
	case document.Line:
		return [][2]geometry.Point{{v.Start, v.End}}
	case document.Rectangle:
		tl := v.TopLeft
		tr := tl.Add(geometry.Pt(v.Width, 0))
		bl := tl.Add(geometry.Pt(0, v.Height))
		br := tl.Add(geometry.Pt(v.Width, v.Height))
		return [][2]geometry.Point{{tl, tr}, {tr, br}, {br, bl}, {bl, tl}}
	case document.Polyline:
		return polySegments(v.Points, v.Closed)
	case document.Hatch:
		return polySegments(v.Boundary, true)
	case document.Beam:
		return [][2]geometry.Point{{v.AxisStart(), v.AxisEnd()}}
	default:
		return nil
	}
}

func polySegments(points []geometry.Point, closed bool) [][2]geometry.Point {
	n := len(points)
	if n < 2 {
		return nil
	}
	count := n - 1
	if closed {
		count = n
	}
	out := make([][2]geometry.Point, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, [2]geometry.Point{points[i], points[(i+1)%n]})
	}
	return out
}

func segmentIntersection(a1, a2, b1, b2 geometry.Point) (geometry.Point, bool) {
	da := a2.Sub(a1)
	db := b2.Sub(b1)
	denom := da.Cross(db)
	if math.Abs(denom) < geometry.Epsilon {
		return geometry.Point{}, false
	}
	t := b1.Sub(a1).Cross(db) / denom
	u := b1.Sub(a1).Cross(da) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return geometry.Point{}, false
	}
	return a1.Add(da.Mul(t)), true
}
