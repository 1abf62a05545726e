package engine

import (
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// HitTestShape reports whether a world point falls on a shape within
// the given tolerance. Stroked outlines test against their curve;
// filled variants (text, hatch) also hit on their interior.
func HitTestShape(s document.Shape, p geometry.Point, tol float64) bool {
	if !s.Visible {
		return false
	}
	return hitGeometry(s.Geometry, p, tol)
}

func hitGeometry(g document.Geometry, p geometry.Point, tol float64) bool {
	switch v := g.(type) {
	case document.Line:
		return pointSegmentDistance(p, v.Start, v.End) <= tol

	case document.Rectangle:
		tl := v.TopLeft
		tr := tl.Add(geometry.Pt(v.Width, 0))
		bl := tl.Add(geometry.Pt(0, v.Height))
		br := tl.Add(geometry.Pt(v.Width, v.Height))
		return pointSegmentDistance(p, tl, tr) <= tol ||
			pointSegmentDistance(p, tr, br) <= tol ||
			pointSegmentDistance(p, br, bl) <= tol ||
			pointSegmentDistance(p, bl, tl) <= tol

	case document.Circle:
		return math.Abs(p.Distance(v.Center)-v.Radius) <= tol

	case document.Arc:
		d := p.Sub(v.Center)
		if math.Abs(d.Length()-v.Radius) > tol {
			return false
		}
		if angleOnArc(v, d.Angle()) {
			return true
		}
		return p.Distance(arcPoint(v, v.StartAngle)) <= tol ||
			p.Distance(arcPoint(v, v.EndAngle)) <= tol

	case document.Ellipse:
		if v.RadiusX < geometry.Epsilon || v.RadiusY < geometry.Epsilon {
			return false
		}
		// Scale into unit-circle space; the tolerance scales with the
		// smaller radius, which overstates hits along the major axis
		// by at most the axis ratio.
		local := p.Sub(v.Center).Rotate(-v.Rotation)
		unit := geometry.Pt(local.X/v.RadiusX, local.Y/v.RadiusY)
		return math.Abs(unit.Length()-1) <= tol/math.Min(v.RadiusX, v.RadiusY)

	case document.Polyline:
		return hitPolySegments(v.Points, v.Closed, p, tol)

	case document.Spline:
		return hitPolySegments(v.ControlPoints, v.Closed, p, tol)

	case document.Hatch:
		if pointInPolygon(p, v.Boundary) {
			return true
		}
		return hitPolySegments(v.Boundary, true, p, tol)

	case document.Text:
		local := p.Sub(v.Position).Rotate(-v.Rotation)
		w := textWidth(v)
		return local.X >= -tol && local.X <= w+tol &&
			local.Y >= -v.Height-tol && local.Y <= tol

	case document.Dimension:
		u := v.End.Sub(v.Start).Normalize()
		off := u.Perp().Mul(v.Offset)
		return pointSegmentDistance(p, v.Start.Add(off), v.End.Add(off)) <= tol ||
			pointSegmentDistance(p, v.Start, v.Start.Add(off)) <= tol ||
			pointSegmentDistance(p, v.End, v.End.Add(off)) <= tol

	case document.Beam:
		outline := BeamOutline(v)
		if pointInPolygon(p, outline) {
			return true
		}
		return hitPolySegments(outline, true, p, tol)

	default:
		return false
	}
}

func hitPolySegments(points []geometry.Point, closed bool, p geometry.Point, tol float64) bool {
	n := len(points)
	for i := 0; i < segmentCount(n, closed); i++ {
		if pointSegmentDistance(p, points[i], points[(i+1)%n]) <= tol {
			return true
		}
	}
	return false
}

func pointSegmentDistance(p, a, b geometry.Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < geometry.Epsilon {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Mul(t)))
}

// pointInPolygon uses the even-odd ray cast.
func pointInPolygon(p geometry.Point, poly []geometry.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
