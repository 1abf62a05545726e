package engine

import (
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// ShapeBounds returns the axis-aligned bounding box of a shape.
func ShapeBounds(s document.Shape) geometry.BoundingBox {
	return GeometryBounds(s.Geometry)
}

// GeometryBounds returns the bounding box of a geometry value.
// Incomplete geometry (an empty polyline, a nil union value) yields the
// zero box rather than an error.
//
// An arc is bounded by its full supporting circle, not the swept
// extent. Spatial-query consumers depend on that superset behavior.
func GeometryBounds(g document.Geometry) geometry.BoundingBox {
	if g == nil {
		return geometry.BoundingBox{}
	}

	switch v := g.(type) {
	case document.Line:
		return geometry.Box(v.Start.X, v.Start.Y, v.End.X, v.End.Y)

	case document.Rectangle:
		return geometry.Box(v.TopLeft.X, v.TopLeft.Y, v.TopLeft.X+v.Width, v.TopLeft.Y+v.Height)

	case document.Circle:
		return geometry.Box(v.Center.X-v.Radius, v.Center.Y-v.Radius, v.Center.X+v.Radius, v.Center.Y+v.Radius)

	case document.Arc:
		return geometry.Box(v.Center.X-v.Radius, v.Center.Y-v.Radius, v.Center.X+v.Radius, v.Center.Y+v.Radius)

	case document.Ellipse:
		// Extents of a rotated ellipse along each axis.
		cos := math.Cos(v.Rotation)
		sin := math.Sin(v.Rotation)
		ex := math.Sqrt(v.RadiusX*v.RadiusX*cos*cos + v.RadiusY*v.RadiusY*sin*sin)
		ey := math.Sqrt(v.RadiusX*v.RadiusX*sin*sin + v.RadiusY*v.RadiusY*cos*cos)
		return geometry.Box(v.Center.X-ex, v.Center.Y-ey, v.Center.X+ex, v.Center.Y+ey)

	case document.Polyline:
		return geometry.BoxFromPoints(v.Points)

	case document.Spline:
		return geometry.BoxFromPoints(v.ControlPoints)

	case document.Text:
		if v.Content == "" {
			return geometry.Box(v.Position.X, v.Position.Y, v.Position.X, v.Position.Y)
		}
		w := textWidth(v)
		corners := []geometry.Point{
			v.Position,
			v.Position.Add(geometry.Pt(w, 0).Rotate(v.Rotation)),
			v.Position.Add(geometry.Pt(w, -v.Height).Rotate(v.Rotation)),
			v.Position.Add(geometry.Pt(0, -v.Height).Rotate(v.Rotation)),
		}
		return geometry.BoxFromPoints(corners)

	case document.Dimension:
		b := geometry.BoxFromPoints([]geometry.Point{v.Start, v.End, v.TextPosition})
		return b.Inflate(math.Abs(v.Offset))

	case document.Beam:
		return geometry.BoxFromPoints(BeamOutline(v))

	case document.Hatch:
		return geometry.BoxFromPoints(v.Boundary)

	default:
		// Unrecognized descriptions never fail a bounds request.
		return geometry.BoundingBox{}
	}
}

// textWidth approximates rendered width from the glyph count; the
// backend has no font metrics.
func textWidth(t document.Text) float64 {
	return 0.6 * t.Height * float64(len([]rune(t.Content)))
}

// BeamOutline regenerates the section outline of a profile beam as a
// closed polygon in world coordinates. Geometry edits never touch
// these points; they always derive from position/rotation/scale and
// the section parameters.
func BeamOutline(b document.Beam) []geometry.Point {
	length := b.Length() * b.Scale
	depth := b.Params["depth"] * b.Scale
	if depth <= 0 {
		depth = 10 * b.Scale
	}

	half := depth / 2
	local := []geometry.Point{
		{X: 0, Y: -half},
		{X: length, Y: -half},
		{X: length, Y: half},
		{X: 0, Y: half},
	}

	out := make([]geometry.Point, len(local))
	for i, p := range local {
		out[i] = b.Position.Add(p.Rotate(b.Rotation))
	}
	return out
}
