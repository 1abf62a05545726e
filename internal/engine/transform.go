package engine

import (
	"fmt"
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// ApplyTransform returns a new shape with the transform applied. The
// input is never mutated. Most variants survive unchanged; a rectangle
// promotes to a closed polyline when the transform tilts it off the
// axes.
//
// A non-uniform scale applied to a circle is not handled here: the
// caller decides whether a type promotion (circle to ellipse) is
// required before transforming.
func ApplyTransform(s document.Shape, m Matrix2D) document.Shape {
	s.Geometry = TransformGeometry(s.Geometry, m)
	return s
}

// TransformGeometry returns the replacement geometry for a shape under
// the transform. Point fields are remapped; angle fields follow the
// transform's rotation and orientation; length fields follow its
// uniform scale.
func TransformGeometry(g document.Geometry, m Matrix2D) document.Geometry {
	scale := m.UniformScale()

	switch v := g.(type) {
	case document.Line:
		return document.Line{Start: m.Apply(v.Start), End: m.Apply(v.End)}

	case document.Rectangle:
		corners := []geometry.Point{
			v.TopLeft,
			v.TopLeft.Add(geometry.Pt(v.Width, 0)),
			v.TopLeft.Add(geometry.Pt(v.Width, v.Height)),
			v.TopLeft.Add(geometry.Pt(0, v.Height)),
		}
		for i, c := range corners {
			corners[i] = m.Apply(c)
		}
		// An axis-preserving transform keeps the rectangle variant; the
		// result is the normalized box of the transformed corners. Any
		// other transform would shear the corners off the axis-aligned
		// form, so the shape promotes to a closed polyline instead.
		if preservesAxes(m) {
			b := geometry.BoxFromPoints(corners)
			return document.Rectangle{
				TopLeft: geometry.Pt(b.MinX, b.MinY),
				Width:   b.Width(),
				Height:  b.Height(),
			}
		}
		return document.Polyline{Points: corners, Closed: true}

	case document.Circle:
		return document.Circle{Center: m.Apply(v.Center), Radius: v.Radius * scale}

	case document.Arc:
		center := m.Apply(v.Center)
		startPt := m.Apply(arcPoint(v, v.StartAngle))
		endPt := m.Apply(arcPoint(v, v.EndAngle))
		start := startPt.Sub(center).Angle()
		end := endPt.Sub(center).Angle()
		if m.IsMirroring() {
			// Reflection reverses sweep direction; swap to keep the
			// counter-clockwise convention.
			start, end = end, start
		}
		return document.Arc{
			Center:     center,
			Radius:     v.Radius * scale,
			StartAngle: start,
			EndAngle:   end,
		}

	case document.Ellipse:
		major := geometry.Pt(math.Cos(v.Rotation), math.Sin(v.Rotation))
		return document.Ellipse{
			Center:   m.Apply(v.Center),
			RadiusX:  v.RadiusX * scale,
			RadiusY:  v.RadiusY * scale,
			Rotation: m.ApplyVector(major).Angle(),
		}

	case document.Polyline:
		points := make([]geometry.Point, len(v.Points))
		for i, p := range v.Points {
			points[i] = m.Apply(p)
		}
		bulges := append([]float64(nil), v.Bulges...)
		if m.IsMirroring() {
			// Bulge is signed curvature; reflection flips it.
			for i := range bulges {
				bulges[i] = -bulges[i]
			}
		}
		return document.Polyline{Points: points, Bulges: bulges, Closed: v.Closed}

	case document.Spline:
		points := make([]geometry.Point, len(v.ControlPoints))
		for i, p := range v.ControlPoints {
			points[i] = m.Apply(p)
		}
		return document.Spline{ControlPoints: points, Degree: v.Degree, Closed: v.Closed}

	case document.Text:
		baseline := geometry.Pt(math.Cos(v.Rotation), math.Sin(v.Rotation))
		return document.Text{
			Position: m.Apply(v.Position),
			Content:  v.Content,
			Height:   v.Height * scale,
			Rotation: m.ApplyVector(baseline).Angle(),
		}

	case document.Dimension:
		offset := v.Offset * scale
		if m.IsMirroring() {
			// Offset is signed relative to the measured direction;
			// reflection puts the dimension line on the other side.
			offset = -offset
		}
		return document.Dimension{
			Start:        m.Apply(v.Start),
			End:          m.Apply(v.End),
			Offset:       offset,
			TextPosition: m.Apply(v.TextPosition),
		}

	case document.Beam:
		// Profile parametric shape: only position, rotation and scale
		// change; the generated outline is rebuilt from them on demand.
		axis := geometry.Pt(math.Cos(v.Rotation), math.Sin(v.Rotation))
		out := document.CloneGeometry(v).(document.Beam)
		out.Position = m.Apply(v.Position)
		out.Rotation = m.ApplyVector(axis).Angle()
		out.Scale = v.Scale * scale
		return out

	case document.Hatch:
		boundary := make([]geometry.Point, len(v.Boundary))
		for i, p := range v.Boundary {
			boundary[i] = m.Apply(p)
		}
		angleDir := geometry.Pt(math.Cos(v.PatternAngle), math.Sin(v.PatternAngle))
		return document.Hatch{
			Boundary:     boundary,
			Pattern:      v.Pattern,
			PatternScale: v.PatternScale * scale,
			PatternAngle: m.ApplyVector(angleDir).Angle(),
		}

	default:
		panic(fmt.Sprintf("unhandled geometry variant %T", g))
	}
}

// preservesAxes reports whether the transform maps axis-aligned
// directions back onto the axes: pure translate/scale, quarter turns,
// and mirrors across an axis or diagonal all qualify.
func preservesAxes(m Matrix2D) bool {
	straight := math.Abs(m[1]) < geometry.Epsilon && math.Abs(m[2]) < geometry.Epsilon
	swapped := math.Abs(m[0]) < geometry.Epsilon && math.Abs(m[3]) < geometry.Epsilon
	return straight || swapped
}

// PromoteCircleToEllipse converts a circle to the equivalent ellipse
// variant. Used before non-uniform edits such as cardinal grip drags.
func PromoteCircleToEllipse(c document.Circle) document.Ellipse {
	return document.Ellipse{
		Center:   c.Center,
		RadiusX:  c.Radius,
		RadiusY:  c.Radius,
		Rotation: 0,
	}
}

func arcPoint(a document.Arc, angle float64) geometry.Point {
	return geometry.Point{
		X: a.Center.X + a.Radius*math.Cos(angle),
		Y: a.Center.Y + a.Radius*math.Sin(angle),
	}
}
