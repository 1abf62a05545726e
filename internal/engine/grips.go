package engine

import (
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// GripKind classifies a handle for rendering and hit-test rules.
type GripKind string

const (
	GripVertex   GripKind = "vertex"
	GripMidpoint GripKind = "midpoint"
	GripCenter   GripKind = "center"
	GripEdge     GripKind = "edge"
	GripCardinal GripKind = "cardinal"
	GripCorner   GripKind = "corner"
	GripMove     GripKind = "move"
	GripResize   GripKind = "resize"
	GripRotation GripKind = "rotation"
	GripText     GripKind = "text"
	GripOffset   GripKind = "offset"
)

// AxisMode declares which axis-constraint arrows a grip offers.
type AxisMode int

const (
	AxisBoth AxisMode = iota
	AxisXOnly
	AxisNone
)

// Grip is one semantic handle on a selected shape.
type Grip struct {
	Point geometry.Point `json:"point"`
	Kind  GripKind       `json:"kind"`
	Axis  AxisMode       `json:"axis"`
}

// GripPoints enumerates the handles of a shape in the fixed per-variant
// order that ComputeGripUpdates indexes into.
func GripPoints(s document.Shape) []Grip {
	switch v := s.Geometry.(type) {
	case document.Line:
		return []Grip{
			{Point: v.Start, Kind: GripVertex},
			{Point: v.End, Kind: GripVertex},
			{Point: v.Start.Mid(v.End), Kind: GripMidpoint},
		}

	case document.Rectangle:
		tl := v.TopLeft
		tr := tl.Add(geometry.Pt(v.Width, 0))
		bl := tl.Add(geometry.Pt(0, v.Height))
		br := tl.Add(geometry.Pt(v.Width, v.Height))
		return []Grip{
			// Corners row-major; a corner drag anchors (i+2)%4.
			{Point: tl, Kind: GripCorner},
			{Point: tr, Kind: GripCorner},
			{Point: bl, Kind: GripCorner},
			{Point: br, Kind: GripCorner},
			{Point: tl.Mid(tr), Kind: GripEdge},
			{Point: tr.Mid(br), Kind: GripEdge},
			{Point: bl.Mid(br), Kind: GripEdge},
			{Point: tl.Mid(bl), Kind: GripEdge},
			{Point: tl.Mid(br), Kind: GripCenter},
		}

	case document.Circle:
		c := v.Center
		return []Grip{
			{Point: c, Kind: GripCenter},
			{Point: c.Add(geometry.Pt(v.Radius, 0)), Kind: GripCardinal},
			{Point: c.Add(geometry.Pt(0, v.Radius)), Kind: GripCardinal},
			{Point: c.Add(geometry.Pt(-v.Radius, 0)), Kind: GripCardinal},
			{Point: c.Add(geometry.Pt(0, -v.Radius)), Kind: GripCardinal},
		}

	case document.Arc:
		sweep := geometry.NormalizeAngle(v.EndAngle - v.StartAngle)
		mid := arcPoint(v, v.StartAngle+sweep/2)
		return []Grip{
			{Point: v.Center, Kind: GripCenter},
			{Point: arcPoint(v, v.StartAngle), Kind: GripVertex},
			{Point: arcPoint(v, v.EndAngle), Kind: GripVertex},
			// Midpoint drags re-derive the circle; axis arrows would
			// fight the circumcenter math.
			{Point: mid, Kind: GripMidpoint, Axis: AxisNone},
		}

	case document.Ellipse:
		c := v.Center
		return []Grip{
			{Point: c, Kind: GripCenter},
			{Point: c.Add(geometry.Pt(v.RadiusX, 0).Rotate(v.Rotation)), Kind: GripCardinal},
			{Point: c.Add(geometry.Pt(0, v.RadiusY).Rotate(v.Rotation)), Kind: GripCardinal},
			{Point: c.Add(geometry.Pt(-v.RadiusX, 0).Rotate(v.Rotation)), Kind: GripCardinal},
			{Point: c.Add(geometry.Pt(0, -v.RadiusY).Rotate(v.Rotation)), Kind: GripCardinal},
		}

	case document.Polyline:
		return vertexAndMidpointGrips(v.Points, v.Closed)

	case document.Spline:
		return vertexAndMidpointGrips(v.ControlPoints, v.Closed)

	case document.Hatch:
		return vertexAndMidpointGrips(v.Boundary, true)

	case document.Text:
		w := textWidth(v)
		return []Grip{
			{Point: v.Position.Add(geometry.Pt(w/2, -v.Height/2).Rotate(v.Rotation)), Kind: GripMove},
			{Point: v.Position, Kind: GripResize, Axis: AxisXOnly},
			{Point: v.Position.Add(geometry.Pt(w, 0).Rotate(v.Rotation)), Kind: GripResize, Axis: AxisXOnly},
			{Point: v.Position.Add(geometry.Pt(w/2, -2*v.Height).Rotate(v.Rotation)), Kind: GripRotation, Axis: AxisNone},
		}

	case document.Dimension:
		u := v.End.Sub(v.Start).Normalize()
		offsetHandle := v.Start.Mid(v.End).Add(u.Perp().Mul(v.Offset))
		return []Grip{
			{Point: v.TextPosition, Kind: GripText},
			{Point: offsetHandle, Kind: GripOffset},
			{Point: v.Start, Kind: GripVertex},
			{Point: v.End, Kind: GripVertex},
		}

	case document.Beam:
		start := v.AxisStart()
		end := v.AxisEnd()
		return []Grip{
			{Point: start, Kind: GripVertex},
			{Point: end, Kind: GripVertex},
			{Point: start.Mid(end), Kind: GripMidpoint},
		}

	default:
		return nil
	}
}

func vertexAndMidpointGrips(points []geometry.Point, closed bool) []Grip {
	n := len(points)
	grips := make([]Grip, 0, 2*n)
	for _, p := range points {
		grips = append(grips, Grip{Point: p, Kind: GripVertex})
	}
	segCount := segmentCount(n, closed)
	for i := 0; i < segCount; i++ {
		grips = append(grips, Grip{
			Point: points[i].Mid(points[(i+1)%n]),
			Kind:  GripMidpoint,
		})
	}
	return grips
}

func segmentCount(n int, closed bool) int {
	if n < 2 {
		return 0
	}
	if closed {
		return n
	}
	return n - 1
}

// ComputeGripUpdates maps a grip index and a new world position to the
// replacement geometry for the shape. Invalid indices and degenerate
// positions (collinear arc points, zero radii) yield ok=false and no
// update.
func ComputeGripUpdates(s document.Shape, index int, p geometry.Point) (document.Geometry, bool) {
	if index < 0 || !p.IsFinite() {
		return nil, false
	}

	switch v := s.Geometry.(type) {
	case document.Line:
		switch index {
		case 0:
			v.Start = p
		case 1:
			v.End = p
		case 2:
			delta := p.Sub(v.Start.Mid(v.End))
			v.Start = v.Start.Add(delta)
			v.End = v.End.Add(delta)
		default:
			return nil, false
		}
		return v, true

	case document.Rectangle:
		return rectangleGripUpdate(v, index, p)

	case document.Circle:
		switch {
		case index == 0:
			v.Center = p
		case index >= 1 && index <= 4:
			r := p.Distance(v.Center)
			if r < geometry.Epsilon {
				return nil, false
			}
			v.Radius = r
		default:
			return nil, false
		}
		return v, true

	case document.Arc:
		return arcGripUpdate(v, index, p)

	case document.Ellipse:
		return ellipseGripUpdate(v, index, p)

	case document.Polyline:
		points, ok := movePolyVertex(v.Points, v.Closed, index, p)
		if !ok {
			return nil, false
		}
		v.Points = points
		v.Bulges = append([]float64(nil), v.Bulges...)
		return v, true

	case document.Spline:
		points, ok := movePolyVertex(v.ControlPoints, v.Closed, index, p)
		if !ok {
			return nil, false
		}
		v.ControlPoints = points
		return v, true

	case document.Hatch:
		points, ok := movePolyVertex(v.Boundary, true, index, p)
		if !ok {
			return nil, false
		}
		v.Boundary = points
		return v, true

	case document.Text:
		return textGripUpdate(v, index, p)

	case document.Dimension:
		switch index {
		case 0:
			v.TextPosition = p
		case 1:
			u := v.End.Sub(v.Start).Normalize()
			if u.Length() < geometry.Epsilon {
				return nil, false
			}
			v.Offset = u.Cross(p.Sub(v.Start))
		case 2:
			v.Start = p
		case 3:
			v.End = p
		default:
			return nil, false
		}
		return v, true

	case document.Beam:
		return beamGripUpdate(v, index, p)

	default:
		return nil, false
	}
}

// rectangleGripUpdate recomputes top-left/width/height with sign
// normalization: width and height always end up non-negative, left and
// top are the minima of the opposing edges.
func rectangleGripUpdate(v document.Rectangle, index int, p geometry.Point) (document.Geometry, bool) {
	tl := v.TopLeft
	right := tl.X + v.Width
	bottom := tl.Y + v.Height

	switch {
	case index >= 0 && index <= 3:
		corners := []geometry.Point{
			tl,
			{X: right, Y: tl.Y},
			{X: tl.X, Y: bottom},
			{X: right, Y: bottom},
		}
		anchor := corners[(index+2)%4]
		b := geometry.Box(p.X, p.Y, anchor.X, anchor.Y)
		return document.Rectangle{
			TopLeft: geometry.Pt(b.MinX, b.MinY),
			Width:   b.Width(),
			Height:  b.Height(),
		}, true

	case index == 4: // top edge, bottom fixed
		b := geometry.Box(tl.X, p.Y, right, bottom)
		return document.Rectangle{TopLeft: geometry.Pt(b.MinX, b.MinY), Width: b.Width(), Height: b.Height()}, true
	case index == 5: // right edge, left fixed
		b := geometry.Box(tl.X, tl.Y, p.X, bottom)
		return document.Rectangle{TopLeft: geometry.Pt(b.MinX, b.MinY), Width: b.Width(), Height: b.Height()}, true
	case index == 6: // bottom edge, top fixed
		b := geometry.Box(tl.X, tl.Y, right, p.Y)
		return document.Rectangle{TopLeft: geometry.Pt(b.MinX, b.MinY), Width: b.Width(), Height: b.Height()}, true
	case index == 7: // left edge, right fixed
		b := geometry.Box(p.X, tl.Y, right, bottom)
		return document.Rectangle{TopLeft: geometry.Pt(b.MinX, b.MinY), Width: b.Width(), Height: b.Height()}, true

	case index == 8:
		center := geometry.Pt(tl.X+v.Width/2, tl.Y+v.Height/2)
		v.TopLeft = tl.Add(p.Sub(center))
		return v, true

	default:
		return nil, false
	}
}

func arcGripUpdate(v document.Arc, index int, p geometry.Point) (document.Geometry, bool) {
	switch index {
	case 0:
		v.Center = p
		return v, true
	case 1:
		v.StartAngle = p.Sub(v.Center).Angle()
		return v, true
	case 2:
		v.EndAngle = p.Sub(v.Center).Angle()
		return v, true
	case 3:
		// Re-derive the circle through (fixed start, dragged mid,
		// fixed end). Collinear points have no circumcenter.
		start := arcPoint(v, v.StartAngle)
		end := arcPoint(v, v.EndAngle)
		center, ok := circumcenter(start, p, end)
		if !ok {
			return nil, false
		}
		out := document.Arc{
			Center:     center,
			Radius:     center.Distance(start),
			StartAngle: start.Sub(center).Angle(),
			EndAngle:   end.Sub(center).Angle(),
		}
		// The dragged midpoint must lie on the sweep; flip direction
		// when it does not.
		if !angleOnArc(out, p.Sub(center).Angle()) {
			out.StartAngle, out.EndAngle = out.EndAngle, out.StartAngle
		}
		return out, true
	default:
		return nil, false
	}
}

func ellipseGripUpdate(v document.Ellipse, index int, p geometry.Point) (document.Geometry, bool) {
	if index == 0 {
		v.Center = p
		return v, true
	}
	if index < 1 || index > 4 {
		return nil, false
	}

	var axis geometry.Point
	switch index {
	case 1:
		axis = geometry.Pt(1, 0)
	case 2:
		axis = geometry.Pt(0, 1)
	case 3:
		axis = geometry.Pt(-1, 0)
	case 4:
		axis = geometry.Pt(0, -1)
	}
	axis = axis.Rotate(v.Rotation)

	r := math.Abs(p.Sub(v.Center).Dot(axis))
	if r < geometry.Epsilon {
		return nil, false
	}
	if index == 1 || index == 3 {
		v.RadiusX = r
	} else {
		v.RadiusY = r
	}
	return v, true
}

func textGripUpdate(v document.Text, index int, p geometry.Point) (document.Geometry, bool) {
	w := textWidth(v)

	switch index {
	case 0:
		handle := v.Position.Add(geometry.Pt(w/2, -v.Height/2).Rotate(v.Rotation))
		v.Position = v.Position.Add(p.Sub(handle))
		return v, true

	case 1: // left resize, right end anchored; X-axis driven
		if w < geometry.Epsilon {
			return nil, false
		}
		right := v.Position.Add(geometry.Pt(w, 0).Rotate(v.Rotation))
		newW := math.Abs(right.X - p.X)
		if newW < geometry.Epsilon {
			return nil, false
		}
		v.Height *= newW / w
		v.Position = right.Sub(geometry.Pt(newW, 0).Rotate(v.Rotation))
		return v, true

	case 2: // right resize, position anchored
		if w < geometry.Epsilon {
			return nil, false
		}
		newW := math.Abs(p.X - v.Position.X)
		if newW < geometry.Epsilon {
			return nil, false
		}
		v.Height *= newW / w
		return v, true

	case 3:
		d := p.Sub(v.Position)
		if d.Length() < geometry.Epsilon {
			return nil, false
		}
		angle := math.Atan2(d.X, -d.Y)
		v.Rotation = snapToRightAngles(angle)
		return v, true

	default:
		return nil, false
	}
}

// snapToRightAngles pulls an angle onto the nearest 45-degree multiple
// when it falls inside a 5-degree tolerance band.
func snapToRightAngles(angle float64) float64 {
	const step = math.Pi / 4
	const tol = 5 * math.Pi / 180
	nearest := math.Round(angle/step) * step
	if math.Abs(angle-nearest) <= tol {
		return nearest
	}
	return angle
}

func beamGripUpdate(v document.Beam, index int, p geometry.Point) (document.Geometry, bool) {
	if v.Scale < geometry.Epsilon {
		return nil, false
	}
	out := document.CloneGeometry(v).(document.Beam)

	switch index {
	case 0: // start moves, end stays
		end := v.AxisEnd()
		axis := end.Sub(p)
		if axis.Length() < geometry.Epsilon {
			return nil, false
		}
		out.Position = p
		out.Rotation = axis.Angle()
		out.Params["length"] = axis.Length() / v.Scale
		return out, true

	case 1: // end moves, start stays
		axis := p.Sub(v.Position)
		if axis.Length() < geometry.Epsilon {
			return nil, false
		}
		out.Rotation = axis.Angle()
		out.Params["length"] = axis.Length() / v.Scale
		return out, true

	case 2:
		mid := v.AxisStart().Mid(v.AxisEnd())
		out.Position = v.Position.Add(p.Sub(mid))
		return out, true

	default:
		return nil, false
	}
}

func movePolyVertex(points []geometry.Point, closed bool, index int, p geometry.Point) ([]geometry.Point, bool) {
	n := len(points)
	if n == 0 {
		return nil, false
	}
	out := append([]geometry.Point(nil), points...)

	if index < n {
		out[index] = p
		return out, true
	}

	// Segment-midpoint grips translate both bounding vertices.
	seg := index - n
	if seg >= segmentCount(n, closed) {
		return nil, false
	}
	j := (seg + 1) % n
	delta := p.Sub(points[seg].Mid(points[j]))
	out[seg] = points[seg].Add(delta)
	out[j] = points[j].Add(delta)
	return out, true
}

func circumcenter(a, b, c geometry.Point) (geometry.Point, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < geometry.Epsilon {
		return geometry.Point{}, false
	}
	aa := a.X*a.X + a.Y*a.Y
	bb := b.X*b.X + b.Y*b.Y
	cc := c.X*c.X + c.Y*c.Y
	return geometry.Point{
		X: (aa*(b.Y-c.Y) + bb*(c.Y-a.Y) + cc*(a.Y-b.Y)) / d,
		Y: (aa*(c.X-b.X) + bb*(a.X-c.X) + cc*(b.X-a.X)) / d,
	}, true
}
