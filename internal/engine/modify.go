package engine

import (
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// The modify algorithms consume concrete geometry plus a disambiguating
// point or parameter and report degeneracy (parallel lines, missing
// intersections, zero-length input) as ok=false, never as an error.

// FilletResult carries the trimmed lines and the corner arc. Arc is nil
// for a zero-radius fillet.
type FilletResult struct {
	Line1 document.Line
	Line2 document.Line
	Arc   *document.Arc
}

// ChamferResult carries the trimmed lines and the bevel segment.
// Segment is nil when both distances are zero.
type ChamferResult struct {
	Line1   document.Line
	Line2   document.Line
	Segment *document.Line
}

// TrimLineAtIntersection shortens target against a cutter shape. The
// clicked portion is removed: the endpoint nearer to click moves to the
// intersection closest to the click. No intersection leaves the line
// untouched and returns ok=false.
func TrimLineAtIntersection(target document.Line, cutter document.Shape, click geometry.Point) (document.Line, bool) {
	hits := intersectInfiniteLine(target, cutter.Geometry)
	if len(hits) == 0 {
		return document.Line{}, false
	}

	best := hits[0]
	for _, h := range hits[1:] {
		if click.Distance(h) < click.Distance(best) {
			best = h
		}
	}

	if click.Distance(target.Start) <= click.Distance(target.End) {
		target.Start = best
	} else {
		target.End = best
	}
	return target, true
}

// ExtendLineToBoundary lengthens whichever endpoint of target is nearer
// the boundary so it meets the boundary's intersection with the line's
// infinite extension. Parallel or non-intersecting input returns
// ok=false.
func ExtendLineToBoundary(target document.Line, boundary document.Shape) (document.Line, bool) {
	dir := target.End.Sub(target.Start)
	l2 := dir.Dot(dir)
	if l2 < geometry.Epsilon {
		return document.Line{}, false
	}

	hits := intersectInfiniteLine(target, boundary.Geometry)

	// Keep only intersections beyond the current segment and pick the
	// one nearest to it.
	bestGap := math.Inf(1)
	var best geometry.Point
	var bestT float64
	found := false
	for _, h := range hits {
		t := h.Sub(target.Start).Dot(dir) / l2
		var gap float64
		switch {
		case t > 1:
			gap = t - 1
		case t < 0:
			gap = -t
		default:
			continue
		}
		if gap < bestGap {
			bestGap, best, bestT, found = gap, h, t, true
		}
	}
	if !found {
		return document.Line{}, false
	}

	if bestT > 1 {
		target.End = best
	} else {
		target.Start = best
	}
	return target, true
}

// FilletLines rounds the corner between two lines with an arc of the
// given radius tangent to both, trimming each line to its tangent
// point. Radius zero degenerates to trimming both lines to their
// intersection with no arc. Parallel lines return ok=false.
func FilletLines(l1, l2 document.Line, radius float64) (FilletResult, bool) {
	p, ok := infiniteLineIntersection(l1.Start, l1.End, l2.Start, l2.End)
	if !ok {
		return FilletResult{}, false
	}

	if radius == 0 {
		return FilletResult{
			Line1: trimNearEndpointTo(l1, p, p),
			Line2: trimNearEndpointTo(l2, p, p),
		}, true
	}

	d1, ok1 := cornerDirection(l1, p)
	d2, ok2 := cornerDirection(l2, p)
	if !ok1 || !ok2 {
		return FilletResult{}, false
	}

	// Half-angle of the corner; degenerate for collinear directions.
	cosTheta := math.Max(-1, math.Min(1, d1.Dot(d2)))
	theta := math.Acos(cosTheta)
	if math.Sin(theta/2) < geometry.Epsilon || math.Tan(theta/2) < geometry.Epsilon {
		return FilletResult{}, false
	}

	tangentDist := radius / math.Tan(theta/2)
	t1 := p.Add(d1.Mul(tangentDist))
	t2 := p.Add(d2.Mul(tangentDist))

	bisector := d1.Add(d2).Normalize()
	center := p.Add(bisector.Mul(radius / math.Sin(theta/2)))

	a1 := t1.Sub(center).Angle()
	a2 := t2.Sub(center).Angle()
	if geometry.NormalizeAngle(a2-a1) > math.Pi {
		a1, a2 = a2, a1
	}

	arc := &document.Arc{
		Center:     center,
		Radius:     radius,
		StartAngle: a1,
		EndAngle:   a2,
	}

	return FilletResult{
		Line1: trimNearEndpointTo(l1, p, t1),
		Line2: trimNearEndpointTo(l2, p, t2),
		Arc:   arc,
	}, true
}

// ChamferLines bevels the corner between two lines with a straight
// segment whose ends lie dist1 along line1 and dist2 along line2 from
// their intersection. Both distances zero degenerate to a plain trim
// with no segment. Parallel lines return ok=false.
func ChamferLines(l1, l2 document.Line, dist1, dist2 float64) (ChamferResult, bool) {
	p, ok := infiniteLineIntersection(l1.Start, l1.End, l2.Start, l2.End)
	if !ok {
		return ChamferResult{}, false
	}

	if dist1 == 0 && dist2 == 0 {
		return ChamferResult{
			Line1: trimNearEndpointTo(l1, p, p),
			Line2: trimNearEndpointTo(l2, p, p),
		}, true
	}

	d1, ok1 := cornerDirection(l1, p)
	d2, ok2 := cornerDirection(l2, p)
	if !ok1 || !ok2 {
		return ChamferResult{}, false
	}

	q1 := p.Add(d1.Mul(dist1))
	q2 := p.Add(d2.Mul(dist2))

	return ChamferResult{
		Line1:   trimNearEndpointTo(l1, p, q1),
		Line2:   trimNearEndpointTo(l2, p, q2),
		Segment: &document.Line{Start: q1, End: q2},
	}, true
}

// OffsetShape returns a new shape congruent to the input, displaced
// perpendicular to its local geometry by distance, on the side of the
// reference point. Variants with no offset meaning return ok=false.
func OffsetShape(s document.Shape, distance float64, ref geometry.Point) (document.Shape, bool) {
	switch v := s.Geometry.(type) {
	case document.Line:
		dir := v.End.Sub(v.Start)
		if dir.Length() < geometry.Epsilon {
			return document.Shape{}, false
		}
		dir = dir.Normalize()
		normal := dir.Perp()
		if dir.Cross(ref.Sub(v.Start)) < 0 {
			normal = normal.Mul(-1)
		}
		shift := normal.Mul(distance)
		s.Geometry = document.Line{Start: v.Start.Add(shift), End: v.End.Add(shift)}
		return s, true

	case document.Circle:
		r, ok := offsetRadius(v.Radius, distance, ref.Distance(v.Center) > v.Radius)
		if !ok {
			return document.Shape{}, false
		}
		s.Geometry = document.Circle{Center: v.Center, Radius: r}
		return s, true

	case document.Arc:
		r, ok := offsetRadius(v.Radius, distance, ref.Distance(v.Center) > v.Radius)
		if !ok {
			return document.Shape{}, false
		}
		v.Radius = r
		s.Geometry = v
		return s, true

	case document.Rectangle:
		d := distance
		if geometry.Box(v.TopLeft.X, v.TopLeft.Y, v.TopLeft.X+v.Width, v.TopLeft.Y+v.Height).Contains(ref) {
			d = -d
		}
		w := v.Width + 2*d
		h := v.Height + 2*d
		if w < geometry.Epsilon || h < geometry.Epsilon {
			return document.Shape{}, false
		}
		s.Geometry = document.Rectangle{
			TopLeft: v.TopLeft.Sub(geometry.Pt(d, d)),
			Width:   w,
			Height:  h,
		}
		return s, true

	case document.Ellipse:
		d := distance
		if ellipseContains(v, ref) {
			d = -d
		}
		rx := v.RadiusX + d
		ry := v.RadiusY + d
		if rx < geometry.Epsilon || ry < geometry.Epsilon {
			return document.Shape{}, false
		}
		v.RadiusX, v.RadiusY = rx, ry
		s.Geometry = v
		return s, true

	case document.Polyline:
		out, ok := offsetPolyline(v, distance, ref)
		if !ok {
			return document.Shape{}, false
		}
		s.Geometry = out
		return s, true

	default:
		return document.Shape{}, false
	}
}

func offsetRadius(radius, distance float64, outward bool) (float64, bool) {
	r := radius - distance
	if outward {
		r = radius + distance
	}
	if r < geometry.Epsilon {
		return 0, false
	}
	return r, true
}

func ellipseContains(e document.Ellipse, p geometry.Point) bool {
	if e.RadiusX < geometry.Epsilon || e.RadiusY < geometry.Epsilon {
		return false
	}
	local := p.Sub(e.Center).Rotate(-e.Rotation)
	nx := local.X / e.RadiusX
	ny := local.Y / e.RadiusY
	return nx*nx+ny*ny <= 1
}

// offsetPolyline displaces every vertex along the miter of its adjacent
// segment normals. Bulges carry over unchanged: the similarity of each
// displaced segment to its source keeps the encoded sweep.
func offsetPolyline(pl document.Polyline, distance float64, ref geometry.Point) (document.Polyline, bool) {
	n := len(pl.Points)
	if n < 2 {
		return document.Polyline{}, false
	}

	// Side from the segment nearest to the reference point.
	side := polylineSide(pl, ref)
	d := distance * side

	segNormal := func(i int) (geometry.Point, bool) {
		a := pl.Points[i]
		b := pl.Points[(i+1)%n]
		dir := b.Sub(a)
		if dir.Length() < geometry.Epsilon {
			return geometry.Point{}, false
		}
		return dir.Normalize().Perp(), true
	}

	segCount := n - 1
	if pl.Closed {
		segCount = n
	}

	out := document.CloneGeometry(pl).(document.Polyline)
	for i := 0; i < n; i++ {
		var prev, next geometry.Point
		havePrev, haveNext := false, false

		if i > 0 || pl.Closed {
			idx := i - 1
			if idx < 0 {
				idx = segCount - 1
			}
			prev, havePrev = segNormal(idx)
		}
		if i < segCount {
			next, haveNext = segNormal(i)
		}

		var shift geometry.Point
		switch {
		case havePrev && haveNext:
			avg := prev.Add(next).Normalize()
			cosHalf := avg.Dot(next)
			if math.Abs(cosHalf) < geometry.Epsilon {
				return document.Polyline{}, false
			}
			shift = avg.Mul(d / cosHalf)
		case haveNext:
			shift = next.Mul(d)
		case havePrev:
			shift = prev.Mul(d)
		default:
			return document.Polyline{}, false
		}

		out.Points[i] = pl.Points[i].Add(shift)
	}

	return out, true
}

// polylineSide returns +1 when ref lies on the left of the nearest
// segment, -1 on the right.
func polylineSide(pl document.Polyline, ref geometry.Point) float64 {
	n := len(pl.Points)
	segCount := n - 1
	if pl.Closed {
		segCount = n
	}

	best := math.Inf(1)
	side := 1.0
	for i := 0; i < segCount; i++ {
		a := pl.Points[i]
		b := pl.Points[(i+1)%n]
		dir := b.Sub(a)
		l2 := dir.Dot(dir)
		if l2 < geometry.Epsilon {
			continue
		}
		t := math.Max(0, math.Min(1, ref.Sub(a).Dot(dir)/l2))
		dist := ref.Distance(a.Add(dir.Mul(t)))
		if dist < best {
			best = dist
			if dir.Cross(ref.Sub(a)) < 0 {
				side = -1
			} else {
				side = 1
			}
		}
	}
	return side
}

// cornerDirection is the unit vector from the corner point toward the
// body of the line (its farther endpoint).
func cornerDirection(l document.Line, corner geometry.Point) (geometry.Point, bool) {
	far := l.Start
	if corner.Distance(l.End) > corner.Distance(l.Start) {
		far = l.End
	}
	dir := far.Sub(corner)
	if dir.Length() < geometry.Epsilon {
		return geometry.Point{}, false
	}
	return dir.Normalize(), true
}

// trimNearEndpointTo replaces the endpoint of l nearest to corner with
// target.
func trimNearEndpointTo(l document.Line, corner, target geometry.Point) document.Line {
	if corner.Distance(l.Start) <= corner.Distance(l.End) {
		l.Start = target
	} else {
		l.End = target
	}
	return l
}

// infiniteLineIntersection intersects the infinite lines through
// (a1,a2) and (b1,b2). A cross product below tolerance means parallel
// input; the division never runs on a near-zero denominator.
func infiniteLineIntersection(a1, a2, b1, b2 geometry.Point) (geometry.Point, bool) {
	da := a2.Sub(a1)
	db := b2.Sub(b1)
	denom := da.Cross(db)
	if math.Abs(denom) < geometry.Epsilon {
		return geometry.Point{}, false
	}
	t := b1.Sub(a1).Cross(db) / denom
	return a1.Add(da.Mul(t)), true
}

// intersectInfiniteLine intersects the infinite extension of target
// with the finite extent of the cutter geometry. Unsupported cutter
// variants yield no intersections.
func intersectInfiniteLine(target document.Line, cutter document.Geometry) []geometry.Point {
	switch v := cutter.(type) {
	case document.Line:
		return intersectLineSegment(target, v.Start, v.End)

	case document.Rectangle:
		tl := v.TopLeft
		tr := tl.Add(geometry.Pt(v.Width, 0))
		br := tl.Add(geometry.Pt(v.Width, v.Height))
		bl := tl.Add(geometry.Pt(0, v.Height))
		var hits []geometry.Point
		hits = append(hits, intersectLineSegment(target, tl, tr)...)
		hits = append(hits, intersectLineSegment(target, tr, br)...)
		hits = append(hits, intersectLineSegment(target, br, bl)...)
		hits = append(hits, intersectLineSegment(target, bl, tl)...)
		return hits

	case document.Circle:
		return intersectLineCircle(target, v.Center, v.Radius, nil)

	case document.Arc:
		arc := v
		return intersectLineCircle(target, v.Center, v.Radius, func(p geometry.Point) bool {
			return angleOnArc(arc, p.Sub(arc.Center).Angle())
		})

	case document.Ellipse:
		return intersectLineEllipse(target, v)

	case document.Polyline:
		n := len(v.Points)
		if n < 2 {
			return nil
		}
		segCount := n - 1
		if v.Closed {
			segCount = n
		}
		var hits []geometry.Point
		for i := 0; i < segCount; i++ {
			hits = append(hits, intersectLineSegment(target, v.Points[i], v.Points[(i+1)%n])...)
		}
		return hits

	default:
		return nil
	}
}

func intersectLineSegment(target document.Line, s1, s2 geometry.Point) []geometry.Point {
	p, ok := infiniteLineIntersection(target.Start, target.End, s1, s2)
	if !ok {
		return nil
	}
	seg := s2.Sub(s1)
	l2 := seg.Dot(seg)
	if l2 < geometry.Epsilon {
		return nil
	}
	u := p.Sub(s1).Dot(seg) / l2
	const slack = 1e-9
	if u < -slack || u > 1+slack {
		return nil
	}
	return []geometry.Point{p}
}

func intersectLineCircle(target document.Line, center geometry.Point, radius float64, accept func(geometry.Point) bool) []geometry.Point {
	dir := target.End.Sub(target.Start)
	l := dir.Length()
	if l < geometry.Epsilon {
		return nil
	}
	dir = dir.Mul(1 / l)

	// Project the center onto the infinite line.
	toCenter := center.Sub(target.Start)
	proj := toCenter.Dot(dir)
	closest := target.Start.Add(dir.Mul(proj))
	distSq := radius*radius - center.Distance(closest)*center.Distance(closest)
	if distSq < 0 {
		return nil
	}

	half := math.Sqrt(distSq)
	candidates := []geometry.Point{
		closest.Add(dir.Mul(half)),
		closest.Sub(dir.Mul(half)),
	}
	if half < geometry.Epsilon {
		candidates = candidates[:1] // tangent
	}

	var hits []geometry.Point
	for _, c := range candidates {
		if accept == nil || accept(c) {
			hits = append(hits, c)
		}
	}
	return hits
}

func intersectLineEllipse(target document.Line, e document.Ellipse) []geometry.Point {
	if e.RadiusX < geometry.Epsilon || e.RadiusY < geometry.Epsilon {
		return nil
	}

	// Map into the space where the ellipse is a unit circle, solve
	// there, and map the parameters back onto the original line.
	toLocal := func(p geometry.Point) geometry.Point {
		local := p.Sub(e.Center).Rotate(-e.Rotation)
		return geometry.Pt(local.X/e.RadiusX, local.Y/e.RadiusY)
	}

	a := toLocal(target.Start)
	b := toLocal(target.End)
	d := b.Sub(a)
	dd := d.Dot(d)
	if dd < geometry.Epsilon {
		return nil
	}

	// |a + t·d|² = 1
	bcoef := 2 * a.Dot(d)
	ccoef := a.Dot(a) - 1
	disc := bcoef*bcoef - 4*dd*ccoef
	if disc < 0 {
		return nil
	}

	sqrtDisc := math.Sqrt(disc)
	ts := []float64{(-bcoef + sqrtDisc) / (2 * dd)}
	if sqrtDisc > geometry.Epsilon {
		ts = append(ts, (-bcoef-sqrtDisc)/(2*dd))
	}

	worldDir := target.End.Sub(target.Start)
	hits := make([]geometry.Point, 0, len(ts))
	for _, t := range ts {
		hits = append(hits, target.Start.Add(worldDir.Mul(t)))
	}
	return hits
}

// angleOnArc reports whether the angle lies within the arc's
// counter-clockwise sweep from StartAngle to EndAngle.
func angleOnArc(a document.Arc, angle float64) bool {
	sweep := geometry.NormalizeAngle(a.EndAngle - a.StartAngle)
	if sweep == 0 {
		sweep = 2 * math.Pi
	}
	return geometry.NormalizeAngle(angle-a.StartAngle) <= sweep+geometry.Epsilon
}
