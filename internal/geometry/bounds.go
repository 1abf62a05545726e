package geometry

// BoundingBox is an axis-aligned bounding box.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Box constructs a bounding box, normalizing flipped corners.
func Box(x0, y0, x1, y1 float64) BoundingBox {
	return BoundingBox{
		MinX: min(x0, x1),
		MinY: min(y0, y1),
		MaxX: max(x0, x1),
		MaxY: max(y0, y1),
	}
}

// BoxFromPoints returns the bounding box of a point set. An empty set
// yields the zero box.
func BoxFromPoints(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b = b.ExpandPoint(p)
	}
	return b
}

// IsZero reports whether the box is the zero value.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Width returns the horizontal extent.
func (b BoundingBox) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent.
func (b BoundingBox) Height() float64 {
	return b.MaxY - b.MinY
}

// Center returns the center point of the box.
func (b BoundingBox) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Intersects reports whether two boxes overlap (touching counts).
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX &&
		b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

// Union returns the smallest box containing both.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// ExpandPoint grows the box to include the point.
func (b BoundingBox) ExpandPoint(p Point) BoundingBox {
	return BoundingBox{
		MinX: min(b.MinX, p.X),
		MinY: min(b.MinY, p.Y),
		MaxX: max(b.MaxX, p.X),
		MaxY: max(b.MaxY, p.Y),
	}
}

// Inflate grows the box by d on every side (negative shrinks).
func (b BoundingBox) Inflate(d float64) BoundingBox {
	return BoundingBox{
		MinX: b.MinX - d,
		MinY: b.MinY - d,
		MaxX: b.MaxX + d,
		MaxY: b.MaxY + d,
	}
}
