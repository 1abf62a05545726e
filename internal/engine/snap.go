package engine

import (
	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// SnapKind identifies a precision-input snap category.
type SnapKind string

const (
	SnapEndpoint     SnapKind = "endpoint"
	SnapMidpoint     SnapKind = "midpoint"
	SnapCenter       SnapKind = "center"
	SnapQuadrant     SnapKind = "quadrant"
	SnapIntersection SnapKind = "intersection"
	SnapGrid         SnapKind = "grid"
)

// SnapPoint is a resolved precision-input target.
type SnapPoint struct {
	Point   geometry.Point `json:"point"`
	Kind    SnapKind       `json:"kind"`
	ShapeID string         `json:"shapeId,omitempty"`
}

// TrackingLine is an alignment guide anchored at Origin along a unit
// Direction.
type TrackingLine struct {
	Origin    geometry.Point `json:"origin"`
	Direction geometry.Point `json:"direction"`
	Kind      string         `json:"kind"`
}

// DefaultGridSize is the grid spacing used when a caller enables grid
// snapping without configuring one.
const DefaultGridSize = 10.0

// DefaultSnapKinds enables the geometric snaps. Grid snapping stays
// opt-in: with it on, every free cursor position near a grid point
// would capture.
func DefaultSnapKinds() map[SnapKind]bool {
	return map[SnapKind]bool{
		SnapEndpoint:     true,
		SnapMidpoint:     true,
		SnapCenter:       true,
		SnapQuadrant:     true,
		SnapIntersection: true,
	}
}

// SnapResolver is the consumed precision-input interface. The kernel
// calls it during drags and tool clicks; it never implements the
// underlying geometric search itself.
type SnapResolver interface {
	// FindNearestSnapPoint resolves the snap target closest to p among
	// the candidate shapes, restricted to the active kinds and the
	// world-space tolerance. ok=false means the raw point stands.
	FindNearestSnapPoint(p geometry.Point, candidates []document.Shape, kinds map[SnapKind]bool, worldTol, gridSize float64) (SnapPoint, bool)

	// TrackingLines produces ortho/polar alignment guides from a base
	// point for the current cursor position.
	TrackingLines(base, cursor geometry.Point) []TrackingLine
}
