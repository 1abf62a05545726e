package engine

import "github.com/draftkit/draftkit/backend-go/internal/geometry"

// Pixel sizes of interactive affordances; converted to world distances
// through the current zoom.
const (
	GripSizePx        = 8.0
	AxisArrowLengthPx = 40.0
	PickTolerancePx   = 6.0
	SnapTolerancePx   = 10.0
)

// Viewport maps between world and screen coordinates and converts
// fixed-pixel tolerances into world-space distances.
type Viewport struct {
	Zoom float64
	PanX float64
	PanY float64
}

// NewViewport returns a viewport at 1:1 zoom.
func NewViewport() *Viewport {
	return &Viewport{Zoom: 1}
}

// WorldToScreen maps a world point to screen space.
func (v *Viewport) WorldToScreen(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: p.X*v.Zoom + v.PanX,
		Y: p.Y*v.Zoom + v.PanY,
	}
}

// ScreenToWorld maps a screen point to world space.
func (v *Viewport) ScreenToWorld(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: (p.X - v.PanX) / v.Zoom,
		Y: (p.Y - v.PanY) / v.Zoom,
	}
}

// WorldTolerance converts a pixel distance to world units at the
// current zoom.
func (v *Viewport) WorldTolerance(px float64) float64 {
	if v.Zoom <= 0 {
		return px
	}
	return px / v.Zoom
}
