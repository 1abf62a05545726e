package engine

import (
	"math"
	"reflect"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// GripPhase tracks the drag state machine.
type GripPhase int

const (
	GripIdle GripPhase = iota
	GripArmed
	GripDragging
)

// AxisLock is the constraint chosen by clicking an axis arrow.
type AxisLock int

const (
	AxisFree AxisLock = iota
	AxisLockX
	AxisLockY
)

// GripDragState carries everything needed to preview, commit, or cancel
// one grip drag. Snapshot holds the geometry as it was before arming,
// before any circle promotion, so cancel and undo both restore it.
type GripDragState struct {
	ShapeID   string
	GripIndex int
	Origin    geometry.Point
	Snapshot  document.Geometry
	Axis      AxisLock
	AxisMode  AxisMode
}

// GripEditor runs grip-based direct editing for one selected shape at a
// time. It mutates the store directly while dragging and funnels the
// final result through ApplyBatch so the whole drag is one undo step.
type GripEditor struct {
	store    ShapeStore
	viewport *Viewport

	snap      SnapResolver
	snapKinds map[SnapKind]bool
	gridSize  float64

	phase    GripPhase
	drag     *GripDragState
	snapHit  *SnapPoint
	tracking []TrackingLine
}

func NewGripEditor(store ShapeStore, vp *Viewport) *GripEditor {
	return &GripEditor{store: store, viewport: vp}
}

// SetSnapResolver enables precision input for drags: the cursor is
// resolved through the snapper before any axis constraint applies.
func (e *GripEditor) SetSnapResolver(r SnapResolver, kinds map[SnapKind]bool, gridSize float64) {
	e.snap = r
	e.snapKinds = kinds
	e.gridSize = gridSize
}

func (e *GripEditor) Phase() GripPhase { return e.phase }

// Drag exposes the active drag for rendering previews. Nil when idle.
func (e *GripEditor) Drag() *GripDragState { return e.drag }

// SnapHit reports the snap point the cursor last resolved to, or nil.
func (e *GripEditor) SnapHit() *SnapPoint { return e.snapHit }

// TrackingLines returns the alignment guides for the drag in flight.
func (e *GripEditor) TrackingLines() []TrackingLine { return e.tracking }

// PointerDown arms a grip when the click lands on one. Axis arrows are
// tested before the grip square so a click in the overlap region picks
// the constraint. Returns true when the event was consumed.
func (e *GripEditor) PointerDown(shapeID string, world geometry.Point) bool {
	if e.phase != GripIdle {
		return false
	}
	shape, ok := e.store.Shape(shapeID)
	if !ok || shape.Locked {
		return false
	}

	grips := GripPoints(shape)
	tol := e.viewport.WorldTolerance(GripSizePx)
	arrowLen := e.viewport.WorldTolerance(AxisArrowLengthPx)

	for i, g := range grips {
		if lock, hit := hitAxisArrow(g, world, arrowLen, tol); hit {
			e.arm(shape, i, g, lock)
			return true
		}
	}
	for i, g := range grips {
		if world.Distance(g.Point) <= tol {
			e.arm(shape, i, g, AxisFree)
			return true
		}
	}
	return false
}

func (e *GripEditor) arm(shape document.Shape, index int, g Grip, lock AxisLock) {
	snapshot := document.CloneGeometry(shape.Geometry)

	// A cardinal drag on a circle edits the ellipse form of the same
	// shape. The snapshot stays the circle, so backing out restores it.
	if c, isCircle := shape.Geometry.(document.Circle); isCircle && index > 0 {
		e.store.UpdateShapes(map[string]document.Geometry{
			shape.ID: PromoteCircleToEllipse(c),
		})
	}

	e.drag = &GripDragState{
		ShapeID:   shape.ID,
		GripIndex: index,
		Origin:    g.Point,
		Snapshot:  snapshot,
		Axis:      lock,
		AxisMode:  g.Axis,
	}
	e.phase = GripArmed
}

// PointerMove previews the drag by writing through UpdateShapes, which
// bypasses history. Snap resolution runs before the axis constraint so
// a locked axis still slides along snapped coordinates.
func (e *GripEditor) PointerMove(world geometry.Point) {
	if e.phase == GripIdle || e.drag == nil {
		return
	}
	e.phase = GripDragging

	shape, ok := e.store.Shape(e.drag.ShapeID)
	if !ok {
		e.reset()
		return
	}

	if e.snap != nil {
		e.tracking = e.snap.TrackingLines(e.drag.Origin, world)
	}
	target := e.constrain(e.resolveSnap(world))
	if geom, ok := ComputeGripUpdates(shape, e.drag.GripIndex, target); ok {
		e.store.UpdateShapes(map[string]document.Geometry{shape.ID: geom})
	}
}

// PointerUp commits the drag: the live geometry is captured, the
// snapshot restored without history, and the final geometry re-applied
// through ApplyBatch to record exactly one undo entry.
func (e *GripEditor) PointerUp(world geometry.Point) {
	if e.phase == GripIdle || e.drag == nil {
		return
	}
	drag := e.drag

	// A click released without movement edits nothing: put the pre-arm
	// geometry back (reverting any circle promotion) and record no
	// history entry.
	if e.phase == GripArmed {
		e.store.UpdateShapes(map[string]document.Geometry{drag.ShapeID: drag.Snapshot})
		e.reset()
		return
	}

	shape, ok := e.store.Shape(drag.ShapeID)
	if !ok {
		e.reset()
		return
	}

	target := e.constrain(e.resolveSnap(world))
	final, ok := ComputeGripUpdates(shape, drag.GripIndex, target)
	if !ok {
		final = document.CloneGeometry(shape.Geometry)
	}

	e.store.UpdateShapes(map[string]document.Geometry{drag.ShapeID: drag.Snapshot})
	if reflect.DeepEqual(final, drag.Snapshot) {
		e.reset()
		return
	}
	e.store.ApplyBatch(Batch{Update: map[string]document.Geometry{drag.ShapeID: final}})
	e.reset()
}

// Cancel abandons the drag and restores the pre-drag geometry without
// touching history.
func (e *GripEditor) Cancel() {
	if e.drag != nil {
		e.store.UpdateShapes(map[string]document.Geometry{
			e.drag.ShapeID: e.drag.Snapshot,
		})
	}
	e.reset()
}

func (e *GripEditor) reset() {
	e.phase = GripIdle
	e.drag = nil
	e.snapHit = nil
	e.tracking = nil
}

// resolveSnap runs the cursor through the snap resolver against the
// shapes near it, skipping the shape being dragged so it cannot snap
// to itself.
func (e *GripEditor) resolveSnap(world geometry.Point) geometry.Point {
	if e.snap == nil {
		return world
	}
	tol := e.viewport.WorldTolerance(SnapTolerancePx)
	probe := geometry.Box(world.X-tol, world.Y-tol, world.X+tol, world.Y+tol)

	var candidates []document.Shape
	for _, s := range e.store.Query(probe) {
		if s.ID == e.drag.ShapeID {
			continue
		}
		candidates = append(candidates, s)
	}

	if sp, ok := e.snap.FindNearestSnapPoint(world, candidates, e.snapKinds, tol, e.gridSize); ok {
		e.snapHit = &sp
		return sp.Point
	}
	e.snapHit = nil
	return world
}

// constrain applies the drag's axis lock relative to the grip origin.
// Grips that forbid constraints ignore any lock.
func (e *GripEditor) constrain(world geometry.Point) geometry.Point {
	d := e.drag
	if d.AxisMode == AxisNone {
		return world
	}
	lock := d.Axis
	if d.AxisMode == AxisXOnly {
		lock = AxisLockX
	}
	switch lock {
	case AxisLockX:
		return geometry.Pt(world.X, d.Origin.Y)
	case AxisLockY:
		return geometry.Pt(d.Origin.X, world.Y)
	default:
		return world
	}
}

// hitAxisArrow tests the two constraint arrows that extend from a grip.
// The arrows scale with the viewport like the grip squares do.
func hitAxisArrow(g Grip, world geometry.Point, arrowLen, tol float64) (AxisLock, bool) {
	if g.Axis == AxisNone {
		return AxisFree, false
	}
	d := world.Sub(g.Point)
	if d.X > tol && d.X <= arrowLen && math.Abs(d.Y) <= tol {
		return AxisLockX, true
	}
	if g.Axis == AxisXOnly {
		return AxisFree, false
	}
	if d.Y > tol && d.Y <= arrowLen && math.Abs(d.X) <= tol {
		return AxisLockY, true
	}
	return AxisFree, false
}
