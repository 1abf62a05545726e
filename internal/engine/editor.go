package engine

import (
	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// Editor is one user's editing session over a drawing: viewport,
// selection, grip editing, and the modify tools, all sharing a store.
// An Editor is not safe for concurrent use; callers serialize access
// the same way a browser event loop does.
type Editor struct {
	store    ShapeStore
	viewport *Viewport
	grips    *GripEditor
	tools    *ToolController

	selection []string
}

func NewEditor(store ShapeStore, newID func() string) *Editor {
	vp := NewViewport()
	return &Editor{
		store:    store,
		viewport: vp,
		grips:    NewGripEditor(store, vp),
		tools:    NewToolController(store, newID),
	}
}

// SetSnapResolver wires precision input into grip editing.
func (e *Editor) SetSnapResolver(r SnapResolver, kinds map[SnapKind]bool, gridSize float64) {
	e.grips.SetSnapResolver(r, kinds, gridSize)
}

func (e *Editor) Viewport() *Viewport     { return e.viewport }
func (e *Editor) Grips() *GripEditor      { return e.grips }
func (e *Editor) Tools() *ToolController  { return e.tools }
func (e *Editor) Selection() []string     { return append([]string(nil), e.selection...) }
func (e *Editor) Select(ids ...string) { e.selection = append([]string(nil), ids...) }
func (e *Editor) ClearSelection()      { e.selection = nil }

// HitTest finds the shape under a world point, preferring the most
// recently returned candidate so overlapping shapes resolve stably.
// The candidate set comes from the spatial index; the precise test
// runs per geometry.
func (e *Editor) HitTest(world geometry.Point) (document.Shape, bool) {
	tol := e.viewport.WorldTolerance(PickTolerancePx)
	probe := geometry.Box(world.X-tol, world.Y-tol, world.X+tol, world.Y+tol)

	var hit document.Shape
	var found bool
	for _, s := range e.store.Query(probe) {
		if HitTestShape(s, world, tol) {
			hit = s
			found = true
		}
	}
	return hit, found
}

// PointerDown routes a screen-space press: an active tool consumes the
// click first, then the grips of the current selection, then plain
// selection picking.
func (e *Editor) PointerDown(screen geometry.Point) {
	world := e.viewport.ScreenToWorld(screen)

	if e.tools.Active() != ToolNone {
		var id string
		if s, ok := e.HitTest(world); ok {
			id = s.ID
		}
		e.tools.Click(world, id)
		return
	}

	for _, id := range e.selection {
		if e.grips.PointerDown(id, world) {
			return
		}
	}

	if s, ok := e.HitTest(world); ok {
		e.selection = []string{s.ID}
	} else {
		e.selection = nil
	}
}

func (e *Editor) PointerMove(screen geometry.Point) {
	e.grips.PointerMove(e.viewport.ScreenToWorld(screen))
}

func (e *Editor) PointerUp(screen geometry.Point) {
	e.grips.PointerUp(e.viewport.ScreenToWorld(screen))
}

// Escape cancels in priority order: an in-flight grip drag, then the
// armed tool, then the selection.
func (e *Editor) Escape() {
	switch {
	case e.grips.Phase() != GripIdle:
		e.grips.Cancel()
	case e.tools.Active() != ToolNone:
		e.tools.Reset()
	default:
		e.selection = nil
	}
}

func (e *Editor) Undo() bool { return e.store.Undo() }
func (e *Editor) Redo() bool { return e.store.Redo() }
