package engine

import (
	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// Batch groups mutations that commit as one undoable operation.
type Batch struct {
	Add    []document.Shape
	Update map[string]document.Geometry
	Remove []string
}

// IsEmpty reports whether the batch carries no mutation.
func (b Batch) IsEmpty() bool {
	return len(b.Add) == 0 && len(b.Update) == 0 && len(b.Remove) == 0
}

// ShapeStore is the document access the kernel operates through. The
// kernel never owns persistent storage; the store maintains the
// document, the spatial index and the undo history.
type ShapeStore interface {
	// Shape returns a deep copy of a shape by id.
	Shape(id string) (document.Shape, bool)

	// Query returns the shapes whose bounds intersect the region.
	Query(bounds geometry.BoundingBox) []document.Shape

	// UpdateShapes writes geometry directly, without recording
	// history. Used for live preview during drags.
	UpdateShapes(updates map[string]document.Geometry)

	// ApplyBatch commits mutations as exactly one undo entry.
	ApplyBatch(b Batch)

	// Undo and Redo step the history; they report whether a step was
	// available.
	Undo() bool
	Redo() bool
}
