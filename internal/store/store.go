// Package store keeps a drawing's shapes in memory, mirrors them into
// a spatial index, and records batch edits into undo and redo stacks.
package store

import (
	"sync"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/engine"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// ChangeFunc observes committed batches. Direct preview writes through
// UpdateShapes also notify, with a batch containing only updates.
type ChangeFunc func(engine.Batch)

// Store is the authoritative in-memory state of one open drawing. It
// satisfies engine.ShapeStore.
type Store struct {
	mu sync.RWMutex

	doc   *document.DraftDocument
	index *engine.SpatialIndex

	undo []engine.Batch
	redo []engine.Batch

	listeners []ChangeFunc
}

var _ engine.ShapeStore = (*Store)(nil)

// New wraps a document and indexes every shape it already holds.
func New(doc *document.DraftDocument) *Store {
	s := &Store{
		doc:   doc,
		index: engine.NewSpatialIndex(engine.DefaultCellSize),
	}
	for id, shape := range doc.Shapes {
		s.index.Insert(id, engine.ShapeBounds(shape), nil)
	}
	return s
}

// Subscribe registers a change observer. Observers run synchronously
// on the mutating goroutine after the lock is released.
func (s *Store) Subscribe(fn ChangeFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) Shape(id string) (document.Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shape, ok := s.doc.Shapes[id]
	if !ok {
		return document.Shape{}, false
	}
	return shape.Clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Shapes)
}

// Query returns clones of the shapes whose bounds intersect the box.
func (s *Store) Query(bounds geometry.BoundingBox) []document.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.index.Query(bounds)
	out := make([]document.Shape, 0, len(entries))
	for _, e := range entries {
		if shape, ok := s.doc.Shapes[e.ID]; ok {
			out = append(out, shape.Clone())
		}
	}
	return out
}

// Document returns a deep copy of the current document for
// serialization.
func (s *Store) Document() *document.DraftDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// UpdateShapes writes geometry in place without touching history.
// Grip drags stream previews through here; the final result arrives
// later as a batch.
func (s *Store) UpdateShapes(updates map[string]document.Geometry) {
	if len(updates) == 0 {
		return
	}
	s.mu.Lock()
	applied := make(map[string]document.Geometry, len(updates))
	for id, geom := range updates {
		shape, ok := s.doc.Shapes[id]
		if !ok || geom == nil {
			continue
		}
		shape.Geometry = document.CloneGeometry(geom)
		s.doc.Shapes[id] = shape
		s.index.Update(id, engine.ShapeBounds(shape), nil)
		applied[id] = shape.Geometry
	}
	s.mu.Unlock()

	if len(applied) > 0 {
		s.notify(engine.Batch{Update: applied})
	}
}

// ApplyBatch commits a batch as exactly one undo step. The inverse
// batch is captured against current state before anything mutates.
func (s *Store) ApplyBatch(batch engine.Batch) {
	if batch.IsEmpty() {
		return
	}
	s.mu.Lock()
	inverse := s.inverseOf(batch)
	s.applyLocked(batch)
	s.undo = append(s.undo, inverse)
	s.redo = nil
	s.mu.Unlock()

	s.notify(batch)
}

func (s *Store) Undo() bool {
	return s.pop(&s.undo, &s.redo)
}

func (s *Store) Redo() bool {
	return s.pop(&s.redo, &s.undo)
}

func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo) > 0
}

func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.redo) > 0
}

func (s *Store) pop(from, to *[]engine.Batch) bool {
	s.mu.Lock()
	n := len(*from)
	if n == 0 {
		s.mu.Unlock()
		return false
	}
	batch := (*from)[n-1]
	*from = (*from)[:n-1]
	*to = append(*to, s.inverseOf(batch))
	s.applyLocked(batch)
	s.mu.Unlock()

	s.notify(batch)
	return true
}

// inverseOf builds the batch that undoes the given one against the
// current locked state. Unknown update and remove ids contribute
// nothing, matching applyLocked's skip of them.
func (s *Store) inverseOf(batch engine.Batch) engine.Batch {
	var inv engine.Batch
	for _, shape := range batch.Add {
		inv.Remove = append(inv.Remove, shape.ID)
	}
	if len(batch.Update) > 0 {
		inv.Update = make(map[string]document.Geometry, len(batch.Update))
		for id := range batch.Update {
			if prev, ok := s.doc.Shapes[id]; ok {
				inv.Update[id] = document.CloneGeometry(prev.Geometry)
			}
		}
	}
	for _, id := range batch.Remove {
		if prev, ok := s.doc.Shapes[id]; ok {
			inv.Add = append(inv.Add, prev.Clone())
		}
	}
	return inv
}

func (s *Store) applyLocked(batch engine.Batch) {
	for _, shape := range batch.Add {
		clone := shape.Clone()
		s.doc.Shapes[clone.ID] = clone
		s.index.Insert(clone.ID, engine.ShapeBounds(clone), nil)
	}
	for id, geom := range batch.Update {
		shape, ok := s.doc.Shapes[id]
		if !ok || geom == nil {
			continue
		}
		shape.Geometry = document.CloneGeometry(geom)
		s.doc.Shapes[id] = shape
		s.index.Update(id, engine.ShapeBounds(shape), nil)
	}
	for _, id := range batch.Remove {
		delete(s.doc.Shapes, id)
		s.index.Remove(id)
	}
}

func (s *Store) notify(batch engine.Batch) {
	s.mu.RLock()
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(batch)
	}
}
