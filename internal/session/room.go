package session

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/engine"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
	"github.com/draftkit/draftkit/backend-go/internal/snap"
	"github.com/draftkit/draftkit/backend-go/internal/store"
	"github.com/draftkit/draftkit/backend-go/internal/typeid"
)

// Room is one open drawing: the shared store plus an editor per
// connected client. Edits run under the room lock, so the kernel only
// ever sees one mutation at a time.
type Room struct {
	drawingID string

	mu      sync.Mutex
	store   *store.Store
	editors map[string]*engine.Editor

	clients  map[string]*Client
	presence map[string]*PresencePayload
	dirty    bool
}

func NewRoom(drawingID string, doc *document.DraftDocument) *Room {
	r := &Room{
		drawingID: drawingID,
		store:     store.New(doc),
		editors:   make(map[string]*engine.Editor),
		clients:   make(map[string]*Client),
		presence:  make(map[string]*PresencePayload),
	}
	r.store.Subscribe(r.onChange)
	return r
}

// editorFor returns the client's editor, creating it on first use.
// Each client keeps its own viewport, selection, and tool state over
// the shared store.
func (r *Room) editorFor(clientID string) *engine.Editor {
	ed, ok := r.editors[clientID]
	if !ok {
		ed = engine.NewEditor(r.store, typeid.NewShapeID)
		ed.SetSnapResolver(snap.New(), engine.DefaultSnapKinds(), engine.DefaultGridSize)
		r.editors[clientID] = ed
	}
	return ed
}

// onChange turns a committed batch into a shapes.change broadcast.
// Updated ids are resolved to whole shapes so clients replace rather
// than patch.
func (r *Room) onChange(batch engine.Batch) {
	payload := ShapesChangePayload{
		Added:   batch.Add,
		Removed: batch.Remove,
	}
	for id := range batch.Update {
		if shape, ok := r.store.Shape(id); ok {
			payload.Updated = append(payload.Updated, shape)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	r.broadcast(&Message{Type: TypeShapesChange, DrawingID: r.drawingID, Payload: data}, "")
	r.dirty = true
}

// broadcast fans a message out to the room. Callers hold r.mu.
func (r *Room) broadcast(msg *Message, excludeClientID string) {
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func (r *Room) presenceState() *Message {
	r.mu.Lock()
	state := make(map[string]*PresencePayload, len(r.presence))
	for k, v := range r.presence {
		state[k] = v
	}
	r.mu.Unlock()
	payload, err := json.Marshal(PresenceStatePayload{Presences: state})
	if err != nil {
		return nil
	}
	return &Message{Type: TypePresenceState, Payload: payload}
}

// Editing entry points. All take the room lock: pointer streams, tool
// clicks, and undo alike mutate shared kernel state.

func (r *Room) pointerDown(clientID string, p PointerPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed := r.editorFor(clientID)
	before := ed.Selection()
	ed.PointerDown(pt(p))
	if !slices.Equal(before, ed.Selection()) {
		r.broadcastSelection(clientID, ed)
	}
}

func (r *Room) pointerMove(clientID string, p PointerPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed := r.editorFor(clientID)
	ed.PointerMove(pt(p))

	// While a tool is armed or a grip drag is live, everyone sees the
	// geometry the pointer owner is about to commit.
	if ed.Tools().Active() == engine.ToolNone && ed.Grips().Phase() == engine.GripIdle {
		return
	}
	world := ed.Viewport().ScreenToWorld(pt(p))
	payload := ToolPreviewPayload{
		Shapes:   ed.Tools().Preview(world),
		Tracking: ed.Grips().TrackingLines(),
	}
	// Grip edits preview through history-free store writes, which do
	// not notify subscribers; ship the live shape alongside.
	if drag := ed.Grips().Drag(); drag != nil {
		if s, ok := r.store.Shape(drag.ShapeID); ok {
			payload.Shapes = append(payload.Shapes, s)
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	r.broadcast(&Message{Type: TypeToolPreview, DrawingID: r.drawingID, ClientID: clientID, Payload: data}, "")
}

func (r *Room) pointerUp(clientID string, p PointerPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editorFor(clientID).PointerUp(pt(p))
}

func (r *Room) setViewport(clientID string, v ViewportPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vp := r.editorFor(clientID).Viewport()
	if v.Zoom > 0 {
		vp.Zoom = v.Zoom
	}
	vp.PanX = v.PanX
	vp.PanY = v.PanY
}

func (r *Room) setSelection(clientID string, ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed := r.editorFor(clientID)
	ed.Select(ids...)
	r.broadcastSelection(clientID, ed)
}

// broadcastSelection announces one client's selection so peers can
// render it. Callers hold r.mu.
func (r *Room) broadcastSelection(clientID string, ed *engine.Editor) {
	data, err := json.Marshal(SelectionPayload{IDs: ed.Selection()})
	if err != nil {
		return
	}
	r.broadcast(&Message{Type: TypeSelectionState, DrawingID: r.drawingID, ClientID: clientID, Payload: data}, "")
}

func (r *Room) startTool(clientID string, p ToolStartPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed := r.editorFor(clientID)
	selection := p.Selection
	if len(selection) == 0 {
		selection = ed.Selection()
	}
	ed.Tools().Start(p.Tool, selection, p.Options)
}

func (r *Room) resetTool(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editorFor(clientID).Tools().Reset()
}

func (r *Room) escape(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editorFor(clientID).Escape()
}

func (r *Room) undo(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.editorFor(clientID).Undo()
}

func (r *Room) redo(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.editorFor(clientID).Redo()
}

// snapshotIfDirty returns the document for saving and clears the dirty
// flag, or nil when nothing changed since the last save.
func (r *Room) snapshotIfDirty() *document.DraftDocument {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return nil
	}
	r.dirty = false
	return r.store.Document()
}

func pt(p PointerPayload) geometry.Point { return geometry.Pt(p.X, p.Y) }
