package session

import (
	"encoding/json"

	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/engine"
)

// Message is the websocket envelope. Payload shape depends on Type.
type Message struct {
	Type      string          `json:"type"`
	DrawingID string          `json:"drawingId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeDocSync = "doc.sync"
	TypeError   = "error"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Pointer stream (client -> server)
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"

	// Editing commands (client -> server)
	TypeViewportSet  = "viewport.set"
	TypeSelectionSet = "selection.set"
	TypeToolStart    = "tool.start"
	TypeToolReset    = "tool.reset"
	TypeEditEscape   = "edit.escape"
	TypeEditUndo     = "edit.undo"
	TypeEditRedo     = "edit.redo"

	// Document updates (server -> client)
	TypeShapesChange   = "shapes.change"
	TypeSelectionState = "selection.state"
	TypeToolPreview    = "preview"
)

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	DrawingID string `json:"drawingId"`
}

type DocSyncPayload struct {
	Document *document.DraftDocument `json:"document"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ViewportPayload struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

type SelectionPayload struct {
	IDs []string `json:"ids"`
}

type ToolStartPayload struct {
	Tool      engine.ToolKind    `json:"tool"`
	Selection []string           `json:"selection"`
	Options   engine.ToolOptions `json:"options"`
}

// ShapesChangePayload carries committed document changes. Updated
// shapes are sent whole; clients replace by id.
type ShapesChangePayload struct {
	Added   []document.Shape `json:"added,omitempty"`
	Updated []document.Shape `json:"updated,omitempty"`
	Removed []string         `json:"removed,omitempty"`
}

// ToolPreviewPayload carries transient feedback while a client drags
// or aims a tool: the geometry its next click would commit plus any
// alignment guides. Nothing in it is part of the document.
type ToolPreviewPayload struct {
	Shapes   []document.Shape      `json:"shapes,omitempty"`
	Tracking []engine.TrackingLine `json:"tracking,omitempty"`
}

type PresencePayload struct {
	Cursor      *PointerPayload `json:"cursor,omitempty"`
	Selection   []string        `json:"selection,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}
