package session

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/draftkit/draftkit/backend-go/internal/document"
)

// saveInterval is how often dirty rooms are flushed to storage.
const saveInterval = 30 * time.Second

// DocLoader fetches the latest document of a drawing.
type DocLoader func(drawingID string) (*document.DraftDocument, error)

// DocSaver persists a document snapshot of a drawing.
type DocSaver func(drawingID string, doc *document.DraftDocument) error

// Hub routes clients into per-drawing rooms and periodically saves
// rooms that changed.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}

	loader DocLoader
	saver  DocSaver
}

func NewHub(loader DocLoader, saver DocSaver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		loader:     loader,
		saver:      saver,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.saveDirtyRooms()
		case <-h.stop:
			h.saveDirtyRooms()
			close(h.done)
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Stop flushes every dirty room and waits for the run loop to exit.
func (h *Hub) Stop() {
	close(h.stop)
	<-h.done
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DrawingID]
	if !ok {
		doc, err := h.loader(client.DrawingID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("load drawing", "error", err, "drawing", client.DrawingID)
			client.sendError("drawing unavailable")
			close(client.send)
			return
		}
		room = NewRoom(client.DrawingID, doc)
		h.rooms[client.DrawingID] = room
	}
	room.mu.Lock()
	room.clients[client.ClientID] = client
	room.mu.Unlock()
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID, DrawingID: client.DrawingID})
	client.Send(&Message{Type: TypeWelcome, Payload: welcome})

	docSync, _ := json.Marshal(DocSyncPayload{Document: room.store.Document()})
	client.Send(&Message{Type: TypeDocSync, Payload: docSync})

	if stateMsg := room.presenceState(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.DrawingID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "drawing", client.DrawingID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DrawingID]
	if !ok {
		h.mu.Unlock()
		return
	}

	room.mu.Lock()
	delete(room.clients, client.ClientID)
	delete(room.editors, client.ClientID)
	delete(room.presence, client.UserID)
	empty := len(room.clients) == 0
	room.mu.Unlock()
	close(client.send)

	var lastDoc *document.DraftDocument
	if empty {
		lastDoc = room.snapshotIfDirty()
		delete(h.rooms, client.DrawingID)
	}
	h.mu.Unlock()

	// Empty rooms save on the way out rather than waiting for the
	// ticker.
	if lastDoc != nil {
		if err := h.saver(client.DrawingID, lastDoc); err != nil {
			slog.Error("save drawing", "error", err, "drawing", client.DrawingID)
		}
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
	h.broadcastToRoom(client.DrawingID, &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}, "")

	slog.Info("client left", "user", client.UserID, "drawing", client.DrawingID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.DrawingID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	switch msg.Type {
	case TypePointerDown:
		var p PointerPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			room.pointerDown(sender.ClientID, p)
		}
	case TypePointerMove:
		var p PointerPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			room.pointerMove(sender.ClientID, p)
		}
	case TypePointerUp:
		var p PointerPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			room.pointerUp(sender.ClientID, p)
		}

	case TypeViewportSet:
		var v ViewportPayload
		if json.Unmarshal(msg.Payload, &v) == nil {
			room.setViewport(sender.ClientID, v)
		}

	case TypeSelectionSet:
		var sel SelectionPayload
		if json.Unmarshal(msg.Payload, &sel) == nil {
			room.setSelection(sender.ClientID, sel.IDs)
		}

	case TypeToolStart:
		var p ToolStartPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			sender.sendError("invalid tool options")
			return
		}
		room.startTool(sender.ClientID, p)
	case TypeToolReset:
		room.resetTool(sender.ClientID)

	case TypeEditEscape:
		room.escape(sender.ClientID)
	case TypeEditUndo:
		room.undo(sender.ClientID)
	case TypeEditRedo:
		room.redo(sender.ClientID)

	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, room, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, room *Room, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName

	room.mu.Lock()
	room.presence[sender.UserID] = &presence
	room.mu.Unlock()

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.DrawingID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (h *Hub) broadcastToRoom(drawingID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[drawingID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.mu.Lock()
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	room.mu.Unlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func (h *Hub) saveDirtyRooms() {
	h.mu.RLock()
	type pending struct {
		drawingID string
		doc       *document.DraftDocument
	}
	var toSave []pending
	for id, room := range h.rooms {
		if doc := room.snapshotIfDirty(); doc != nil {
			toSave = append(toSave, pending{drawingID: id, doc: doc})
		}
	}
	h.mu.RUnlock()

	for _, p := range toSave {
		if err := h.saver(p.drawingID, p.doc); err != nil {
			slog.Error("save drawing", "error", err, "drawing", p.drawingID)
		}
	}
}
