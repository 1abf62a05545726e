// Package drawing manages drawing records and their persisted document
// snapshots.
package drawing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/draftkit/draftkit/backend-go/internal/db"
	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("drawing not found")
	ErrForbidden = errors.New("forbidden")
)

// snapshotsToKeep bounds per-drawing version history in the database.
const snapshotsToKeep = 50

type Service struct {
	queries *db.Queries
}

func NewService(queries *db.Queries) *Service {
	return &Service{queries: queries}
}

type Drawing struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	OwnerID   string  `json:"ownerId"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// Create inserts the drawing record and seeds version 1 with an empty
// document so a session can always load something.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Drawing, error) {
	drawingID := typeid.NewDrawingID()

	dbDrawing, err := s.queries.CreateDrawing(ctx, db.CreateDrawingParams{
		ID:      drawingID,
		Name:    name,
		OwnerID: ownerID,
		Width:   420,
		Height:  297,
	})
	if err != nil {
		return nil, fmt.Errorf("create drawing: %w", err)
	}

	emptyDoc := document.NewEmptyDocument(drawingID, name, typeid.NewLayerID())
	docJSON, err := json.Marshal(emptyDoc)
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}

	_, err = s.queries.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		DrawingID: drawingID,
		Version:   1,
		Document:  docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbDrawingToDrawing(dbDrawing), nil
}

func (s *Service) Get(ctx context.Context, drawingID, userID string) (*Drawing, error) {
	dbDrawing, err := s.ownedDrawing(ctx, drawingID, userID)
	if err != nil {
		return nil, err
	}
	return dbDrawingToDrawing(dbDrawing), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Drawing, error) {
	dbDrawings, err := s.queries.ListDrawingsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}

	drawings := make([]Drawing, len(dbDrawings))
	for i, d := range dbDrawings {
		drawings[i] = *dbDrawingToDrawing(d)
	}
	return drawings, nil
}

func (s *Service) Rename(ctx context.Context, drawingID, userID, name string) error {
	if _, err := s.ownedDrawing(ctx, drawingID, userID); err != nil {
		return err
	}
	return s.queries.RenameDrawing(ctx, db.RenameDrawingParams{ID: drawingID, Name: name})
}

func (s *Service) Delete(ctx context.Context, drawingID, userID string) error {
	if _, err := s.ownedDrawing(ctx, drawingID, userID); err != nil {
		return err
	}
	return s.queries.DeleteDrawing(ctx, drawingID)
}

func (s *Service) GetLatestSnapshot(ctx context.Context, drawingID, userID string) (json.RawMessage, error) {
	if _, err := s.ownedDrawing(ctx, drawingID, userID); err != nil {
		return nil, err
	}

	snap, err := s.queries.GetLatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// SaveSnapshot records the next document version and prunes stale
// history. Sessions call this through the hub's saver hook, so no
// ownership check runs here.
func (s *Service) SaveSnapshot(ctx context.Context, drawingID string, doc *document.DraftDocument) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	nextVersion := int32(1)
	if current, err := s.queries.GetLatestSnapshot(ctx, drawingID); err == nil {
		nextVersion = current.Version + 1
	}

	_, err = s.queries.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		DrawingID: drawingID,
		Version:   nextVersion,
		Document:  docJSON,
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	if err := s.queries.PruneSnapshots(ctx, drawingID, snapshotsToKeep); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return s.queries.TouchDrawing(ctx, drawingID)
}

// LoadDocument fetches and decodes the latest document of a drawing.
func (s *Service) LoadDocument(ctx context.Context, drawingID string) (*document.DraftDocument, error) {
	snap, err := s.queries.GetLatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var doc document.DraftDocument
	if err := json.Unmarshal(snap.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// IsOwner reports whether the user owns the drawing.
func (s *Service) IsOwner(ctx context.Context, drawingID, userID string) bool {
	_, err := s.ownedDrawing(ctx, drawingID, userID)
	return err == nil
}

func (s *Service) ownedDrawing(ctx context.Context, drawingID, userID string) (db.Drawing, error) {
	dbDrawing, err := s.queries.GetDrawing(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Drawing{}, ErrNotFound
		}
		return db.Drawing{}, fmt.Errorf("get drawing: %w", err)
	}
	if dbDrawing.OwnerID != userID {
		return db.Drawing{}, ErrForbidden
	}
	return dbDrawing, nil
}

func dbDrawingToDrawing(d db.Drawing) *Drawing {
	return &Drawing{
		ID:        d.ID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		Width:     d.Width,
		Height:    d.Height,
		CreatedAt: d.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: d.UpdatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
}
