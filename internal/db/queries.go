package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries wraps the pool with typed accessors for the three tables the
// server owns: users, drawings, drawing_snapshots.
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   pgtype.Timestamptz
}

type Drawing struct {
	ID        string
	Name      string
	OwnerID   string
	Width     float64
	Height    float64
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type DrawingSnapshot struct {
	ID        string
	DrawingID string
	Version   int32
	Document  []byte
	CreatedAt pgtype.Timestamptz
}

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, email, password, display_name, created_at`,
		arg.ID, arg.Email, arg.Password, arg.DisplayName,
	)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE email = $1`,
		email,
	)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE id = $1`,
		id,
	)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

type CreateDrawingParams struct {
	ID      string
	Name    string
	OwnerID string
	Width   float64
	Height  float64
}

func (q *Queries) CreateDrawing(ctx context.Context, arg CreateDrawingParams) (Drawing, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO drawings (id, name, owner_id, width, height, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, name, owner_id, width, height, created_at, updated_at`,
		arg.ID, arg.Name, arg.OwnerID, arg.Width, arg.Height,
	)
	return scanDrawing(row)
}

func (q *Queries) GetDrawing(ctx context.Context, id string) (Drawing, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, width, height, created_at, updated_at
		FROM drawings WHERE id = $1`,
		id,
	)
	return scanDrawing(row)
}

func (q *Queries) ListDrawingsForUser(ctx context.Context, ownerID string) ([]Drawing, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, name, owner_id, width, height, created_at, updated_at
		FROM drawings WHERE owner_id = $1
		ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Drawing
	for rows.Next() {
		d, err := scanDrawing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type RenameDrawingParams struct {
	ID   string
	Name string
}

func (q *Queries) RenameDrawing(ctx context.Context, arg RenameDrawingParams) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE drawings SET name = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.Name,
	)
	return err
}

func (q *Queries) DeleteDrawing(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM drawings WHERE id = $1`, id)
	return err
}

func (q *Queries) TouchDrawing(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE drawings SET updated_at = now() WHERE id = $1`,
		id,
	)
	return err
}

type CreateSnapshotParams struct {
	ID        string
	DrawingID string
	Version   int32
	Document  []byte
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (DrawingSnapshot, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO drawing_snapshots (id, drawing_id, version, document, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, drawing_id, version, document, created_at`,
		arg.ID, arg.DrawingID, arg.Version, arg.Document,
	)
	var s DrawingSnapshot
	err := row.Scan(&s.ID, &s.DrawingID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetLatestSnapshot(ctx context.Context, drawingID string) (DrawingSnapshot, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT id, drawing_id, version, document, created_at
		FROM drawing_snapshots
		WHERE drawing_id = $1
		ORDER BY version DESC
		LIMIT 1`,
		drawingID,
	)
	var s DrawingSnapshot
	err := row.Scan(&s.ID, &s.DrawingID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}

// PruneSnapshots keeps the most recent keep versions of a drawing.
func (q *Queries) PruneSnapshots(ctx context.Context, drawingID string, keep int32) error {
	_, err := q.pool.Exec(ctx, `
		DELETE FROM drawing_snapshots
		WHERE drawing_id = $1 AND version <= (
			SELECT COALESCE(MAX(version), 0) - $2 FROM drawing_snapshots WHERE drawing_id = $1
		)`,
		drawingID, keep,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrawing(row rowScanner) (Drawing, error) {
	var d Drawing
	err := row.Scan(&d.ID, &d.Name, &d.OwnerID, &d.Width, &d.Height, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}
