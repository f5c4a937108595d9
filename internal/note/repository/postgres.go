package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yanote/notes/backend/go-services/internal/note"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRepo stores notes in the "notes" table (see internal/database/migrations).
// The table's UNIQUE(slug) and ON DELETE CASCADE author reference carry the invariants.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const noteColumns = `id, title, text, slug, author_id, created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, n *note.Note) error {
	query := `
		INSERT INTO notes (id, title, text, slug, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, n.ID, n.Title, n.Text, n.Slug, n.AuthorID).
		Scan(&n.CreatedAt, &n.UpdatedAt)
	return mapPgErr(err)
}

func (r *PostgresRepo) GetBySlug(ctx context.Context, slug string) (*note.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE slug = $1`, slug)
	n, err := scanNote(row)
	if err != nil {
		return nil, mapPgErr(err)
	}
	return n, nil
}

func (r *PostgresRepo) ListByAuthor(ctx context.Context, authorID string) ([]*note.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE author_id = $1 ORDER BY created_at, id`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*note.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, n *note.Note) error {
	query := `
		UPDATE notes SET title = $2, text = $3, slug = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, n.ID, n.Title, n.Text, n.Slug).Scan(&n.UpdatedAt)
	return mapPgErr(err)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return note.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE author_id = $1`, authorID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notes`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (*note.Note, error) {
	n := &note.Note{}
	if err := s.Scan(&n.ID, &n.Title, &n.Text, &n.Slug, &n.AuthorID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

func mapPgErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return note.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return note.ErrSlugTaken
		case pgForeignKeyViolation:
			return note.ErrBadAuthor
		}
	}
	return err
}
