package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/store"
)

// noteColumns must match the scan order in scanNote.
const noteColumns = `id, article_id, highlight_id, content, pos_x, pos_y, pos_page, created_at, updated_at`

func scanNote(scanner interface{ Scan(dest ...any) error }) (*domain.Note, error) {
	var (
		n           domain.Note
		highlightID sql.NullString
		posX, posY  sql.NullFloat64
		posPage     sql.NullInt64
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&n.ID,
		&n.ArticleID,
		&highlightID,
		&n.Content,
		&posX,
		&posY,
		&posPage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.HighlightID = stringPtr(highlightID)
	if posX.Valid && posY.Valid {
		n.Position = &domain.Position{X: posX.Float64, Y: posY.Float64}
		if posPage.Valid {
			page := int(posPage.Int64)
			n.Position.Page = &page
		}
	}

	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// positionArgs flattens an optional position into nullable columns.
func positionArgs(p *domain.Position) (sql.NullFloat64, sql.NullFloat64, sql.NullInt64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}, sql.NullInt64{}
	}
	var page sql.NullInt64
	if p.Page != nil {
		page = sql.NullInt64{Int64: int64(*p.Page), Valid: true}
	}
	return sql.NullFloat64{Float64: p.X, Valid: true}, sql.NullFloat64{Float64: p.Y, Valid: true}, page
}

// CreateNote inserts a note.
// Returns store.ErrNotFound when the article or highlight does not exist.
func (s *Store) CreateNote(ctx context.Context, n *domain.Note) error {
	x, y, page := positionArgs(n.Position)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.ArticleID,
		nullableString(n.HighlightID),
		n.Content,
		x, y, page,
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	switch {
	case isUniqueViolation(err):
		return store.ErrAlreadyExists.WithCause(err)
	case isForeignKeyViolation(err):
		return store.ErrNotFound.WithMessage("article or highlight not found")
	case err != nil:
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return n, err
}

// UpdateNote persists a note's content, attachment and position.
func (s *Store) UpdateNote(ctx context.Context, n *domain.Note) error {
	x, y, page := positionArgs(n.Position)
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET highlight_id = ?, content = ?, pos_x = ?, pos_y = ?, pos_page = ?, updated_at = ?
		WHERE id = ?`,
		nullableString(n.HighlightID),
		n.Content,
		x, y, page,
		formatTime(n.UpdatedAt),
		n.ID,
	)
	if isForeignKeyViolation(err) {
		return store.ErrHighlightNotFound.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return expectOneRow(res)
}

// DeleteNote removes a note.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return expectOneRow(res)
}

// ListNotesByArticle returns every note on an article, oldest first.
func (s *Store) ListNotesByArticle(ctx context.Context, articleID string) ([]*domain.Note, error) {
	return s.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE article_id = ?
		ORDER BY created_at ASC, id ASC`, articleID)
}

// ListNotesByHighlight returns the notes attached to a highlight, oldest first.
func (s *Store) ListNotesByHighlight(ctx context.Context, highlightID string) ([]*domain.Note, error) {
	return s.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE highlight_id = ?
		ORDER BY created_at ASC, id ASC`, highlightID)
}

func (s *Store) queryNotes(ctx context.Context, query string, args ...any) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}
