package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/store"
)

// highlightColumns is the ordered list of columns selected in highlight queries.
// Must match the scan order in scanHighlight.
const highlightColumns = `id, article_id, text, start_offset, end_offset,
	context_prefix, context_suffix, color, note, created_at, updated_at`

// scanHighlight scans a row into a domain.Highlight. Tags are loaded separately.
func scanHighlight(scanner interface{ Scan(dest ...any) error }) (*domain.Highlight, error) {
	var (
		h         domain.Highlight
		color     string
		note      sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&h.ID,
		&h.ArticleID,
		&h.Text,
		&h.StartOffset,
		&h.EndOffset,
		&h.ContextPrefix,
		&h.ContextSuffix,
		&color,
		&note,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.Color = domain.Color(color)
	h.Note = stringPtr(note)
	h.Tags = []string{}

	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHighlight inserts a highlight with its tags.
// Returns store.ErrNotFound when the article does not exist.
func (s *Store) CreateHighlight(ctx context.Context, h *domain.Highlight) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO highlights (`+highlightColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID,
			h.ArticleID,
			h.Text,
			h.StartOffset,
			h.EndOffset,
			h.ContextPrefix,
			h.ContextSuffix,
			string(h.Color),
			nullableString(h.Note),
			formatTime(h.CreatedAt),
			formatTime(h.UpdatedAt),
		)
		switch {
		case isUniqueViolation(err):
			return store.ErrAlreadyExists.WithCause(err)
		case isForeignKeyViolation(err):
			return store.ErrArticleNotFound.WithCause(err)
		case err != nil:
			return fmt.Errorf("insert highlight: %w", err)
		}
		return setHighlightTags(ctx, tx, h.ID, h.Tags)
	})
}

// GetHighlight retrieves a highlight by ID, including its tags.
func (s *Store) GetHighlight(ctx context.Context, id string) (*domain.Highlight, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+highlightColumns+` FROM highlights WHERE id = ?`, id)
	h, err := scanHighlight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tags, err := s.loadHighlightTags(ctx, []string{h.ID})
	if err != nil {
		return nil, err
	}
	if t, ok := tags[h.ID]; ok {
		h.Tags = t
	}
	return h, nil
}

// UpdateHighlight persists the presentation fields of a highlight: color,
// note and tags. Anchoring columns are not written.
func (s *Store) UpdateHighlight(ctx context.Context, h *domain.Highlight) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE highlights SET color = ?, note = ?, updated_at = ?
			WHERE id = ?`,
			string(h.Color),
			nullableString(h.Note),
			formatTime(h.UpdatedAt),
			h.ID,
		)
		if err != nil {
			return fmt.Errorf("update highlight: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}
		return setHighlightTags(ctx, tx, h.ID, h.Tags)
	})
}

// UpdateHighlightOffsets rewrites the advisory offsets after re-anchoring.
// updated_at is left alone: the user did not change the highlight.
func (s *Store) UpdateHighlightOffsets(ctx context.Context, id string, start, end int) error {
	if start < 0 || end <= start {
		return store.InvalidOffsets(start, end)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE highlights SET start_offset = ?, end_offset = ?
		WHERE id = ?`, start, end, id)
	if err != nil {
		return fmt.Errorf("update highlight offsets: %w", err)
	}
	return expectOneRow(res)
}

// DeleteHighlight removes a highlight. Its tags cascade; attached notes
// become standalone.
func (s *Store) DeleteHighlight(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM highlights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	return expectOneRow(res)
}

// ListHighlightsByArticle returns an article's highlights ordered by their
// stored start offset.
func (s *Store) ListHighlightsByArticle(ctx context.Context, articleID string) ([]*domain.Highlight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+highlightColumns+` FROM highlights
		WHERE article_id = ?
		ORDER BY start_offset ASC, created_at ASC`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	defer rows.Close()

	highlights := []*domain.Highlight{}
	var ids []string
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		highlights = append(highlights, h)
		ids = append(ids, h.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Release the connection before loading tags.
	rows.Close()

	tags, err := s.loadHighlightTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, h := range highlights {
		if t, ok := tags[h.ID]; ok {
			h.Tags = t
		}
	}
	return highlights, nil
}

// CountHighlightsByArticle returns the number of highlights on an article.
func (s *Store) CountHighlightsByArticle(ctx context.Context, articleID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM highlights WHERE article_id = ?`, articleID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count highlights: %w", err)
	}
	return n, nil
}
