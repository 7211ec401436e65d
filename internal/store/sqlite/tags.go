package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/readwell/readwell-server/internal/store"
)

// setHighlightTags replaces all tags for a highlight inside tx.
// Tag order is kept through the position column.
func setHighlightTags(ctx context.Context, tx *sql.Tx, highlightID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM highlight_tags WHERE highlight_id = ?`, highlightID); err != nil {
		return fmt.Errorf("delete highlight_tags: %w", err)
	}

	for i, tag := range tags {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO highlight_tags (highlight_id, tag, position)
			VALUES (?, ?, ?)`,
			highlightID,
			tag,
			i,
		)
		if err != nil {
			return fmt.Errorf("insert highlight_tag: %w", err)
		}
	}
	return nil
}

// loadHighlightTags returns the ordered tags of each highlight in ids.
// Highlights without tags are absent from the map.
func (s *Store) loadHighlightTags(ctx context.Context, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT highlight_id, tag FROM highlight_tags
		WHERE highlight_id IN (`+placeholders+`)
		ORDER BY highlight_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("query highlight_tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var highlightID, tag string
		if err := rows.Scan(&highlightID, &tag); err != nil {
			return nil, fmt.Errorf("scan highlight_tag: %w", err)
		}
		out[highlightID] = append(out[highlightID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// ListTags returns every tag in use with its highlight count, most used first.
func (s *Store) ListTags(ctx context.Context) ([]store.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, COUNT(*) AS n FROM highlight_tags
		GROUP BY tag
		ORDER BY n DESC, tag ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := []store.TagCount{}
	for rows.Next() {
		var tc store.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return tags, nil
}
