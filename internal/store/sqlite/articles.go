package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/store"
)

// articleColumns is the ordered list of columns selected in article queries.
// Must match the scan order in scanArticle.
const articleColumns = `id, url, title, author, content, content_hash, created_at, updated_at`

func scanArticle(scanner interface{ Scan(dest ...any) error }) (*domain.Article, error) {
	var (
		a         domain.Article
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&a.ID,
		&a.URL,
		&a.Title,
		&a.Author,
		&a.Content,
		&a.ContentHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateArticle inserts a new article.
// Returns store.ErrDuplicateURL when the URL is already saved.
func (s *Store) CreateArticle(ctx context.Context, a *domain.Article) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.URL,
		a.Title,
		a.Author,
		a.Content,
		a.ContentHash,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicateURL.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// GetArticle retrieves an article by ID.
// Returns store.ErrNotFound if the article does not exist.
func (s *Store) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return a, err
}

// GetArticleByURL retrieves an article by its source URL.
func (s *Store) GetArticleByURL(ctx context.Context, url string) (*domain.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE url = ?`, url)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return a, err
}

// UpdateArticle overwrites the mutable fields of an article.
func (s *Store) UpdateArticle(ctx context.Context, a *domain.Article) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE articles SET
			url = ?, title = ?, author = ?, content = ?, content_hash = ?, updated_at = ?
		WHERE id = ?`,
		a.URL,
		a.Title,
		a.Author,
		a.Content,
		a.ContentHash,
		formatTime(a.UpdatedAt),
		a.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicateURL.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return expectOneRow(res)
}

// DeleteArticle removes an article. Its highlights and notes cascade.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return expectOneRow(res)
}

// ListArticles returns articles newest first using keyset pagination on
// (created_at, id).
func (s *Store) ListArticles(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Article], error) {
	params.Validate()

	after, afterID, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	var rows *sql.Rows
	if afterID == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+articleColumns+` FROM articles
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, params.Limit+1)
	} else {
		ts := formatTime(after)
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+articleColumns+` FROM articles
			WHERE created_at < ? OR (created_at = ? AND id < ?)
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, ts, ts, afterID, params.Limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Article, 0, params.Limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.Article]{Items: items}
	if len(items) > params.Limit {
		result.Items = items[:params.Limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = store.EncodeCursor(last.CreatedAt, last.ID)
	}
	return result, nil
}
