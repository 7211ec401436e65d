// Package domain contains the reader entities: articles, highlights, notes and the highlight palette.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Article is a saved web page in its reader-view form.
// Content is sanitized HTML; it may be replaced, which is where highlight drift comes from.
type Article struct {
	Record
	URL         string `json:"url"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Content     string `json:"content"`
	ContentHash string `json:"content_hash"`
}

// SetContent replaces the article body and refreshes ContentHash.
// Returns false when the content is unchanged.
func (a *Article) SetContent(html string) bool {
	hash := HashContent(html)
	if hash == a.ContentHash && a.Content == html {
		return false
	}
	a.Content = html
	a.ContentHash = hash
	a.Touch()
	return true
}

// HashContent returns the hex SHA-256 of an article body.
func HashContent(html string) string {
	sum := sha256.Sum256([]byte(html))
	return hex.EncodeToString(sum[:])
}
