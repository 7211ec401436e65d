// Package main provides a tool to list what the render cache holds.
//
// Usage:
//
//	CACHE_PATH=~/Readwell/data/cache/render go run ./cmd/cacheinspect
//	go run ./cmd/cacheinspect -article art-abc123
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/readwell/readwell-server/internal/highlight"
	"github.com/readwell/readwell-server/internal/service"
)

var article = flag.String("article", "", "Only show entries of this article")

func main() {
	flag.Parse()

	cachePath := os.Getenv("CACHE_PATH")
	if cachePath == "" {
		cachePath = os.ExpandEnv("$HOME/Readwell/data/cache/render")
	}

	opts := badger.DefaultOptions(cachePath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open render cache: %v", err)
	}
	defer db.Close()

	prefix := []byte("render:")
	if *article != "" {
		prefix = []byte("render:" + *article + ":")
	}

	fmt.Println("=== Render Cache Inspection ===")
	fmt.Println()

	entries := 0
	perArticle := make(map[string]int)

	err = db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.Prefix = prefix
		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			parts := strings.SplitN(strings.TrimPrefix(string(item.Key()), "render:"), ":", 2)
			if len(parts) != 2 {
				continue
			}
			articleID, fingerprint := parts[0], parts[1]

			var rendered service.RenderedArticle
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rendered)
			}); err != nil {
				return err
			}

			entries++
			perArticle[articleID]++

			expires := "never"
			if exp := item.ExpiresAt(); exp > 0 {
				expires = time.Until(time.Unix(int64(exp), 0)).Round(time.Second).String()
			}
			fmt.Printf("%s  fp=%s…  highlights=%d  orphaned=%d  html=%dB  expires in %s\n",
				articleID, fingerprint[:min(12, len(fingerprint))],
				len(rendered.Report.Results),
				rendered.Report.Count(highlight.StatusOrphaned),
				len(rendered.HTML), expires)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read render cache: %v", err)
	}

	fmt.Println()
	fmt.Printf("Entries:  %d\n", entries)
	fmt.Printf("Articles: %d\n", len(perArticle))
}
