// Package main provides a tool to anchor and paint highlights against a saved
// article without running the server.
//
// Usage:
//
//	go run ./cmd/anchorctl -file article.html -text "brown fox" -start 20 -end 29
//	go run ./cmd/anchorctl -file article.html -text "brown fox" -prefix "quick " -paint
//	go run ./cmd/anchorctl -file article.html -start 20 -end 29
//	go run ./cmd/anchorctl -file article.html -projection
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/readwell/readwell-server/internal/anchor"
	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/highlight"
)

var (
	file       = flag.String("file", "", "Reader-view HTML file")
	text       = flag.String("text", "", "Quoted text to anchor")
	prefix     = flag.String("prefix", "", "Context before the quote")
	suffix     = flag.String("suffix", "", "Context after the quote")
	start      = flag.Int("start", 0, "Stored start offset")
	end        = flag.Int("end", 0, "Stored end offset")
	color      = flag.String("color", "", "Palette color used with -paint")
	paint      = flag.Bool("paint", false, "Print the article HTML with the highlight painted")
	projection = flag.Bool("projection", false, "Print the text projection and exit")
)

type result struct {
	Confidence    anchor.Confidence `json:"confidence"`
	Start         int               `json:"start"`
	End           int               `json:"end"`
	Moved         bool              `json:"moved"`
	Normalized    bool              `json:"normalized"`
	LowConfidence bool              `json:"low_confidence"`
	Anchored      string            `json:"anchored"`
}

func main() {
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open article: %v", err)
	}
	tree, err := content.ParseHTML(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to parse article: %v", err)
	}
	root := tree.Root()
	plain := tree.PlainText(root)

	if *projection {
		for i, n := range tree.TextNodes(root) {
			fmt.Printf("[%d] %q\n", i, tree.TextContent(n))
		}
		fmt.Printf("\n%d characters\n", len([]rune(plain)))
		return
	}

	if *text == "" {
		if *end <= *start {
			log.Fatal("-text, or -start and -end, is required")
		}
		draft, err := highlight.CaptureRange(tree, root, *start, *end, *color, domain.DefaultContextLength)
		if err != nil {
			log.Fatalf("Failed to capture range: %v", err)
		}
		printJSON(draft)
		return
	}

	sel := domain.Selector{Exact: *text, Prefix: *prefix, Suffix: *suffix, Start: *start, End: *end}
	if sel.End == 0 {
		sel.End = sel.Start + len([]rune(sel.Exact))
	}

	m, err := anchor.Locate(plain, sel)
	if err != nil {
		log.Fatalf("Failed to anchor: %v", err)
	}

	runes := []rune(plain)
	out := result{
		Confidence:    m.Confidence,
		Start:         m.Start,
		End:           m.End,
		Moved:         m.Moved(sel),
		Normalized:    m.Normalized,
		LowConfidence: m.Confidence.IsLow(),
		Anchored:      string(runes[m.Start:m.End]),
	}

	printJSON(out)

	if !*paint {
		return
	}

	h := domain.Highlight{
		Record:        domain.Record{ID: "hl-preview"},
		Text:          sel.Exact,
		ContextPrefix: sel.Prefix,
		ContextSuffix: sel.Suffix,
		Color:         domain.ResolveColor(*color),
		StartOffset:   sel.Start,
		EndOffset:     sel.End,
	}
	_, report := highlight.ApplyHighlightsToDOM(tree, root, []domain.Highlight{h}, nil)
	if n := report.Count(highlight.StatusPainted); n == 0 {
		log.Fatalf("Highlight was not painted: %+v", report.Results)
	}

	body, err := tree.InnerHTML(root)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	fmt.Println()
	fmt.Println(body)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
