package site

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/studyguide/internal/content"
)

const maxSearchContent = 2000

// SearchEntry represents a single searchable page in the guide.
type SearchEntry struct {
	Path    string `json:"path"`
	Route   string `json:"route"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

// SearchHit is a scored match returned by Search.
type SearchHit struct {
	SearchEntry
	Score int `json:"score"`
}

// BuildSearchIndex builds one entry per page. href maps a route to the URL
// stored in the index; nil stores the route.
func BuildSearchIndex(pages []content.Page, href func(string) string) []SearchEntry {
	if href == nil {
		href = func(route string) string { return route }
	}
	entries := make([]SearchEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, searchEntryFor(p, href))
	}
	return entries
}

func searchEntryFor(p content.Page, href func(string) string) SearchEntry {
	entry := SearchEntry{
		Path:    href(p.Route),
		Route:   p.Route,
		Title:   p.Title,
		Summary: p.Description,
	}

	var text []string
	inFence := false
	sc := bufio.NewScanner(bytes.NewReader(p.Body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if line == "" || inFence {
			continue
		}
		plain := plainText(line)
		if plain == "" {
			continue
		}
		if entry.Summary == "" && !strings.HasPrefix(line, "#") {
			entry.Summary = plain
		}
		text = append(text, plain)
	}
	entry.Content = truncateRunes(strings.Join(text, " "), maxSearchContent)
	return entry
}

var markdownNoise = strings.NewReplacer("**", "", "__", "", "`", "", "[", "", "]", "")

// plainText strips the block markers and inline emphasis of one line.
func plainText(line string) string {
	line = strings.TrimLeft(line, "#>-*+| ")
	line = markdownNoise.Replace(line)
	// Drop link targets: "text(url)" keeps "text".
	for {
		open := strings.Index(line, "(")
		if open < 0 {
			break
		}
		end := strings.Index(line[open:], ")")
		if end < 0 || !strings.Contains(line[open:open+end], "/") {
			break
		}
		line = line[:open] + line[open+end+1:]
	}
	return strings.TrimSpace(line)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// WriteSearchIndex writes the search index as JSON to the given path.
func WriteSearchIndex(entries []SearchEntry, outputPath string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// Search scores entries against the query's terms, case-insensitively.
// Title matches count most, then the summary, then the body.
func Search(entries []SearchEntry, query string, limit int) []SearchHit {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var hits []SearchHit
	for _, e := range entries {
		title := strings.ToLower(e.Title)
		summary := strings.ToLower(e.Summary)
		body := strings.ToLower(e.Content)
		score := 0
		for _, term := range terms {
			if strings.Contains(title, term) {
				score += 5
			}
			if strings.Contains(summary, term) {
				score += 3
			}
			score += min(strings.Count(body, term), 5)
		}
		if score > 0 {
			hits = append(hits, SearchHit{SearchEntry: e, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Route < hits[j].Route
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
