// Package content discovers the guide's markdown pages.
package content

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultMaxFileSize is the largest page read (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// Page is one markdown page of the guide.
type Page struct {
	Path        string         // Absolute path on disk.
	RelPath     string         // Slash-separated path relative to the content root.
	Route       string         // URL path without extension, "/" for the root index.
	Title       string         // Front matter title, first heading, or the file name.
	Description string         // Front matter description.
	FrontMatter map[string]any // Parsed YAML front matter, nil when absent.
	Body        []byte         // Markdown without front matter.
	Size        int64
	ContentHash string // SHA-256 hex digest of the file.
}

// Config controls Walk.
type Config struct {
	RootDir     string
	Include     []string
	Exclude     []string
	MaxFileSize int64
}

// Walk returns the pages under cfg.RootDir, sorted by RelPath.
func Walk(cfg Config) ([]Page, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("content: resolve root: %w", err)
	}
	if st, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("content: %w", err)
	} else if !st.IsDir() {
		return nil, fmt.Errorf("content: %s is not a directory", root)
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var pages []Page
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !MatchesInclude(rel, cfg.Include) || MatchesExclude(rel, cfg.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}

		page, err := Load(root, rel)
		if err != nil {
			return fmt.Errorf("content: %s: %w", rel, err)
		}
		pages = append(pages, *page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].RelPath < pages[j].RelPath })
	return pages, nil
}

// Load reads a single page. rel is slash-separated and relative to root.
func Load(root, rel string) (*Page, error) {
	clean := path.Clean(filepath.ToSlash(rel))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return nil, fmt.Errorf("invalid page path %q", rel)
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	fm, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Path:        full,
		RelPath:     clean,
		Route:       RouteFor(clean),
		FrontMatter: fm,
		Body:        body,
		Size:        int64(len(data)),
		ContentHash: hex.EncodeToString(sum[:]),
	}
	if t, ok := fm["title"].(string); ok && t != "" {
		page.Title = t
	} else if h := firstHeading(body); h != "" {
		page.Title = h
	} else {
		page.Title = titleFromPath(clean)
	}
	if d, ok := fm["description"].(string); ok {
		page.Description = d
	}
	return page, nil
}

// RouteFor maps a page path to its URL path: "en/index.md" is "/en/",
// "en/button.md" is "/en/button" and "index.md" is "/".
func RouteFor(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), path.Ext(rel))
	if rel == "index" {
		return "/"
	}
	if strings.HasSuffix(rel, "/index") {
		return "/" + strings.TrimSuffix(rel, "index")
	}
	return "/" + rel
}

var frontMatterFence = []byte("---")

func splitFrontMatter(data []byte) (map[string]any, []byte, error) {
	trimmed := bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(trimmed, frontMatterFence) {
		return nil, data, nil
	}
	rest := trimmed[len(frontMatterFence):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		return nil, data, nil
	}
	rest = rest[nl+1:]

	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, data, nil
	}
	var fm map[string]any
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, nil, fmt.Errorf("parsing front matter: %w", err)
	}
	body := rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return fm, body, nil
}

func firstHeading(body []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(body))
	inFence := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func titleFromPath(rel string) string {
	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if name == "index" {
		if dir := path.Dir(rel); dir != "." {
			name = path.Base(dir)
		}
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(name)
}
