package site

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// TreeEntry is a page placed in a FileTree.
type TreeEntry struct {
	Path  string // Slash-separated, relative to the locale root.
	Route string
	Title string
}

// FileTree is the sidebar used when no configured sidebar matches a page.
type FileTree struct {
	Name     string
	Title    string // Page title for files, formatted name for directories.
	Path     string // For files: full relative path. For dirs: directory path (e.g., "basic-components").
	Route    string // Empty for directories.
	IsDir    bool
	Children []*FileTree
}

// BuildTree constructs a FileTree from the given pages.
func BuildTree(entries []TreeEntry) *FileTree {
	root := &FileTree{Name: "guide", IsDir: true}

	for _, e := range entries {
		parts := strings.Split(e.Path, "/")
		current := root
		for i, part := range parts {
			isLast := i == len(parts)-1
			var next *FileTree
			for _, child := range current.Children {
				if child.Name == part && child.IsDir == !isLast {
					next = child
					break
				}
			}
			if next == nil {
				next = &FileTree{Name: part, IsDir: !isLast}
				if isLast {
					next.Path = e.Path
					next.Route = e.Route
					next.Title = e.Title
				} else {
					next.Path = strings.Join(parts[:i+1], "/")
					next.Title = formatDirName(part)
				}
				current.Children = append(current.Children, next)
			}
			current = next
		}
	}

	sortTree(root)
	return root
}

// sortTree recursively sorts tree children: index pages first, then
// directories, then files, alphabetically.
func sortTree(node *FileTree) {
	rank := func(n *FileTree) int {
		switch {
		case n.Name == "index.md":
			return 0
		case n.IsDir:
			return 1
		default:
			return 2
		}
	}
	sort.Slice(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if rank(a) != rank(b) {
			return rank(a) < rank(b)
		}
		return a.Name < b.Name
	})
	for _, child := range node.Children {
		if child.IsDir {
			sortTree(child)
		}
	}
}

// Files returns the tree's pages in display order.
func (t *FileTree) Files() []*FileTree {
	var out []*FileTree
	var walk func(n *FileTree)
	walk = func(n *FileTree) {
		for _, c := range n.Children {
			if c.IsDir {
				walk(c)
			} else {
				out = append(out, c)
			}
		}
	}
	walk(t)
	return out
}

// ToHTML renders the tree as nested lists. href maps a route to its URL.
func (t *FileTree) ToHTML(activeRoute string, href func(string) string) string {
	var b strings.Builder
	renderChildren(&b, t, activeRoute, href, activeAncestors(t, activeRoute))
	return b.String()
}

// activeAncestors returns the directory paths containing the active page.
func activeAncestors(t *FileTree, activeRoute string) map[string]bool {
	ancestors := make(map[string]bool)
	for _, f := range t.Files() {
		if f.Route != activeRoute {
			continue
		}
		parts := strings.Split(f.Path, "/")
		for i := 1; i < len(parts); i++ {
			ancestors[strings.Join(parts[:i], "/")] = true
		}
	}
	return ancestors
}

func renderChildren(b *strings.Builder, node *FileTree, activeRoute string, href func(string) string, ancestors map[string]bool) {
	if len(node.Children) == 0 {
		return
	}
	b.WriteString("<ul>\n")
	for _, child := range node.Children {
		if child.IsDir {
			expanded := ""
			if ancestors[child.Path] {
				expanded = " expanded"
			}
			fmt.Fprintf(b, `<li class="dir%s"><span class="dir-toggle">%s</span>`+"\n", expanded, html.EscapeString(child.Title))
			renderChildren(b, child, activeRoute, href, ancestors)
			b.WriteString("</li>\n")
			continue
		}
		active := ""
		if child.Route == activeRoute {
			active = ` class="active"`
		}
		fmt.Fprintf(b, `<li class="file"><a href="%s"%s>%s</a></li>`+"\n",
			html.EscapeString(href(child.Route)), active, html.EscapeString(child.Title))
	}
	b.WriteString("</ul>\n")
}

// formatDirName converts a directory slug to a display name.
func formatDirName(name string) string {
	words := strings.FieldsFunc(name, func(c rune) bool {
		return c == '-' || c == '_'
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
