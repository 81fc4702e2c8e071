// Package site renders the guide's markdown pages into a static, localised
// HTML site with navigation, sidebars, search and edit links.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/ziadkadry99/studyguide/internal/content"
	"github.com/ziadkadry99/studyguide/internal/progress"
)

// SearchIndexFile is written into every locale's root directory.
const SearchIndexFile = "search-index.json"

// ErrNoPages is returned when the content directory holds no pages.
var ErrNoPages = errors.New("no markdown pages found")

// Options configures a Generator.
type Options struct {
	ContentDir string
	OutputDir  string
	Include    []string
	Exclude    []string
	// Config overrides ConfigFile when set.
	Config *Config
	// ConfigFile is the site.yml path, relative to ContentDir unless
	// absolute. It is re-read on every Generate. When it does not exist a
	// single-locale default is used.
	ConfigFile string
	Reporter   progress.Reporter
	Logger     *slog.Logger
}

// Generator converts the guide's markdown into a static HTML site.
type Generator struct {
	contentDir string
	outputDir  string
	include    []string
	exclude    []string
	config     *Config
	configPath string
	reporter   progress.Reporter
	logger     *slog.Logger

	md   goldmark.Markdown
	tmpl *template.Template
}

// Result summarises one Generate run.
type Result struct {
	Pages    int
	Locales  map[string]int
	Duration time.Duration
}

// NewGenerator validates opts and prepares the renderer.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.ContentDir == "" || opts.OutputDir == "" {
		return nil, errors.New("content and output directories are required")
	}
	g := &Generator{
		contentDir: opts.ContentDir,
		outputDir:  opts.OutputDir,
		include:    opts.Include,
		exclude:    opts.Exclude,
		config:     opts.Config,
		reporter:   opts.Reporter,
		logger:     opts.Logger,
	}
	if g.reporter == nil {
		g.reporter = progress.Nop()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.config == nil && opts.ConfigFile != "" {
		g.configPath = opts.ConfigFile
		if !filepath.IsAbs(g.configPath) {
			g.configPath = filepath.Join(opts.ContentDir, g.configPath)
		}
	}
	if _, err := g.loadConfig(); err != nil {
		return nil, err
	}

	g.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	g.tmpl = tmpl
	return g, nil
}

// Config returns the configuration used by the last Generate.
func (g *Generator) Config() *Config { return g.config }

// ContentDir returns the directory pages are read from.
func (g *Generator) ContentDir() string { return g.contentDir }

// OutputDir returns the directory the site is written to.
func (g *Generator) OutputDir() string { return g.outputDir }

func (g *Generator) loadConfig() (*Config, error) {
	if g.configPath == "" {
		if g.config == nil {
			g.config = DefaultConfig(formatDirName(filepath.Base(g.contentDir)))
		}
		return g.config, nil
	}
	cfg, err := LoadConfig(g.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig(formatDirName(filepath.Base(g.contentDir)))
	} else if err != nil {
		return nil, err
	}
	g.config = cfg
	return cfg, nil
}

// localePages are the pages of one locale plus the derived fallback tree.
type localePages struct {
	locale *Locale
	pages  []content.Page
	tree   *FileTree
}

// Generate builds the full site. It returns the number of pages per locale.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	start := time.Now()
	cfg, err := g.loadConfig()
	if err != nil {
		return Result{}, err
	}

	pages, err := content.Walk(content.Config{
		RootDir: g.contentDir,
		Include: g.include,
		Exclude: g.exclude,
	})
	if err != nil {
		return Result{}, err
	}
	if len(pages) == 0 {
		return Result{}, fmt.Errorf("%w in %s", ErrNoPages, g.contentDir)
	}

	byLocale := make(map[string]*localePages)
	routes := make(map[string]bool, len(pages))
	for _, p := range pages {
		l := cfg.LocaleFor(p.Route)
		if l == nil {
			g.logger.Warn("page outside every locale", "page", p.RelPath)
			continue
		}
		lp := byLocale[l.Key]
		if lp == nil {
			lp = &localePages{locale: l}
			byLocale[l.Key] = lp
		}
		lp.pages = append(lp.pages, p)
		routes[p.Route] = true
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(filepath.Join(g.outputDir, "style.css"), []byte(cssContent), 0o644); err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(filepath.Join(g.outputDir, "script.js"), []byte(jsContent), 0o644); err != nil {
		return Result{}, err
	}
	if err := g.copyPublic(); err != nil {
		return Result{}, fmt.Errorf("copying public assets: %w", err)
	}

	res := Result{Locales: make(map[string]int)}
	for key, lp := range byLocale {
		prefix := strings.TrimPrefix(lp.locale.Link, "/")
		entries := make([]TreeEntry, 0, len(lp.pages))
		for _, p := range lp.pages {
			entries = append(entries, TreeEntry{Path: strings.TrimPrefix(p.RelPath, prefix), Route: p.Route, Title: p.Title})
		}
		lp.tree = BuildTree(entries)

		dir := filepath.Join(g.outputDir, filepath.FromSlash(prefix))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, err
		}
		index := BuildSearchIndex(lp.pages, cfg.Href)
		if err := WriteSearchIndex(index, filepath.Join(dir, SearchIndexFile)); err != nil {
			return Result{}, fmt.Errorf("writing search index for %s: %w", key, err)
		}
		res.Locales[key] = len(lp.pages)
	}

	total := 0
	for _, lp := range byLocale {
		total += len(lp.pages)
	}
	g.reporter.Start(total)
	done := 0
	for _, p := range pages {
		key := localeKey(cfg, p.Route)
		lp := byLocale[key]
		if lp == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := g.renderPage(cfg, lp, routes, p); err != nil {
			return Result{}, fmt.Errorf("rendering %s: %w", p.RelPath, err)
		}
		done++
		g.reporter.Page(key, p.Route)
	}
	g.reporter.Finish(time.Since(start))

	if root := byLocale[localeKey(cfg, "/")]; root != nil {
		if err := g.renderNotFound(cfg, root); err != nil {
			return Result{}, fmt.Errorf("rendering 404 page: %w", err)
		}
	}

	res.Pages = done
	res.Duration = time.Since(start)
	g.logger.Info("site generated", "pages", res.Pages, "locales", len(res.Locales), "output", g.outputDir, "duration", res.Duration)
	return res, nil
}

func localeKey(cfg *Config, route string) string {
	if l := cfg.LocaleFor(route); l != nil {
		return l.Key
	}
	return ""
}

// pageData holds the data passed to the HTML template for each page.
type pageData struct {
	Lang        string
	Title       string
	SiteTitle   string
	Description string
	Base        string
	Home        string
	Head        template.HTML
	Nav         []navLink
	Locales     []navLink
	Social      []SocialLink
	Sidebar     []sidebarGroup
	TreeHTML    template.HTML
	Content     template.HTML
	Outline     []heading
	Prev        *navLink
	Next        *navLink
	EditURL     string
	EditText    string
	Footer      Footer
	Labels      Labels
	SearchIndex string
}

type navLink struct {
	Text   string
	Href   string
	Active bool
	Items  []navLink
}

type sidebarGroup struct {
	Text      string
	Collapsed bool
	Items     []navLink
}

type heading struct {
	Level int
	ID    string
	Text  string
}

func (g *Generator) renderPage(cfg *Config, lp *localePages, routes map[string]bool, p content.Page) error {
	source := p.Body
	doc := g.md.Parser().Parse(text.NewReader(source))
	rewriteLinks(doc, cfg)

	var body bytes.Buffer
	if err := g.md.Renderer().Render(&body, source, doc); err != nil {
		return fmt.Errorf("converting markdown: %w", err)
	}

	data := g.baseData(cfg, lp, routes, p.Route)
	data.Title = p.Title
	if p.Description != "" {
		data.Description = p.Description
	}
	data.Content = template.HTML(body.String())
	data.Outline = collectHeadings(doc, source)
	data.EditURL = cfg.EditURL(p.RelPath)
	data.EditText = cfg.EditLink.Text

	if sb := lp.locale.SidebarFor(p.Route); sb != nil {
		data.Sidebar = sidebarData(cfg, sb, p.Route)
		data.Prev, data.Next = adjacent(cfg, sb.Links(), p.Route)
	} else {
		data.TreeHTML = template.HTML(lp.tree.ToHTML(p.Route, cfg.Href))
		var links []SidebarLink
		for _, f := range lp.tree.Files() {
			links = append(links, SidebarLink{Text: f.Title, Link: f.Route})
		}
		data.Prev, data.Next = adjacent(cfg, links, p.Route)
	}

	return g.writePage(outputPathFor(p.Route), data)
}

func (g *Generator) renderNotFound(cfg *Config, root *localePages) error {
	data := g.baseData(cfg, root, nil, "")
	data.Title = "Page not found"
	data.Content = template.HTML(`<h1>404</h1><p>Page not found.</p><p><a href="` +
		template.HTMLEscapeString(data.Home) + `">` + template.HTMLEscapeString(data.SiteTitle) + `</a></p>`)
	data.TreeHTML = template.HTML(root.tree.ToHTML("", cfg.Href))
	return g.writePage("404.html", data)
}

func (g *Generator) baseData(cfg *Config, lp *localePages, routes map[string]bool, route string) pageData {
	l := lp.locale
	data := pageData{
		Lang:        l.Lang,
		SiteTitle:   l.Title,
		Description: l.Description,
		Base:        cfg.Base,
		Home:        cfg.Href(l.Link),
		Head:        renderHead(cfg.Head),
		Nav:         navData(cfg, l.Nav, route),
		Social:      cfg.SocialLinks,
		Footer:      cfg.Footer,
		Labels:      l.Labels,
		SearchIndex: cfg.Base + strings.TrimPrefix(l.Link, "/") + SearchIndexFile,
	}
	for _, other := range cfg.Locales {
		if len(cfg.Locales) < 2 {
			break
		}
		target := other.Link
		if route != "" {
			if counterpart := other.Link + strings.TrimPrefix(route, l.Link); routes[counterpart] {
				target = counterpart
			}
		}
		data.Locales = append(data.Locales, navLink{Text: other.Label, Href: cfg.Href(target), Active: other.Key == l.Key})
	}
	return data
}

func (g *Generator) writePage(rel string, data pageData) error {
	outPath := filepath.Join(g.outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return g.tmpl.Execute(f, data)
}

// copyPublic copies ContentDir/public verbatim into the output root.
func (g *Generator) copyPublic() error {
	public := filepath.Join(g.contentDir, "public")
	if st, err := os.Stat(public); err != nil || !st.IsDir() {
		return nil
	}
	return filepath.WalkDir(public, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(public, p)
		if err != nil {
			return err
		}
		dst := filepath.Join(g.outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return copyFile(p, dst)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// outputPathFor maps a route to the HTML file that serves it.
func outputPathFor(route string) string {
	rel := strings.TrimPrefix(route, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		return rel + "index.html"
	}
	return rel + ".html"
}

func navData(cfg *Config, items []NavItem, route string) []navLink {
	out := make([]navLink, 0, len(items))
	for _, it := range items {
		n := navLink{Text: it.Text, Items: navData(cfg, it.Items, route)}
		if it.Link != "" {
			n.Href = cfg.Href(it.Link)
			n.Active = sameRoute(it.Link, route) ||
				(!isExternal(it.Link) && len(it.Link) > 1 && strings.HasSuffix(it.Link, "/") && strings.HasPrefix(route, it.Link))
		}
		for _, child := range n.Items {
			if child.Active {
				n.Active = true
			}
		}
		out = append(out, n)
	}
	return out
}

func sidebarData(cfg *Config, sb *Sidebar, route string) []sidebarGroup {
	groups := make([]sidebarGroup, 0, len(sb.Groups))
	for _, grp := range sb.Groups {
		sg := sidebarGroup{Text: grp.Text, Collapsed: grp.Collapsed}
		for _, it := range grp.Items {
			active := sameRoute(it.Link, route)
			if active {
				sg.Collapsed = false
			}
			sg.Items = append(sg.Items, navLink{Text: it.Text, Href: cfg.Href(it.Link), Active: active})
		}
		groups = append(groups, sg)
	}
	return groups
}

// adjacent returns the links before and after route in reading order.
func adjacent(cfg *Config, links []SidebarLink, route string) (prev, next *navLink) {
	for i, l := range links {
		if !sameRoute(l.Link, route) {
			continue
		}
		if i > 0 {
			prev = &navLink{Text: links[i-1].Text, Href: cfg.Href(links[i-1].Link)}
		}
		if i < len(links)-1 {
			next = &navLink{Text: links[i+1].Text, Href: cfg.Href(links[i+1].Link)}
		}
		return prev, next
	}
	return nil, nil
}

func renderHead(tags []HeadTag) template.HTML {
	var b strings.Builder
	for _, t := range tags {
		if t.Tag == "" {
			continue
		}
		b.WriteString("<" + template.HTMLEscapeString(t.Tag))
		for _, k := range sortedAttrKeys(t.Attrs) {
			fmt.Fprintf(&b, ` %s="%s"`, template.HTMLEscapeString(k), template.HTMLEscapeString(t.Attrs[k]))
		}
		b.WriteString(">\n")
	}
	return template.HTML(b.String())
}

func sortedAttrKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rewriteLinks points links between pages at their generated URLs:
// "button.md#usage" becomes "button#usage" (or "button.html#usage"
// without clean URLs) and site-absolute links gain the base path.
func rewriteLinks(doc ast.Node, cfg *Config) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		link, ok := n.(*ast.Link)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		dest := string(link.Destination)
		if dest == "" || isExternal(dest) || strings.HasPrefix(dest, "#") {
			return ast.WalkContinue, nil
		}
		target, frag := splitFragment(dest)
		if ext := path.Ext(target); ext == ".md" {
			target = strings.TrimSuffix(target, ext)
			if strings.HasSuffix(target, "/index") || target == "index" {
				target = strings.TrimSuffix(target, "index")
			}
		}
		switch {
		case strings.HasPrefix(target, "/"):
			target = cfg.Href(target)
		case !cfg.CleanURLs && target != "" && !strings.HasSuffix(target, "/") && path.Ext(target) == "":
			target += ".html"
		}
		link.Destination = []byte(target + frag)
		return ast.WalkContinue, nil
	})
}

// collectHeadings returns the h2 and h3 headings for the outline.
func collectHeadings(doc ast.Node, source []byte) []heading {
	var out []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		if h.Level == 2 || h.Level == 3 {
			var id string
			if v, ok := h.AttributeString("id"); ok {
				if b, ok := v.([]byte); ok {
					id = string(b)
				}
			}
			out = append(out, heading{Level: h.Level, ID: id, Text: nodeText(h, source)})
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
