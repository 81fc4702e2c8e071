package site

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes the generated guide, corresponding to site.yml.
type Config struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Base        string       `yaml:"base"`
	CleanURLs   bool         `yaml:"clean_urls"`
	Head        []HeadTag    `yaml:"head"`
	SocialLinks []SocialLink `yaml:"social_links"`
	EditLink    EditLink     `yaml:"edit_link"`
	Footer      Footer       `yaml:"footer"`
	Locales     []Locale     `yaml:"locales"`
}

// HeadTag is an extra element emitted in every page's <head>.
type HeadTag struct {
	Tag   string            `yaml:"tag"`
	Attrs map[string]string `yaml:"attrs"`
}

// SocialLink is an icon link shown in the top bar.
type SocialLink struct {
	Icon string `yaml:"icon"`
	Link string `yaml:"link"`
}

// EditLink points each page at its source. ":path" in Pattern is replaced
// with the page's path relative to the content root.
type EditLink struct {
	Pattern string `yaml:"pattern"`
	Text    string `yaml:"text"`
}

// Footer is shown at the bottom of every page.
type Footer struct {
	Message   string `yaml:"message"`
	Copyright string `yaml:"copyright"`
}

// Locale is one language of the guide, served under Link.
type Locale struct {
	Key         string    `yaml:"key"`
	Label       string    `yaml:"label"`
	Lang        string    `yaml:"lang"`
	Link        string    `yaml:"link"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Nav         []NavItem `yaml:"nav"`
	Sidebar     []Sidebar `yaml:"sidebar"`
	Labels      Labels    `yaml:"labels"`
}

// NavItem is a top bar entry. Items, when set, make it a dropdown.
type NavItem struct {
	Text  string    `yaml:"text"`
	Link  string    `yaml:"link"`
	Items []NavItem `yaml:"items"`
}

// Sidebar applies to every page whose route starts with Prefix.
type Sidebar struct {
	Prefix string         `yaml:"prefix"`
	Groups []SidebarGroup `yaml:"groups"`
}

// SidebarGroup is a titled list of links.
type SidebarGroup struct {
	Text      string        `yaml:"text"`
	Collapsed bool          `yaml:"collapsed"`
	Items     []SidebarLink `yaml:"items"`
}

// SidebarLink is one sidebar entry.
type SidebarLink struct {
	Text string `yaml:"text"`
	Link string `yaml:"link"`
}

// Labels are the locale's UI strings.
type Labels struct {
	Outline     string `yaml:"outline"`
	Prev        string `yaml:"prev"`
	Next        string `yaml:"next"`
	ReturnToTop string `yaml:"return_to_top"`
	Search      string `yaml:"search"`
}

var defaultLabels = Labels{
	Outline:     "On this page",
	Prev:        "Previous page",
	Next:        "Next page",
	ReturnToTop: "Return to top",
	Search:      "Search",
}

// DefaultConfig is used when the content directory has no site.yml: a
// single English locale at the root with no nav or sidebar.
func DefaultConfig(title string) *Config {
	c := &Config{
		Title:     title,
		Base:      "/",
		CleanURLs: true,
		Locales:   []Locale{{Key: "root", Label: "English", Lang: "en-US", Link: "/"}},
	}
	c.applyDefaults()
	return c
}

// LoadConfig reads and validates a site.yml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading site config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing site config %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("site config %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Base == "" {
		c.Base = "/"
	}
	if c.EditLink.Text == "" {
		c.EditLink.Text = "Edit this page"
	}
	for i := range c.Locales {
		l := &c.Locales[i]
		if l.Title == "" {
			l.Title = c.Title
		}
		if l.Description == "" {
			l.Description = c.Description
		}
		fill := func(dst *string, def string) {
			if *dst == "" {
				*dst = def
			}
		}
		fill(&l.Labels.Outline, defaultLabels.Outline)
		fill(&l.Labels.Prev, defaultLabels.Prev)
		fill(&l.Labels.Next, defaultLabels.Next)
		fill(&l.Labels.ReturnToTop, defaultLabels.ReturnToTop)
		fill(&l.Labels.Search, defaultLabels.Search)
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if !strings.HasPrefix(c.Base, "/") || !strings.HasSuffix(c.Base, "/") {
		errs = append(errs, fmt.Errorf("base %q must start and end with /", c.Base))
	}
	if c.EditLink.Pattern != "" && !strings.Contains(c.EditLink.Pattern, ":path") {
		errs = append(errs, errors.New("edit_link.pattern must contain :path"))
	}
	if len(c.Locales) == 0 {
		errs = append(errs, errors.New("at least one locale is required"))
	}

	keys := make(map[string]bool)
	links := make(map[string]bool)
	for _, l := range c.Locales {
		if l.Key == "" {
			errs = append(errs, fmt.Errorf("locale %q: key is required", l.Link))
		} else if keys[l.Key] {
			errs = append(errs, fmt.Errorf("duplicate locale key %q", l.Key))
		}
		keys[l.Key] = true
		if !strings.HasPrefix(l.Link, "/") || !strings.HasSuffix(l.Link, "/") {
			errs = append(errs, fmt.Errorf("locale %q: link %q must start and end with /", l.Key, l.Link))
		} else if links[l.Link] {
			errs = append(errs, fmt.Errorf("duplicate locale link %q", l.Link))
		}
		links[l.Link] = true
		for _, sb := range l.Sidebar {
			if !strings.HasPrefix(sb.Prefix, l.Link) {
				errs = append(errs, fmt.Errorf("locale %q: sidebar prefix %q is outside %q", l.Key, sb.Prefix, l.Link))
			}
		}
		if err := validateNav(l.Nav); err != nil {
			errs = append(errs, fmt.Errorf("locale %q: %w", l.Key, err))
		}
	}
	if len(c.Locales) > 0 && !links["/"] {
		errs = append(errs, errors.New("one locale must be linked at /"))
	}
	return errors.Join(errs...)
}

func validateNav(items []NavItem) error {
	for _, it := range items {
		if it.Text == "" {
			return errors.New("nav item without text")
		}
		if it.Link == "" && len(it.Items) == 0 {
			return fmt.Errorf("nav item %q needs a link or items", it.Text)
		}
		if err := validateNav(it.Items); err != nil {
			return err
		}
	}
	return nil
}

// LocaleFor returns the locale whose link is the longest prefix of route.
func (c *Config) LocaleFor(route string) *Locale {
	var best *Locale
	for i := range c.Locales {
		l := &c.Locales[i]
		if !strings.HasPrefix(route, l.Link) && route+"/" != l.Link {
			continue
		}
		if best == nil || len(l.Link) > len(best.Link) {
			best = l
		}
	}
	return best
}

// SidebarFor returns the sidebar with the longest prefix matching route, or
// nil when none applies.
func (l *Locale) SidebarFor(route string) *Sidebar {
	var best *Sidebar
	for i := range l.Sidebar {
		sb := &l.Sidebar[i]
		if !strings.HasPrefix(route, sb.Prefix) && route+"/" != sb.Prefix {
			continue
		}
		if best == nil || len(sb.Prefix) > len(best.Prefix) {
			best = sb
		}
	}
	return best
}

// Links flattens the sidebar in reading order.
func (sb *Sidebar) Links() []SidebarLink {
	var out []SidebarLink
	for _, g := range sb.Groups {
		out = append(out, g.Items...)
	}
	return out
}

// Href turns a route into the URL written into pages, honouring Base and
// CleanURLs. External links are returned unchanged.
func (c *Config) Href(route string) string {
	if isExternal(route) {
		return route
	}
	route, frag := splitFragment(route)
	href := c.Base + strings.TrimPrefix(route, "/")
	if !c.CleanURLs && route != "" && !strings.HasSuffix(route, "/") && !strings.HasSuffix(route, ".html") {
		href += ".html"
	}
	return href + frag
}

// EditURL returns the edit link for a page, or "" when none is configured.
func (c *Config) EditURL(relPath string) string {
	if c.EditLink.Pattern == "" {
		return ""
	}
	return strings.ReplaceAll(c.EditLink.Pattern, ":path", relPath)
}

// LocaleKeys returns the configured locale keys, sorted.
func (c *Config) LocaleKeys() []string {
	keys := make([]string, 0, len(c.Locales))
	for _, l := range c.Locales {
		keys = append(keys, l.Key)
	}
	sort.Strings(keys)
	return keys
}

func isExternal(link string) bool {
	return strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") ||
		strings.HasPrefix(link, "mailto:") || strings.HasPrefix(link, "//")
}

func splitFragment(link string) (string, string) {
	if i := strings.IndexByte(link, '#'); i >= 0 {
		return link[:i], link[i:]
	}
	return link, ""
}

// sameRoute compares a configured link with a page route, ignoring a
// trailing ".html" or slash.
func sameRoute(link, route string) bool {
	norm := func(s string) string {
		s, _ = splitFragment(s)
		s = strings.TrimSuffix(s, ".html")
		if len(s) > 1 {
			s = strings.TrimSuffix(s, "/")
		}
		return s
	}
	return norm(link) == norm(route)
}
