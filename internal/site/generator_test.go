package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func guideDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	dir, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "guide"))
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	return dir
}

func generateGuide(t *testing.T, cfg *Config) (string, Result) {
	t.Helper()
	out := t.TempDir()
	g, err := NewGenerator(Options{
		ContentDir: guideDir(t),
		OutputDir:  out,
		Exclude:    []string{"**/drafts/**"},
		Config:     cfg,
		ConfigFile: "site.yml",
	})
	if err != nil {
		t.Fatalf("NewGenerator() error: %v", err)
	}
	res, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return out, res
}

func readOutput(t *testing.T, out, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

func assertContains(t *testing.T, page, haystack string, needles ...string) {
	t.Helper()
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			t.Errorf("%s: missing %q", page, n)
		}
	}
}

func TestGenerate(t *testing.T) {
	out, res := generateGuide(t, nil)

	if res.Pages != 6 {
		t.Errorf("Pages = %d, want 6", res.Pages)
	}
	if res.Locales["root"] != 4 || res.Locales["zh"] != 2 {
		t.Errorf("Locales = %v, want root:4 zh:2", res.Locales)
	}

	for _, rel := range []string{
		"index.html",
		"quickstart.html",
		"basic-components/button.html",
		"basic-components/icon.html",
		"zh/index.html",
		"zh/basic-components/button.html",
		"404.html",
		"style.css",
		"script.js",
		"search-index.json",
		"zh/search-index.json",
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}
	for _, rel := range []string{"drafts/wip.html", "node_modules/pkg/readme.html"} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err == nil {
			t.Errorf("%s should not be generated", rel)
		}
	}
}

func TestGenerate_PageChrome(t *testing.T) {
	out, _ := generateGuide(t, nil)
	page := readOutput(t, out, "basic-components/button.html")

	assertContains(t, "button.html", page,
		`<html lang="en-US">`,
		`<title>Button | Element Plus Study Guide</title>`,
		`<meta content="#409eff" name="theme-color">`,
		`<h2 class="group-title">Basic Components</h2>`,
		`<a href="/basic-components/button" class="active">Button</a>`,
		`<a class="next" href="/basic-components/icon"><span>Next</span>Icon</a>`,
		`<li class="level-2"><a href="#types">Types</a></li>`,
		`https://github.com/shingle666/element-plus-study/edit/main/docs/basic-components/button.md`,
		`Copyright © 2025 Element Plus Study Guide`,
		`<a href="/zh/basic-components/button">简体中文</a>`,
		`data-index="/search-index.json"`,
	)
	if strings.Contains(page, `class="prev"`) {
		t.Error("first sidebar page should have no previous link")
	}

	icon := readOutput(t, out, "basic-components/icon.html")
	assertContains(t, "icon.html", icon,
		`<a class="prev" href="/basic-components/button"><span>Previous</span>Button</a>`,
		`<a href="/zh/">简体中文</a>`,
	)
}

func TestGenerate_Locales(t *testing.T) {
	out, _ := generateGuide(t, nil)
	page := readOutput(t, out, "zh/basic-components/button.html")

	assertContains(t, "zh button", page,
		`<html lang="zh-CN">`,
		`<title>按钮 | Element Plus 学习指南</title>`,
		`<h2 class="group-title">基础组件</h2>`,
		`data-index="/zh/search-index.json"`,
		`<a href="/basic-components/button">English</a>`,
		`<a href="/zh/basic-components/button" class="active">简体中文</a>`,
	)
	if strings.Contains(page, `class="outline"`) {
		t.Error("page without h2/h3 should have no outline")
	}

	home := readOutput(t, out, "zh/index.html")
	assertContains(t, "zh index", home, `<a href="/zh/" class="active">首页</a>`)
}

func TestGenerate_TreeFallbackAndLinks(t *testing.T) {
	out, _ := generateGuide(t, nil)
	page := readOutput(t, out, "index.html")

	assertContains(t, "index.html", page,
		`<a href="/quickstart">quick start</a>`,
		`<li class="dir"><span class="dir-toggle">Basic Components</span>`,
		`<a href="/" class="active">Element Plus Study Guide</a>`,
		`<meta name="description" content="Element Plus Deep Learning Plan">`,
		`<a class="next" href="/basic-components/button">`,
	)

	quick := readOutput(t, out, "quickstart.html")
	assertContains(t, "quickstart.html", quick,
		`<a class="prev" href="/basic-components/icon">`,
		`Environment Setup &amp; Quick Start`,
	)
}

func TestGenerate_WithoutCleanURLs(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(guideDir(t), "site.yml"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	cfg.CleanURLs = false
	cfg.Base = "/guide/"

	out, _ := generateGuide(t, cfg)
	page := readOutput(t, out, "index.html")
	assertContains(t, "index.html", page,
		`<a href="/guide/quickstart.html">quick start</a>`,
		`<link rel="stylesheet" href="/guide/style.css">`,
		`data-index="/guide/search-index.json"`,
	)
}

func TestGenerate_SearchIndex(t *testing.T) {
	out, _ := generateGuide(t, nil)

	var entries []SearchEntry
	if err := json.Unmarshal([]byte(readOutput(t, out, "search-index.json")), &entries); err != nil {
		t.Fatalf("unmarshal search index: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("root index has %d entries, want 4", len(entries))
	}
	var button *SearchEntry
	for i := range entries {
		if entries[i].Route == "/basic-components/button" {
			button = &entries[i]
		}
	}
	if button == nil {
		t.Fatal("button page missing from search index")
	}
	if button.Summary != "Buttons trigger an operation." {
		t.Errorf("Summary = %q", button.Summary)
	}
	if strings.Contains(button.Content, "##") {
		t.Errorf("Content should be plain text: %q", button.Content)
	}

	var zh []SearchEntry
	if err := json.Unmarshal([]byte(readOutput(t, out, "zh/search-index.json")), &zh); err != nil {
		t.Fatalf("unmarshal zh search index: %v", err)
	}
	if len(zh) != 2 {
		t.Errorf("zh index has %d entries, want 2", len(zh))
	}
}

func TestGenerate_DefaultConfig(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "index.md"), []byte("# Hello\n\nWorld.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(src, "public"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "public", "logo.svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	g, err := NewGenerator(Options{ContentDir: src, OutputDir: out, ConfigFile: "site.yml"})
	if err != nil {
		t.Fatalf("NewGenerator() error: %v", err)
	}
	res, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.Pages != 1 {
		t.Errorf("Pages = %d, want 1", res.Pages)
	}
	if len(g.Config().Locales) != 1 {
		t.Errorf("default config should have one locale")
	}
	if _, err := os.Stat(filepath.Join(out, "logo.svg")); err != nil {
		t.Errorf("public asset not copied: %v", err)
	}
}

func TestGenerate_NoPages(t *testing.T) {
	g, err := NewGenerator(Options{ContentDir: t.TempDir(), OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewGenerator() error: %v", err)
	}
	if _, err := g.Generate(context.Background()); err == nil {
		t.Fatal("expected error for empty content directory")
	}
}

func TestGenerate_InvalidSiteConfig(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "site.yml"), []byte("title: x\nlocales:\n  - key: zh\n    link: /zh/\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewGenerator(Options{ContentDir: src, OutputDir: t.TempDir(), ConfigFile: "site.yml"}); err == nil {
		t.Fatal("expected error for config without a root locale")
	}
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "index.md"), []byte("# Home\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := NewGenerator(Options{ContentDir: src, OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewGenerator() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	built := make(chan Result, 10)
	done := make(chan error, 1)
	go func() {
		done <- g.Watch(ctx, 20*time.Millisecond, func(r Result, err error) {
			if err != nil {
				return
			}
			select {
			case built <- r:
			default:
			}
		})
	}()

	// The watcher registers asynchronously, so keep touching the page
	// until a rebuild is observed.
	page := filepath.Join(src, "next.md")
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case r := <-built:
			if r.Pages != 2 {
				t.Errorf("rebuild Pages = %d, want 2", r.Pages)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch() error: %v", err)
			}
			return
		case <-tick.C:
			if err := os.WriteFile(page, []byte("# Next\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no rebuild observed")
		}
	}
}
