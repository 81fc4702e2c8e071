package server

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/studyguide/internal/site"
	"github.com/ziadkadry99/studyguide/internal/uistate"
)

// GuideHandler serves a generated site from dir under prefix ("" for the
// root). Clean URLs resolve to their .html file, unknown paths get the
// site's 404 page, and the bare prefix redirects to the locale matching
// the visitor's language. cfg and ui may be nil.
func GuideHandler(dir, prefix string, cfg *site.Config, ui *uistate.State) http.Handler {
	return &guideHandler{dir: dir, prefix: strings.TrimSuffix(prefix, "/"), site: cfg, ui: ui}
}

type guideHandler struct {
	dir    string
	prefix string
	site   *site.Config
	ui     *uistate.State
}

func (h *guideHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, h.prefix)
	if rel == "" {
		http.Redirect(w, r, h.prefix+"/", http.StatusMovedPermanently)
		return
	}
	if rel == "/" {
		if link := h.localeLink(r); link != "" {
			http.Redirect(w, r, h.prefix+link, http.StatusFound)
			return
		}
	}

	for _, cand := range candidates(rel) {
		full := filepath.Join(h.dir, filepath.FromSlash(cand))
		if st, err := os.Stat(full); err == nil && !st.IsDir() {
			h.serveFile(w, r, full, st)
			return
		}
	}
	h.notFound(w)
}

// candidates lists the files that may serve rel, most specific first.
func candidates(rel string) []string {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.HasSuffix(rel, "/") {
		return []string{path.Join(clean, "index.html")}
	}
	return []string{clean, clean + ".html", path.Join(clean, "index.html")}
}

func (h *guideHandler) serveFile(w http.ResponseWriter, r *http.Request, full string, st os.FileInfo) {
	f, err := os.Open(full)
	if err != nil {
		h.notFound(w)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, st.Name(), st.ModTime(), f)
}

func (h *guideHandler) notFound(w http.ResponseWriter) {
	f, err := os.Open(filepath.Join(h.dir, "404.html"))
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	io.Copy(w, f)
}

// localeLink returns the link of the non-root locale matching the
// visitor's language, or "" to stay on the root locale.
func (h *guideHandler) localeLink(r *http.Request) string {
	if h.site == nil || h.ui == nil {
		return ""
	}
	lang := h.ui.Language()
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		lang = h.ui.NegotiateLanguage(accept)
	}
	for _, l := range h.site.Locales {
		if l.Link != "/" && strings.EqualFold(l.Lang, lang) {
			return l.Link
		}
	}
	return ""
}
