package site

const pageTemplate = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} | {{.SiteTitle}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
{{.Head}}<link rel="stylesheet" href="{{.Base}}style.css">
<script>try{if(localStorage.getItem("theme")==="dark")document.documentElement.classList.add("dark")}catch(e){}</script>
</head>
<body>
<header class="topbar">
  <button class="sidebar-toggle" aria-label="Toggle sidebar">&#9776;</button>
  <a class="brand" href="{{.Home}}">{{.SiteTitle}}</a>
  <div class="search">
    <input id="search-input" type="search" placeholder="{{.Labels.Search}}" data-index="{{.SearchIndex}}" autocomplete="off">
    <div id="search-results" class="search-results"></div>
  </div>
  <nav class="nav">
    {{- range .Nav}}
    {{- if .Items}}
    <div class="nav-group{{if .Active}} active{{end}}">
      <span>{{.Text}}</span>
      <div class="nav-menu">
        {{- range .Items}}
        <a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Text}}</a>
        {{- end}}
      </div>
    </div>
    {{- else}}
    <a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Text}}</a>
    {{- end}}
    {{- end}}
    {{- if .Locales}}
    <div class="nav-group locales">
      <span>&#127760;</span>
      <div class="nav-menu">
        {{- range .Locales}}
        <a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Text}}</a>
        {{- end}}
      </div>
    </div>
    {{- end}}
    {{- range .Social}}
    <a class="social" href="{{.Link}}" aria-label="{{.Icon}}">{{.Icon}}</a>
    {{- end}}
    <button class="theme-toggle" aria-label="Toggle dark mode">&#9680;</button>
  </nav>
</header>
<div class="layout">
  <aside class="sidebar">
    {{- if .Sidebar}}
    {{- range .Sidebar}}
    <section class="group{{if .Collapsed}} collapsed{{end}}">
      <h2 class="group-title">{{.Text}}</h2>
      <ul>
        {{- range .Items}}
        <li><a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Text}}</a></li>
        {{- end}}
      </ul>
    </section>
    {{- end}}
    {{- else}}
    {{.TreeHTML}}
    {{- end}}
  </aside>
  <main class="content">
    <article class="doc">
{{.Content}}
    </article>
    {{- if .EditURL}}
    <p class="edit-link"><a href="{{.EditURL}}">{{.EditText}}</a></p>
    {{- end}}
    {{- if or .Prev .Next}}
    <nav class="pager">
      {{- with .Prev}}
      <a class="prev" href="{{.Href}}"><span>{{$.Labels.Prev}}</span>{{.Text}}</a>
      {{- end}}
      {{- with .Next}}
      <a class="next" href="{{.Href}}"><span>{{$.Labels.Next}}</span>{{.Text}}</a>
      {{- end}}
    </nav>
    {{- end}}
  </main>
  {{- if .Outline}}
  <aside class="outline">
    <h2>{{.Labels.Outline}}</h2>
    <ul>
      {{- range .Outline}}
      <li class="level-{{.Level}}"><a href="#{{.ID}}">{{.Text}}</a></li>
      {{- end}}
    </ul>
    <a class="to-top" href="#">{{.Labels.ReturnToTop}}</a>
  </aside>
  {{- end}}
</div>
{{- if or .Footer.Message .Footer.Copyright}}
<footer class="footer">
  {{- if .Footer.Message}}<p>{{.Footer.Message}}</p>{{end}}
  {{- if .Footer.Copyright}}<p>{{.Footer.Copyright}}</p>{{end}}
</footer>
{{- end}}
<script src="{{.Base}}script.js"></script>
</body>
</html>
`

const cssContent = `:root {
  --bg: #ffffff;
  --bg-soft: #f6f6f7;
  --text: #213547;
  --text-soft: #476582;
  --border: #e2e2e3;
  --brand: #409eff;
  --code-bg: #f6f8fa;
  --topbar-h: 56px;
}
html.dark {
  --bg: #1b1b1f;
  --bg-soft: #202127;
  --text: #dfdfd6;
  --text-soft: #98989f;
  --border: #2e2e32;
  --code-bg: #161618;
}
* { box-sizing: border-box; }
body {
  margin: 0;
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "PingFang SC", "Microsoft YaHei", sans-serif;
  background: var(--bg);
  color: var(--text);
  line-height: 1.7;
}
a { color: var(--brand); text-decoration: none; }
a:hover { text-decoration: underline; }
.topbar {
  position: sticky; top: 0; z-index: 10;
  display: flex; align-items: center; gap: 16px;
  height: var(--topbar-h); padding: 0 24px;
  background: var(--bg); border-bottom: 1px solid var(--border);
}
.brand { font-weight: 600; color: var(--text); white-space: nowrap; }
.search { position: relative; flex: 1; max-width: 320px; }
.search input {
  width: 100%; padding: 6px 10px;
  border: 1px solid var(--border); border-radius: 6px;
  background: var(--bg-soft); color: var(--text);
}
.search-results {
  display: none; position: absolute; top: 40px; left: 0; right: 0;
  max-height: 60vh; overflow-y: auto;
  background: var(--bg); border: 1px solid var(--border); border-radius: 6px;
}
.search-results.open { display: block; }
.search-results a { display: block; padding: 8px 12px; color: var(--text); }
.search-results a small { display: block; color: var(--text-soft); }
.nav { display: flex; align-items: center; gap: 16px; margin-left: auto; }
.nav a { color: var(--text); }
.nav a.active { color: var(--brand); }
.nav-group { position: relative; cursor: default; }
.nav-group.active > span { color: var(--brand); }
.nav-menu {
  display: none; position: absolute; right: 0; top: 100%; min-width: 160px;
  padding: 8px 0; background: var(--bg); border: 1px solid var(--border); border-radius: 8px;
}
.nav-group:hover .nav-menu { display: block; }
.nav-menu a { display: block; padding: 4px 16px; white-space: nowrap; }
.theme-toggle, .sidebar-toggle {
  border: none; background: none; color: var(--text); font-size: 18px; cursor: pointer;
}
.sidebar-toggle { display: none; }
.layout { display: flex; max-width: 1440px; margin: 0 auto; }
.sidebar {
  position: sticky; top: var(--topbar-h); align-self: flex-start;
  width: 272px; height: calc(100vh - var(--topbar-h)); overflow-y: auto;
  padding: 24px; border-right: 1px solid var(--border); background: var(--bg-soft);
}
.sidebar ul { list-style: none; margin: 0; padding-left: 12px; }
.sidebar > ul, .sidebar section > ul { padding-left: 0; }
.sidebar a { color: var(--text-soft); font-size: 14px; }
.sidebar a.active { color: var(--brand); font-weight: 600; }
.group-title { font-size: 14px; margin: 16px 0 4px; cursor: pointer; }
.group.collapsed ul { display: none; }
.dir > ul { display: none; }
.dir.expanded > ul { display: block; }
.dir-toggle { cursor: pointer; font-size: 14px; font-weight: 600; }
.content { flex: 1; min-width: 0; padding: 32px 48px 96px; }
.doc { max-width: 768px; }
.doc pre { padding: 16px; overflow-x: auto; border-radius: 8px; background: var(--code-bg); }
.doc code { font-size: 0.875em; }
.doc table { border-collapse: collapse; }
.doc th, .doc td { padding: 6px 12px; border: 1px solid var(--border); }
.doc blockquote { margin: 16px 0; padding: 0 16px; border-left: 4px solid var(--brand); color: var(--text-soft); }
.edit-link { margin-top: 48px; font-size: 14px; }
.pager { display: flex; gap: 16px; margin-top: 24px; max-width: 768px; }
.pager a { flex: 1; padding: 12px 16px; border: 1px solid var(--border); border-radius: 8px; }
.pager a span { display: block; font-size: 12px; color: var(--text-soft); }
.pager .next { text-align: right; }
.outline {
  position: sticky; top: var(--topbar-h); align-self: flex-start;
  width: 224px; padding: 32px 16px; font-size: 13px;
}
.outline h2 { font-size: 13px; margin: 0 0 8px; }
.outline ul { list-style: none; margin: 0; padding: 0; }
.outline .level-3 { padding-left: 12px; }
.outline a { color: var(--text-soft); }
.to-top { display: block; margin-top: 16px; }
.footer { padding: 24px; text-align: center; font-size: 14px; color: var(--text-soft); border-top: 1px solid var(--border); }
.footer p { margin: 0; }
@media (max-width: 960px) {
  .outline { display: none; }
  .sidebar-toggle { display: inline; }
  .sidebar { position: fixed; left: 0; z-index: 9; transform: translateX(-100%); transition: transform 0.2s; }
  body.sidebar-open .sidebar { transform: none; }
  .content { padding: 24px; }
}
`

const jsContent = `(function() {
  var root = document.documentElement;

  var themeBtn = document.querySelector(".theme-toggle");
  if (themeBtn) {
    themeBtn.addEventListener("click", function() {
      var dark = root.classList.toggle("dark");
      try { localStorage.setItem("theme", dark ? "dark" : "light"); } catch (e) {}
    });
  }

  var sidebarBtn = document.querySelector(".sidebar-toggle");
  if (sidebarBtn) {
    sidebarBtn.addEventListener("click", function() {
      document.body.classList.toggle("sidebar-open");
    });
  }

  document.querySelectorAll(".dir-toggle").forEach(function(el) {
    el.addEventListener("click", function() {
      el.parentElement.classList.toggle("expanded");
    });
  });
  document.querySelectorAll(".group-title").forEach(function(el) {
    el.addEventListener("click", function() {
      el.parentElement.classList.toggle("collapsed");
    });
  });

  var input = document.getElementById("search-input");
  var results = document.getElementById("search-results");
  if (!input || !results) return;

  var index = null;
  function load() {
    if (index) return Promise.resolve(index);
    return fetch(input.dataset.index).then(function(r) { return r.json(); }).then(function(data) {
      index = data || [];
      return index;
    });
  }

  function escape(s) {
    var d = document.createElement("div");
    d.textContent = s || "";
    return d.innerHTML;
  }

  function score(entry, terms) {
    var title = (entry.title || "").toLowerCase();
    var summary = (entry.summary || "").toLowerCase();
    var body = (entry.content || "").toLowerCase();
    var s = 0;
    terms.forEach(function(t) {
      if (title.indexOf(t) >= 0) s += 5;
      if (summary.indexOf(t) >= 0) s += 3;
      if (body.indexOf(t) >= 0) s += 1;
    });
    return s;
  }

  var timer = null;
  input.addEventListener("input", function() {
    clearTimeout(timer);
    timer = setTimeout(function() {
      var q = input.value.trim().toLowerCase();
      if (!q) {
        results.classList.remove("open");
        results.innerHTML = "";
        return;
      }
      var terms = q.split(/\s+/);
      load().then(function(entries) {
        var hits = entries
          .map(function(e) { return { e: e, s: score(e, terms) }; })
          .filter(function(h) { return h.s > 0; })
          .sort(function(a, b) { return b.s - a.s; })
          .slice(0, 10);
        results.innerHTML = hits.map(function(h) {
          return '<a href="' + escape(h.e.path) + '">' + escape(h.e.title) +
            "<small>" + escape(h.e.summary) + "</small></a>";
        }).join("");
        results.classList.toggle("open", hits.length > 0);
      });
    }, 150);
  });

  document.addEventListener("keydown", function(ev) {
    if (ev.key === "/" && document.activeElement !== input) {
      ev.preventDefault();
      input.focus();
    }
    if (ev.key === "Escape") {
      results.classList.remove("open");
      input.blur();
    }
  });
})();
`
