package server

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Snapshot.FileName}}{{.Snapshot.FileName}} - {{end}}{{.Snapshot.About.Name}}</title>
<link id="code-theme" rel="stylesheet" href="/api/v1/theme.css">
<style>
  body { margin: 0; font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; }
  body.dark { background: #1e1e1e; color: #d4d4d4; }
  body.light { background: #ffffff; color: #24292f; }
  body.dark a { color: #58a6ff; }
  #toolbar { position: sticky; top: 0; display: flex; gap: .5rem; align-items: center; padding: .4rem .8rem; border-bottom: 1px solid #8884; backdrop-filter: blur(6px); }
  #toolbar .file { font-weight: 600; margin-right: auto; }
  #search-bar { display: none; gap: .3rem; align-items: center; }
  #search-bar.open { display: flex; }
  #content { max-width: 52rem; margin: 0 auto; padding: 1.5rem 2rem; transform-origin: top center; }
  #content pre { padding: .8rem; border-radius: 6px; overflow-x: auto; }
  mark.search-highlight { background: #ffe58f; color: inherit; border-radius: 2px; }
  body.dark mark.search-highlight { background: #6b5b00; }
  mark.search-highlight-active { background: #ff9632; }
  body.dark mark.search-highlight-active { background: #d16a00; }
  #about { display: none; position: fixed; inset: 0; background: #0008; align-items: center; justify-content: center; }
  #about.open { display: flex; }
  #about .box { background: inherit; padding: 1.5rem 2rem; border-radius: 8px; text-align: center; }
  body.dark #about .box { background: #252526; }
  body.light #about .box { background: #f6f8fa; }
  .empty { opacity: .6; text-align: center; margin-top: 4rem; }
</style>
</head>
<body class="{{.Snapshot.Theme}}">
<div id="toolbar">
  <span class="file" id="file-name">{{.Snapshot.FileName}}</span>
  <form id="open-form"><input id="open-path" type="text" placeholder="path/to/file.md" size="28"></form>
  <div id="search-bar"{{if .Snapshot.Query}} class="open"{{end}}>
    <input id="search-input" type="search" placeholder="Find" value="{{.Snapshot.Query}}">
    <span id="match-counter"></span>
    <button id="search-prev" title="Previous (Shift+Enter)">&uarr;</button>
    <button id="search-next" title="Next (Enter)">&darr;</button>
    <button id="search-close" title="Close (Escape)">&times;</button>
  </div>
  <button data-command="zoom-out" title="Zoom out">&minus;</button>
  <span id="zoom-level"></span>
  <button data-command="zoom-in" title="Zoom in">+</button>
  <button data-command="toggle-theme" title="Toggle theme">&#9680;</button>
  <button data-command="show-about" title="About">?</button>
</div>
<article id="content" style="zoom: {{.Snapshot.Zoom}}">{{if .Content}}{{.Content}}{{else}}<p class="empty">Open a markdown file to get started.</p>{{end}}</article>
<div id="about"{{if .Snapshot.AboutVisible}} class="open"{{end}}>
  <div class="box">
    <h2 id="about-name">{{.Snapshot.About.Name}}</h2>
    <p id="about-version">{{.Snapshot.About.Version}}</p>
    <p id="about-author">{{.Snapshot.About.Author}}</p>
    <button id="about-close">Close</button>
  </div>
</div>
<script>
(function () {
  const $ = (id) => document.getElementById(id);
  let theme = {{.Snapshot.Theme}};

  // Requests run one at a time in issue order, and only the newest response is
  // drawn. A supersedable request is dropped when a newer one to the same URL
  // was issued before its turn.
  let chain = Promise.resolve();
  let issued = 0;
  const latest = {};

  async function request(method, url, body) {
    const res = await fetch(url, {
      method: method,
      headers: body ? {"Content-Type": "application/json"} : {},
      body: body ? JSON.stringify(body) : undefined,
    });
    const data = await res.json();
    if (!res.ok) {
      alert(data.error || res.statusText);
      return null;
    }
    return data;
  }

  function call(method, url, body, supersedable) {
    const seq = ++issued;
    latest[url] = seq;
    const run = chain.then(() => {
      if (supersedable && latest[url] !== seq) return null;
      return request(method, url, body);
    }).then((data) => {
      if (data && seq === issued) apply(data);
      return data;
    });
    chain = run.catch(() => null);
    return run;
  }

  function apply(s) {
    $("content").innerHTML = s.html || '<p class="empty">Open a markdown file to get started.</p>';
    $("file-name").textContent = s.file_name || "";
    document.title = s.file_name ? s.file_name + " - " + s.about.name : s.about.name;
    $("match-counter").textContent = s.query ? (s.match_count ? (s.active_index + 1) + " of " + s.match_count : "No matches") : "";
    $("zoom-level").textContent = Math.round(s.zoom * 100) + "%";
    $("content").style.zoom = s.zoom;
    if (s.theme !== theme) {
      document.body.className = s.theme;
      $("code-theme").href = "/api/v1/theme.css?" + s.theme;
      theme = s.theme;
    }
    $("about").classList.toggle("open", s.about_visible);
    if (s.active_anchor) {
      const el = document.getElementById(s.active_anchor);
      if (el) el.scrollIntoView({block: "center"});
    }
  }

  function openSearch() {
    $("search-bar").classList.add("open");
    $("search-input").focus();
    $("search-input").select();
  }

  function closeSearch() {
    $("search-bar").classList.remove("open");
    $("search-input").value = "";
    call("DELETE", "/api/v1/search");
  }

  $("search-input").addEventListener("input", (e) => call("POST", "/api/v1/search", {query: e.target.value}, true));
  $("search-input").addEventListener("keydown", (e) => {
    if (e.key === "Enter") {
      e.preventDefault();
      call("POST", e.shiftKey ? "/api/v1/search/previous" : "/api/v1/search/next");
    }
  });
  $("search-next").addEventListener("click", () => call("POST", "/api/v1/search/next"));
  $("search-prev").addEventListener("click", () => call("POST", "/api/v1/search/previous"));
  $("search-close").addEventListener("click", closeSearch);
  $("about-close").addEventListener("click", () => call("DELETE", "/api/v1/about"));
  $("open-form").addEventListener("submit", (e) => {
    e.preventDefault();
    const path = $("open-path").value.trim();
    if (path) call("POST", "/api/v1/files/open", {path: path});
  });
  document.querySelectorAll("[data-command]").forEach((b) =>
    b.addEventListener("click", () => call("POST", "/api/v1/commands/" + b.dataset.command)));

  document.addEventListener("keydown", (e) => {
    const mod = e.ctrlKey || e.metaKey;
    if (mod && e.key === "f") { e.preventDefault(); openSearch(); }
    else if (mod && (e.key === "=" || e.key === "+")) { e.preventDefault(); call("POST", "/api/v1/commands/zoom-in"); }
    else if (mod && e.key === "-") { e.preventDefault(); call("POST", "/api/v1/commands/zoom-out"); }
    else if (mod && e.key === "0") { e.preventDefault(); call("POST", "/api/v1/commands/zoom-reset"); }
    else if (e.key === "Escape") {
      if ($("about").classList.contains("open")) call("DELETE", "/api/v1/about");
      else if ($("search-bar").classList.contains("open")) closeSearch();
    }
  });

  const events = new EventSource("/api/v1/events");
  events.addEventListener("revision", () => call("GET", "/api/v1/state", undefined, true));

  call("GET", "/api/v1/state");
})();
</script>
</body>
</html>
`
