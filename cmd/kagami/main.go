// Package main is the kagami CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/bridge"
	"github.com/hyperjump/kagami/internal/cli"
	"github.com/hyperjump/kagami/internal/config"
	"github.com/hyperjump/kagami/internal/document"
	"github.com/hyperjump/kagami/internal/models"
	"github.com/hyperjump/kagami/internal/render"
	"github.com/hyperjump/kagami/internal/search"
	"github.com/hyperjump/kagami/internal/server"
	"github.com/hyperjump/kagami/internal/storage"
	"github.com/hyperjump/kagami/internal/viewer"
	"github.com/hyperjump/kagami/internal/viewstate"
	"github.com/hyperjump/kagami/internal/watcher"
	"github.com/hyperjump/kagami/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kagami/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// A missing default config is not an error: built-in defaults are returned instead.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "render":
		runRender()
	case "search":
		runSearch()
	case "view":
		runView()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kagami version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds what every viewer-backed command needs.
type Components struct {
	Preferences storage.Preferences
	Highlighter *render.Highlighter
	Renderer    *render.Markdown
	Documents   *document.Store
	View        *viewstate.State
}

// Close releases the preferences store.
func (c *Components) Close() {
	if c.Preferences != nil {
		_ = c.Preferences.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	prefs, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	h := render.NewHighlighter(render.WithLineNumbers(cfg.Render.LineNumbers))
	md := render.NewMarkdown(h, render.Options{
		HardWraps:  cfg.Render.HardWrapsOrDefault(),
		UnsafeHTML: cfg.Render.UnsafeHTML,
		Logger:     logger,
	})
	view := viewstate.New(prefs, viewstate.ParseTheme(cfg.Viewer.DefaultTheme, viewstate.Dark), logger)
	view.Load(context.Background())
	return &Components{
		Preferences: prefs,
		Highlighter: h,
		Renderer:    md,
		Documents:   document.NewStore(md, logger),
		View:        view,
	}, nil
}

func newRenderer(cfg *config.Config) *render.Markdown {
	return render.NewMarkdown(render.NewHighlighter(render.WithLineNumbers(cfg.Render.LineNumbers)), render.Options{
		HardWraps:  cfg.Render.HardWrapsOrDefault(),
		UnsafeHTML: cfg.Render.UnsafeHTML,
	})
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (events, deferred stages, file changes)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var (
		v        *viewer.Viewer
		srv      *server.Server
		watchSvc *watcher.Watcher
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.EnabledOrDefault() {
		watchSvc = watcher.NewWatcher(
			func(path string) {
				if err := v.Reload(context.Background(), path); err != nil {
					logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Watch.Debounce()),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	v = viewer.New(components.Documents, components.View,
		viewer.WithLogger(logger),
		viewer.WithKeepQueryOnOpen(cfg.Viewer.KeepQueryOnOpen),
		viewer.WithAbout(models.About{
			Name:    cfg.About.Name,
			Version: version,
			Author:  cfg.About.Author,
			URL:     cfg.About.URL,
		}),
		viewer.WithOnLoad(func(doc *models.Document) {
			if srv != nil {
				srv.Publish(doc)
			}
			if watchSvc == nil || doc.Path == "" {
				return
			}
			if err := watchSvc.Watch(doc.Path); err != nil {
				logger.Warn("watch file failed", zap.String("path", doc.Path), zap.Error(err))
			}
		}),
	)
	srv = server.NewServer(v, components.Highlighter, cfg, logger)

	if fs.NArg() > 0 {
		if err := v.Open(context.Background(), fs.Arg(0)); err != nil {
			logger.Warn("initial file not opened", zap.String("path", fs.Arg(0)), zap.Error(err))
		}
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()
	fmt.Printf("kagami is running at http://%s\n", srv.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runRender() {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fmt.Println("Usage: kagami render [flags] <file>")
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	content, err := bridge.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	out, err := newRenderer(cfg).Render(content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(out)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kagami search [flags] <file> <query>\n\n")
	fmt.Fprintf(fs.Output(), "The query is all arguments after the file joined by spaces; it is matched literally and case-insensitively\nagainst the rendered text, skipping code blocks.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kagami search README.md installation
  kagami search --output compact notes.md "open question"
  kagami search --output json --context 20 notes.md todo
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops
// at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	contextRunes := fs.Int("context", 40, "characters of context shown around each match")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 2 {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	file := fs.Arg(0)
	query := buildSearchQuery(fs.Args()[1:])
	if query == "" {
		fmt.Fprintln(os.Stderr, "Query is empty")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	report, err := searchFile(newRenderer(cfg), file, query, *contextRunes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if report.MatchCount == 0 {
		os.Exit(2)
	}
}

// searchFile renders the markdown file at path and scans it for query.
func searchFile(r render.Renderer, path, query string, radius int) (*cli.SearchReport, error) {
	content, err := bridge.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, err := r.Render(content)
	if err != nil {
		return nil, err
	}
	root, err := search.Parse(out)
	if err != nil {
		return nil, err
	}
	return cli.NewSearchReport(filepath.Base(path), query, root, search.Scan(root, query), radius), nil
}

// viewResponse is the part of the state snapshot the view command prints.
type viewResponse struct {
	FileName string  `json:"file_name,omitempty"`
	Theme    string  `json:"theme"`
	Zoom     float64 `json:"zoom"`
}

func runView() {
	if len(os.Args) < 3 {
		printViewUsage()
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[3:])

	if sub != "show" {
		if _, err := bridge.ParseCommand(sub); err != nil || sub == "show-about" {
			fmt.Printf("Unknown view subcommand: %s\n", sub)
			printViewUsage()
			os.Exit(1)
		}
	}

	var state viewResponse
	if *serverURL != "" {
		res, err := viewViaHTTP(*serverURL, sub)
		if err != nil {
			fmt.Fprintf(os.Stderr, "View failed: %v\n", err)
			os.Exit(1)
		}
		state = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		prefs, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer prefs.Close()
		state = applyViewCommand(context.Background(), prefs, viewstate.ParseTheme(cfg.Viewer.DefaultTheme, viewstate.Dark), sub)
	}
	if state.FileName != "" {
		fmt.Printf("file:   %s\n", state.FileName)
	}
	fmt.Printf("theme:  %s\n", state.Theme)
	fmt.Printf("zoom:   %.1f\n", state.Zoom)
}

// applyViewCommand runs a view subcommand directly against the preferences store.
func applyViewCommand(ctx context.Context, prefs storage.Preferences, defaultTheme viewstate.Theme, sub string) viewResponse {
	view := viewstate.New(prefs, defaultTheme, nil)
	view.Load(ctx)
	switch sub {
	case "toggle-theme":
		view.ToggleTheme(ctx)
	case "zoom-in":
		view.ZoomIn(ctx)
	case "zoom-out":
		view.ZoomOut(ctx)
	case "zoom-reset":
		view.ZoomReset(ctx)
	}
	return viewResponse{Theme: string(view.Theme()), Zoom: view.Zoom()}
}

func viewViaHTTP(serverURL, sub string) (*viewResponse, error) {
	var (
		resp *http.Response
		err  error
	)
	if sub == "show" {
		resp, err = http.Get(serverURL + "/api/v1/state")
	} else {
		resp, err = http.Post(serverURL+"/api/v1/commands/"+sub, "application/json", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var v viewResponse
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &v, nil
}

func printViewUsage() {
	fmt.Println("Usage: kagami view <show|toggle-theme|zoom-in|zoom-out|zoom-reset> [flags]")
	fmt.Println("  kagami view show           Show theme and zoom")
	fmt.Println("  kagami view toggle-theme   Switch between dark and light")
	fmt.Println("  kagami view zoom-in        Zoom in by 10%")
	fmt.Println("  kagami view zoom-out       Zoom out by 10%")
	fmt.Println("  kagami view zoom-reset     Reset zoom to 100%")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status models.Status
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		prefs, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer prefs.Close()
		view := applyViewCommand(context.Background(), prefs, viewstate.ParseTheme(cfg.Viewer.DefaultTheme, viewstate.Dark), "show")
		status = models.Status{Theme: view.Theme, Zoom: view.Zoom, DatabasePath: cfg.Storage.DatabasePath}
		if diskBytes, err := storage.DatabaseSize(cfg.Storage.DatabasePath); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func writeStatusText(w io.Writer, status *models.Status) {
	if status.FileName != "" {
		fmt.Fprintf(w, "file:              %s\n", status.FileName)
		fmt.Fprintf(w, "path:              %s\n", status.Path)
		fmt.Fprintf(w, "revision:          %s\n", status.Revision)
	} else {
		fmt.Fprintln(w, "file:              (none)")
	}
	if status.Query != "" {
		fmt.Fprintf(w, "query:             %q   # %d matches\n", status.Query, status.MatchCount)
	}
	fmt.Fprintf(w, "theme:             %s\n", status.Theme)
	fmt.Fprintf(w, "zoom:              %.1f\n", status.Zoom)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# storage")
	fmt.Fprintf(w, "database_path:     %s\n", status.DatabasePath)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:  %d\n", *status.DiskUsageBytes)
	}
}

func statusViaHTTP(serverURL string) (*models.Status, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s models.Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`kagami - Local markdown viewer with in-page search

Usage:
  kagami serve [flags] [file]            Start the viewer and optionally open a file
  kagami render [flags] <file>           Print the rendered HTML of a markdown file
  kagami search [flags] <file> <query>   Search the rendered text of a markdown file
  kagami view <subcommand> [flags]       Show or change theme and zoom
  kagami status [flags]                  Show viewer and storage status
  kagami version                         Show version
  kagami help                            Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/kagami/config.yaml)
  --debug            Enable debug logging (events, deferred stages, file changes)

Search Flags:
  --config string    Config file path (render settings)
  --output string    Output format: text, compact or json (default: text)
  --context int      Characters of context around each match (default: 40)

View Subcommands:
  show, toggle-theme, zoom-in, zoom-out, zoom-reset

View and Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format for status: text or json (default: text)

Examples:
  kagami serve README.md
  kagami render notes.md > notes.html
  kagami search notes.md "open question"
  kagami search --output json notes.md todo
  kagami view zoom-in
  kagami view toggle-theme --server ""
  kagami status --output json`)
}
