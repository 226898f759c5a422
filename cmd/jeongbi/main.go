// Package main is the jeongbi CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/jeongbi/internal/cli"
	"github.com/hyperjump/jeongbi/internal/config"
	"github.com/hyperjump/jeongbi/internal/ingest"
	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/hyperjump/jeongbi/internal/server"
	"github.com/hyperjump/jeongbi/internal/watcher"
	"github.com/hyperjump/jeongbi/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/jeongbi/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory is preferred if present; when neither file exists the config is
// built from defaults and the environment. .env files are read first.
// Returns the config and the path that was actually loaded ("" for environment only).
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", err
	}
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
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.FromEnv()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	if debug || cfg.DebugEnabled() {
		return utils.NewLogger(true)
	}
	return utils.NewLoggerWithLevel(cfg.LogLevel)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ask":
		runAsk()
	case "load":
		runLoad()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("jeongbi version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config, builds a logger and initializes every component.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := newLogger(cfg, debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	logger.Info("config loaded",
		zap.String("config_path", resolved),
		zap.String("environment", cfg.Environment),
		zap.String("graph_backend", cfg.Graph.Backend),
		zap.String("embedding_provider", cfg.Embedding.Provider))

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths := cfg.Ingest.CorpusPaths
	if len(paths) > 0 {
		n, err := components.Storage.CountArticles(ctx)
		if err == nil && n == 0 {
			if report, err := components.Indexer.LoadFiles(ctx, paths...); err != nil {
				logger.Error("initial corpus load failed", zap.Strings("paths", paths), zap.Error(err))
			} else {
				logger.Info("initial corpus loaded", zap.Int("articles", report.Articles))
			}
		}
	}

	if cfg.Watch.Enabled && len(paths) > 0 {
		w := watcher.NewWatcher(paths, ingest.SupportedExtensions,
			func(ctx context.Context) {
				if _, err := components.Indexer.LoadFiles(ctx, paths...); err != nil {
					logger.Error("corpus reload failed; keeping the previous corpus", zap.Error(err))
				}
			},
			watcher.WithDebounce(cfg.Watch.Debounce),
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start corpus watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(components.ServerComponents(), cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so `jeongbi search 재개발 -limit 3` would
// otherwise leave -limit unparsed.
func searchArgsReorder(args []string) []string {
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

type queryFlags struct {
	fs         *flag.FlagSet
	configPath *string
	serverURL  *string
	limit      *int
	output     *string
}

func parseQueryFlags(name string) (*queryFlags, string, cli.OutputFormat) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	qf := &queryFlags{
		fs:         fs,
		configPath: fs.String("config", defaultConfigPath, "config file path (direct mode)"),
		serverURL:  fs.String("server", defaultServerURL, `server URL (empty = query the local indices directly)`),
		limit:      fs.Int("limit", 0, "number of results (0 = configured default)"),
		output:     fs.String("output", "text", "output format: text or json"),
	}
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: jeongbi %s [flags] <query>\n\n", name)
		fs.PrintDefaults()
	}
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	query := buildSearchQuery(fs.Args())
	if query == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*qf.output)
	if err != nil {
		fatalf("%v", err)
	}
	return qf, query, format
}

func runSearch() {
	qf, query, format := parseQueryFlags("search")
	req := map[string]interface{}{"query": query, "limit": *qf.limit}

	var reply models.SearchReply
	if *qf.serverURL != "" {
		if err := postJSON(*qf.serverURL+"/api/search", req, &reply); err != nil {
			fatalf("Search failed: %v", err)
		}
	} else {
		_, logger, components := setup(*qf.configPath, false)
		defer logger.Sync()
		defer components.Close()
		resp, err := components.Retriever.Search(context.Background(), &models.SearchQuery{Query: query, Limit: *qf.limit})
		if err != nil {
			fatalf("Search failed: %v", err)
		}
		reply = *models.NewSearchReply(resp, 200)
	}
	if err := cli.WriteSearchReply(os.Stdout, &reply, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runAsk() {
	qf, query, format := parseQueryFlags("ask")
	req := map[string]interface{}{"query": query, "limit": *qf.limit}

	var reply models.AskReply
	if *qf.serverURL != "" {
		if err := postJSON(*qf.serverURL+"/api/ask", req, &reply); err != nil {
			fatalf("Ask failed: %v", err)
		}
	} else {
		_, logger, components := setup(*qf.configPath, false)
		defer logger.Sync()
		defer components.Close()
		ctx := context.Background()
		start := time.Now()
		resp, err := components.Retriever.Search(ctx, &models.SearchQuery{Query: query, Limit: *qf.limit})
		if err != nil {
			fatalf("Search failed: %v", err)
		}
		ans, err := components.Synthesizer.Synthesize(ctx, resp.Query, resp.Results)
		if err != nil {
			fatalf("Answer failed: %v", err)
		}
		reply = *models.NewAskReply(ans, resp.Partial, time.Since(start))
	}
	if err := cli.WriteAskReply(os.Stdout, &reply, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: jeongbi load [flags] [file-or-directory ...]\n\n")
		fmt.Fprintf(fs.Output(), "Loads JSON or XLSX corpus files into the catalog and indices, replacing the\n")
		fmt.Fprintf(fs.Output(), "current corpus. Without arguments the configured corpus paths are loaded.\n")
		fmt.Fprintf(fs.Output(), "Stop a running server first; it holds the index files open.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	paths := fs.Args()
	if len(paths) == 0 {
		paths = cfg.Ingest.CorpusPaths
	}
	if len(paths) == 0 {
		fs.Usage()
		os.Exit(1)
	}
	report, err := components.Indexer.LoadFiles(context.Background(), paths...)
	if err != nil {
		fatalf("Load failed: %v", err)
	}
	if err := cli.WriteReport(os.Stdout, report, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the local indices directly)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	var reply models.StatsReply
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/stats", &reply); err != nil {
			fatalf("Stats failed: %v", err)
		}
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		srv := server.NewServer(components.ServerComponents(), cfg, logger)
		sys, err := srv.SystemStats(context.Background())
		if err != nil {
			fatalf("Stats failed: %v", err)
		}
		reply.SystemStats = *sys
		reply.SessionStats = models.SessionStats{SessionDuration: "0:00:00"}
	}
	if err := cli.WriteStats(os.Stdout, &reply, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

var httpClient = &http.Client{Timeout: 2 * time.Minute}

func postJSON(url string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func getJSON(url string, out interface{}) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// decodeResponse decodes a successful response into out, or turns an {"error": ...}
// body into an error.
func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`jeongbi - 도시정비법 질의응답 (hybrid legal retrieval and answers)

Usage:
  jeongbi server [flags]             Start the HTTP server
  jeongbi search [flags] <query>     Search articles
  jeongbi ask [flags] <question>     Answer a question with cited articles
  jeongbi load [flags] [path ...]    Load corpus files (JSON, XLSX) into the indices
  jeongbi stats [flags]              Show corpus, index and session statistics
  jeongbi version                    Show version
  jeongbi help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/jeongbi/config.yaml)
  --debug            Enable debug logging

Search / Ask Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to query the local indices directly.
  --limit int        Number of results (default from config)
  --output string    Output format: text or json (default: text)

Load Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Stats Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --output string    Output format: text or json (default: text)

Environment:
  NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD, GRAPH_BACKEND (neo4j|local),
  EMBEDDING_PROVIDER (gemini|onnx|mock), GOOGLE_API_KEY, GEMINI_MODEL,
  CHUNK_SIZE, CHUNK_OVERLAP, SIMILARITY_THRESHOLD, MAX_RESULTS, LOG_LEVEL, ENVIRONMENT

Examples:
  jeongbi load ./corpus
  jeongbi server
  jeongbi search 조합설립인가 절차
  jeongbi ask "재건축 조합설립에 필요한 동의 요건은?"
  jeongbi search --output json --limit 5 현금청산
  jeongbi stats --output json`)
}
