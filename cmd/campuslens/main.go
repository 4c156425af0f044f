// Package main is the CampusLens CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
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

	"github.com/campuslens/campuslens/internal/catalog"
	"github.com/campuslens/campuslens/internal/cli"
	"github.com/campuslens/campuslens/internal/config"
	"github.com/campuslens/campuslens/internal/fetcher"
	"github.com/campuslens/campuslens/internal/llm"
	"github.com/campuslens/campuslens/internal/loader"
	"github.com/campuslens/campuslens/internal/models"
	"github.com/campuslens/campuslens/internal/prompt"
	"github.com/campuslens/campuslens/internal/render"
	"github.com/campuslens/campuslens/internal/resolver"
	"github.com/campuslens/campuslens/internal/server"
	"github.com/campuslens/campuslens/internal/storage"
	"github.com/campuslens/campuslens/internal/watcher"
	"github.com/campuslens/campuslens/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/campuslens/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "campuslens server" from the project dir uses the
// project's config (including debug).
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
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "load":
		runLoad()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("campuslens version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (resolved candidates, watch events, etc.)")
	_ = fs.Parse(os.Args[2:])

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

	model, err := llm.NewGeminiClient(
		context.Background(),
		modelAPIKey(cfg),
		cfg.Model.Name,
		cfg.Model.MaxOutputTokens,
		cfg.Model.Temperature,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to create model client", zap.Error(err))
	}

	res := resolver.New(components.Catalog, cfg.Chat.MaxCandidates)
	fet := fetcher.New(components.Storage, components.Index, components.Catalog, logger)
	composer := prompt.NewComposer(cfg.Chat.SnippetLength)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		load := components.Loader
		watchSvc := watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if _, err := load.LoadPath(context.Background(), path); err != nil {
					logger.Warn("watch load failed", zap.String("path", path), zap.Error(err))
				}
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		res,
		fet,
		composer,
		model,
		components.Storage,
		components.Index,
		components.Catalog,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// modelAPIKey prefers the config value; the GEMINI_API_KEY environment
// variable is the fallback so keys can stay out of config files.
func modelAPIKey(cfg *config.Config) string {
	if cfg.Model.APIKey != "" {
		return cfg.Model.APIKey
	}
	return os.Getenv("GEMINI_API_KEY")
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	college := fs.String("college", "", "page context: college currently being viewed")
	pageType := fs.String("page-type", "", "page context: page type (profile, admissions, ...)")
	raw := fs.Bool("raw", false, "print fragments as they stream instead of formatted blocks")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: campuslens ask [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: campuslens ask [flags] <question>")
		os.Exit(1)
	}

	req := models.ChatRequest{
		Messages: []models.ChatMessage{{Role: models.RoleUser, Content: question}},
	}
	if *college != "" {
		req.Context = &models.PageContext{CollegeName: *college, PageType: *pageType}
	}
	body, _ := json.Marshal(req)

	resp, err := http.Post(*serverURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}

	var full strings.Builder
	err = cli.ReadStream(resp.Body, func(fragment string) {
		full.WriteString(fragment)
		if *raw {
			fmt.Print(fragment)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nStream failed: %v\n", err)
		os.Exit(1)
	}
	if *raw {
		fmt.Println()
		return
	}
	cli.WriteBlocks(os.Stdout, render.Segment(full.String()))
}

func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: campuslens load [flags] <file-or-directory> ...")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	total := loader.Stats{}
	for _, path := range fs.Args() {
		stats, err := components.Loader.LoadPath(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Load failed for %s: %v\n", path, err)
			os.Exit(1)
		}
		total.Institutions += stats.Institutions
		total.Scholarships += stats.Scholarships
		total.Skipped += stats.Skipped
	}
	fmt.Printf("Loaded %d institution(s), %d scholarship(s), skipped %d file(s)\n",
		total.Institutions, total.Scholarships, total.Skipped)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status map[string]interface{}
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		ctx := context.Background()
		institutions, err := components.Storage.CountInstitutions(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count institutions failed: %v\n", err)
			os.Exit(1)
		}
		scholarships, err := components.Storage.CountScholarships(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count scholarships failed: %v\n", err)
			os.Exit(1)
		}
		status = map[string]interface{}{
			"institutions": institutions,
			"scholarships": scholarships,
			"catalog_size": components.Catalog.Len(),
			"config": map[string]interface{}{
				"model":         cfg.Model.Name,
				"database_path": cfg.Storage.DatabasePath,
				"index_path":    cfg.Storage.ScholarshipIndexPath,
				"catalog_path":  cfg.Catalog.Path,
			},
		}
		if diskBytes, err := storage.DiskUsageBytes(
			cfg.Storage.DatabasePath, cfg.Storage.ScholarshipIndexPath); err == nil {
			status["disk_usage_bytes"] = diskBytes
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
		cli.WriteStatus(os.Stdout, status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (map[string]interface{}, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Index   *storage.ScholarshipIndex
	Catalog *catalog.Catalog
	Loader  *loader.Loader
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	index, err := storage.NewScholarshipIndex(cfg.Storage.ScholarshipIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize scholarship index: %w", err)
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		_ = store.Close()
		_ = index.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		zap.String("path", cfg.Catalog.Path), zap.Int("institutions", cat.Len()))

	return &Components{
		Storage: store,
		Index:   index,
		Catalog: cat,
		Loader:  loader.New(store, index, cat, logger),
	}, nil
}

func printUsage() {
	fmt.Println(`campuslens - Grounded college data chat service

Usage:
  campuslens server [flags]          Start the HTTP API server
  campuslens ask [flags] <question>  Ask a question against a running server
  campuslens load [flags] <path>...  Import institution/scholarship data files
  campuslens status [flags]          Show store/catalog status
  campuslens version                 Show version
  campuslens help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/campuslens/config.yaml)
  --debug            Enable debug logging (resolved candidates, watch events, etc.)

Ask Flags:
  --server string      Server URL (default: http://localhost:8080)
  --college string     Page context: college currently being viewed
  --page-type string   Page context: page type (profile, admissions, ...)
  --raw                Print fragments as they stream instead of formatted blocks

Load Flags:
  --config string    Config file path

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  campuslens server
  campuslens load data/institutions.json data/scholarships.xlsx
  campuslens ask "Compare Yale and Brown tuition"
  campuslens ask --college "Brown University" --page-type admissions "What are my chances?"
  campuslens status --output json`)
}
