// Package main is the Deckform CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/deckform/deckform/internal/assets"
	"github.com/deckform/deckform/internal/cli"
	"github.com/deckform/deckform/internal/compose"
	"github.com/deckform/deckform/internal/config"
	"github.com/deckform/deckform/internal/convert"
	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/index"
	"github.com/deckform/deckform/internal/model"
	"github.com/deckform/deckform/internal/server"
	"github.com/deckform/deckform/internal/storage"
	"github.com/deckform/deckform/internal/thumbnail"
	"github.com/deckform/deckform/internal/watcher"
	"github.com/deckform/deckform/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/deckform/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence, so "deckform server" from the
// project dir uses the project's config.
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
	case "convert":
		runConvert()
	case "compose":
		runCompose()
	case "assets":
		runAssets()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("deckform version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging")
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

	ingestor := watcher.NewIngestor(components.Converter, components.Store, components.Index, logger)
	inbox := watcher.NewInbox(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		ingestor.IngestDeck,
		ingestor.EvictDeck,
		logger,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := inbox.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start inbox watcher", zap.Error(err))
	}
	inbox.SweepExisting()

	srv := server.NewServer(
		components.Converter,
		components.Composer,
		components.Extractor,
		components.Renderer,
		components.Store,
		components.BinStore,
		components.Index,
		inbox,
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
	inbox.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runConvert() {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outPath := fs.String("o", "", "write the converted document JSON to this file (default: stdout summary only)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: deckform convert [flags] <file.pptx>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	var maxBytes int64
	if cfg, _, err := loadConfig(*configPath); err == nil {
		maxBytes = cfg.Limits.MaxUploadBytes
	}

	converter := convert.NewConverter(engine.NewContext(), zap.NewNop(), maxBytes)
	doc, err := converter.Convert(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conversion failed: %v\n", err)
		os.Exit(1)
	}

	if *outPath != "" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Encoding failed: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteConversionSummary(os.Stdout, doc, cli.ParseOutputFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runCompose() {
	fs := flag.NewFlagSet("compose", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outPath := fs.String("o", "", "output .pptx path (default: input name with .pptx extension)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: deckform compose [flags] <document.json>")
		os.Exit(1)
	}
	inPath := fs.Arg(0)

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read failed: %v\n", err)
		os.Exit(1)
	}
	var doc model.UniversalPresentation
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	target := *outPath
	if target == "" {
		ext := filepath.Ext(inPath)
		target = inPath[:len(inPath)-len(ext)] + ".pptx"
	}

	textClamp := 0
	envelopePt := 0.0
	if cfg, _, err := loadConfig(*configPath); err == nil {
		textClamp = cfg.Limits.ComposeTextClamp
		envelopePt = float64(cfg.Limits.MaxSlideEnvelopeEMU) / 12700
	}

	composer := compose.NewComposer(zap.NewNop(), textClamp, envelopePt)
	stats, err := composer.Compose(&doc, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Composition failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes, %d slides, %d shapes)\n",
		stats.Path, stats.SizeBytes, stats.SlideCount, stats.ShapeCount)
}

func runAssets() {
	fs := flag.NewFlagSet("assets", flag.ExitOnError)
	assetType := fs.String("type", "image", "asset type: image, video, audio, document, or chart")
	outDir := fs.String("dir", "", "write extracted asset payloads into this directory")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: deckform assets [flags] <file.pptx>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	extractor := assets.NewExtractor(engine.NewContext(), zap.NewNop())
	batch, err := extractor.ExtractFile(context.Background(), path, model.AssetType(*assetType))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		os.Exit(1)
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Create directory failed: %v\n", err)
			os.Exit(1)
		}
		for _, a := range batch.Assets {
			name := filepath.Join(*outDir, a.ID+"_"+filepath.Base(a.Filename))
			if err := os.WriteFile(name, a.Data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Write %s failed: %v\n", name, err)
				os.Exit(1)
			}
		}
	}
	if err := cli.WriteAssetBatch(os.Stdout, batch, cli.ParseOutputFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the index directly)")
	limit := fs.Int("limit", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: deckform search [flags] <query>")
		os.Exit(1)
	}
	query := fs.Arg(0)
	format := cli.ParseOutputFormat(*outputFormat)

	if *serverURL != "" {
		// Use the HTTP API when the server is running; it holds the index lock.
		hits, err := searchViaHTTP(*serverURL, query, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchHits(os.Stdout, query, hits, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	idx, err := index.New(cfg.Storage.IndexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open index: %v\n", err)
		os.Exit(1)
	}
	defer idx.Close()

	hits, err := idx.Search(context.Background(), query, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchHits(os.Stdout, query, hits, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// apiEnvelope mirrors the server's response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func getAPI(rawURL string, out any) error {
	resp, err := http.Get(rawURL)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if env.Error != nil {
			return fmt.Errorf("server returned %d: %s (%s)", resp.StatusCode, env.Error.Message, env.Error.Code)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return json.Unmarshal(env.Data, out)
}

func searchViaHTTP(serverURL, query string, limit int) ([]*index.Result, error) {
	var hits []*index.Result
	u := fmt.Sprintf("%s/api/v1/search?q=%s&limit=%d", serverURL, url.QueryEscape(query), limit)
	if err := getAPI(u, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status map[string]any
	if err := getAPI(*serverURL+"/api/v1/status", &status); err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}

	switch cli.ParseOutputFormat(*outputFormat) {
	case cli.OutputJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	default:
		for _, key := range []string{"presentations", "assets", "indexed", "disk_usage_bytes"} {
			if v, ok := status[key]; ok {
				fmt.Printf("%-18s %v\n", key+":", v)
			}
		}
		if cfgMap, ok := status["config"].(map[string]any); ok {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"database_path", "asset_dir", "index_path", "output_dir"} {
				if v, ok := cfgMap[key]; ok {
					fmt.Printf("%-18s %v\n", key+":", v)
				}
			}
		}
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: deckform watch <add|remove|list> [path]")
		fmt.Println("  deckform watch add <path>     Add inbox directory to watch")
		fmt.Println("  deckform watch remove <path>  Remove inbox directory from watch")
		fmt.Println("  deckform watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: deckform watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]any{"path": path, "sweep": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: deckform watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getAPI(*serverURL+"/api/v1/watch/directories", &out); err != nil {
			fmt.Printf("List failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store     storage.Store
	BinStore  storage.BinaryStore
	Index     *index.Index
	Converter *convert.Converter
	Composer  *compose.Composer
	Extractor *assets.Extractor
	Renderer  thumbnail.Renderer
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	binStore, err := storage.NewDiskStore(cfg.Storage.AssetDir, "/assets")
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize asset store: %w", err)
	}

	idx, err := index.New(cfg.Storage.IndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize text index: %w", err)
	}

	engineCtx := engine.NewContext()
	return &Components{
		Store:     store,
		BinStore:  binStore,
		Index:     idx,
		Converter: convert.NewConverter(engineCtx, logger, cfg.Limits.MaxUploadBytes),
		Composer:  compose.NewComposer(logger, cfg.Limits.ComposeTextClamp, float64(cfg.Limits.MaxSlideEnvelopeEMU)/12700),
		Extractor: assets.NewExtractor(engineCtx, logger),
		Renderer:  thumbnail.NewEngineRenderer(engineCtx, logger),
	}, nil
}

func printUsage() {
	fmt.Println(`deckform - PPTX conversion and asset extraction service

Usage:
  deckform server [flags]            Start the HTTP server
  deckform convert [flags] <file>    Convert a .pptx to the universal JSON document
  deckform compose [flags] <json>    Compose a .pptx from a universal JSON document
  deckform assets [flags] <file>     Extract embedded assets from a .pptx
  deckform search [flags] <query>    Search converted presentations
  deckform status [flags]            Show catalog/index status
  deckform watch <add|remove|list>   Manage watched inbox directories
  deckform version                   Show version
  deckform help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/deckform/config.yaml)
  --debug            Enable debug logging

Convert Flags:
  --config string    Config file path
  -o string          Write the full document JSON to this file
  --output string    Output format: text or json (default: text)

Compose Flags:
  --config string    Config file path
  -o string          Output .pptx path (default: input name with .pptx extension)

Assets Flags:
  --type string      Asset type: image, video, audio, document, or chart (default: image)
  --dir string       Write extracted payloads into this directory
  --output string    Output format: text or json (default: text)

Search Flags:
  --config string    Config file path (for direct index mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to open the index directly.
  --limit int        Number of results (default: 10)
  --output string    Output format: text or json (default: text)

Examples:
  deckform server
  deckform convert -o deck.json deck.pptx
  deckform compose -o rebuilt.pptx deck.json
  deckform assets --type image --dir ./out deck.pptx
  deckform search "quarterly revenue"
  deckform status --output json
  deckform watch add /srv/inbox`)
}
