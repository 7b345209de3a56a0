package main

import (
	"context"
	"crypto/md5"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"docchat/internal/chat"
	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/parser"
	"docchat/internal/service"
	"docchat/internal/tui"
	"docchat/internal/vectorindex"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath = flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/docchat/config.yaml if not provided)")
		user    = flag.String("user", "", "Owner id for uploaded documents and queries (opaque, not authenticated)")
		debug   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()
	files := flag.Args()

	logger, err := newLogger(*debug)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	var cfg *config.AppConfig
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// Assemble components
	var provider domain.EmbeddingProvider
	switch cfg.Embedder.Type {
	case "gemini", "":
		key := os.Getenv(cfg.Embedder.APIKeyEnv)
		provider, err = embedding.NewGemini(context.Background(), key, cfg.Embedder.Model)
		if err != nil {
			logger.Fatal("gemini embedder init failed", zap.Error(err))
		}
	case "local":
		provider = embedding.NewLocal(cfg.Embedder.Dimension)
	default:
		logger.Fatal("unknown embedder", zap.String("type", cfg.Embedder.Type))
	}

	splitter, err := chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		logger.Fatal("bad chunker config", zap.Error(err))
	}

	generator, err := chat.NewGroq(chat.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKey:      os.Getenv(cfg.Generator.APIKeyEnv),
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
	})
	if err != nil {
		logger.Fatal("generator init failed", zap.Error(err))
	}

	index := vectorindex.NewFlat()
	batcher := embedding.NewBatcher(provider, cfg.Embedder.BatchSize, logger)
	svc := service.New(splitter, batcher, index, logger)
	docParser := parser.New(cfg.Parser.MaxPDFPages)

	seen := make(map[string]struct{})
	ingestFiles(svc, docParser, files, *user, seen, logger)

	m := tui.New(svc, generator, docParser, *user, cfg.Retrieval.TopK, seen)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logger.Fatal("tui failed", zap.Error(err))
	}
}

// ingestFiles parses and ingests the files given on the command line.
// Documents are independent: one failing file is logged and skipped, the
// rest continue. Content whose hash is already in seen is skipped, so the
// same document is never indexed twice. Parsing and embedding run
// concurrently per file; the index serializes the final appends itself.
func ingestFiles(svc domain.Retriever, p *parser.Parser, files []string, ownerID string, seen map[string]struct{}, logger *zap.Logger) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, path := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Error("read failed", zap.String("file", path), zap.Error(err))
				return
			}
			hash := fmt.Sprintf("%x", md5.Sum(data))
			mu.Lock()
			_, dup := seen[hash]
			if !dup {
				seen[hash] = struct{}{}
			}
			mu.Unlock()
			if dup {
				logger.Info("skipping already indexed content", zap.String("file", path))
				return
			}
			text, err := p.Parse(data, filepath.Ext(path))
			if err != nil {
				logger.Error("parse failed", zap.String("file", path), zap.Error(err))
				return
			}
			if err := svc.Ingest(context.Background(), chunker.DocumentMarker+text, ownerID); err != nil {
				mu.Lock()
				delete(seen, hash)
				mu.Unlock()
				logger.Error("ingest failed", zap.String("file", path), zap.Error(err))
				return
			}
			logger.Info("indexed file", zap.String("file", path))
		}(path)
	}
	wg.Wait()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"docchat.log"}
	cfg.ErrorOutputPaths = []string{"docchat.log"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
