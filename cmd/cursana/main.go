package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/httpclient"
	"github.com/ternarybob/cursana/internal/services/chunker"
	"github.com/ternarybob/cursana/internal/services/consensus"
	"github.com/ternarybob/cursana/internal/services/course"
	"github.com/ternarybob/cursana/internal/services/discovery"
	"github.com/ternarybob/cursana/internal/services/expander"
	"github.com/ternarybob/cursana/internal/services/export"
	"github.com/ternarybob/cursana/internal/services/fetcher"
	"github.com/ternarybob/cursana/internal/services/llm"
	"github.com/ternarybob/cursana/internal/services/pipeline"
	"github.com/ternarybob/cursana/internal/services/prompts"
	"github.com/ternarybob/cursana/internal/services/scheduler"
	"github.com/ternarybob/cursana/internal/services/transcripts"
	"github.com/ternarybob/cursana/internal/storage/badger"
)

var (
	configPath    = flag.String("config", "", "Configuration file path (default: cursana.toml when present)")
	query         = flag.String("query", "", "Learning query to build a course for")
	maxVideos     = flag.Int("videos", 0, "Maximum video sources (overrides config)")
	maxArticles   = flag.Int("articles", 0, "Maximum article sources (overrides config)")
	difficulty    = flag.String("difficulty", "", "Target difficulty: beginner, intermediate, advanced")
	modelOverride = flag.String("model", "", "LLM model override (provider inferred from name)")
	exportFormats = flag.String("export", "", "Comma-separated export formats (overrides config)")
	showVersion   = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Cursana version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup order: config, logger, banner, then services
	path := *configPath
	if path == "" {
		if _, err := os.Stat("cursana.toml"); err == nil {
			path = "cursana.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.LoadVersionFromFile())

	if *query == "" {
		logger.Fatal().Msg("A learning query is required: cursana -query \"your topic\"")
		os.Exit(1)
	}

	if *exportFormats != "" {
		config.Export.Formats = splitFormats(*exportFormats)
	}

	if err := run(config, logger); err != nil {
		logger.Fatal().Err(err).Msg("Course creation failed")
		os.Exit(1)
	}
}

func run(config *common.Config, logger arbor.ILogger) error {
	storage, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer storage.Close()

	llmService, err := llm.NewLLMService(config, *modelOverride, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	defer llmService.Close()

	httpClient := httpclient.NewClient(&config.Fetcher, logger)
	promptManager := prompts.NewManager(config.Prompts.Dir, logger)

	pipelineService := pipeline.NewService(config, pipeline.Deps{
		Storage:     storage,
		Discoverer:  discovery.NewConfigDiscoverer(&config.Discovery, logger),
		Captions:    fetcher.NewCaptionFetcher(httpClient, logger),
		Articles:    fetcher.NewArticleFetcher(httpClient, logger),
		Transcripts: transcripts.NewService(logger),
		Chunker:     chunker.NewChunker(&config.Chunking, llmService, logger),
		Expander:    expander.NewExpander(&config.Expansion, llmService, promptManager, logger),
		Extractor:   consensus.NewExtractor(llmService, promptManager, logger),
		Consensus:   consensus.NewBuilder(config.Consensus.SimilarityThreshold, llmService, logger),
		Structure:   course.NewStructureGenerator(&config.Course, llmService, promptManager, logger),
		Builder:     course.NewBuilder(&config.Course, logger),
	}, logger)

	refresh := scheduler.NewService(&config.Refresh, storage.SourceStorage(), logger)
	if err := refresh.Start(); err != nil {
		logger.Warn().Err(err).Msg("Source refresh scheduler failed to start")
	}
	defer refresh.Stop()

	built, err := pipelineService.Run(context.Background(), pipeline.Request{
		Query:       *query,
		MaxVideos:   *maxVideos,
		MaxArticles: *maxArticles,
		Difficulty:  *difficulty,
	})
	if err != nil {
		return err
	}

	paths, err := export.NewService(&config.Export, logger).Export(built)
	if err != nil {
		return fmt.Errorf("failed to export course %s: %w", built.ID, err)
	}

	fmt.Printf("\nCourse created: %s\n", built.Title)
	fmt.Printf("  ID:       %s\n", built.ID)
	fmt.Printf("  Sections: %d\n", built.SectionCount)
	fmt.Printf("  Time:     %d minutes\n", built.EstimatedMinutes)
	for _, path := range paths {
		fmt.Printf("  Exported: %s\n", path)
	}

	return nil
}

func splitFormats(raw string) []string {
	var formats []string
	for _, format := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(format); trimmed != "" {
			formats = append(formats, trimmed)
		}
	}
	return formats
}
