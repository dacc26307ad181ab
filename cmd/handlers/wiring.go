package handlers

import (
	"path/filepath"

	"pressroom/internal/analyzer"
	"pressroom/internal/config"
	"pressroom/internal/enhance"
	"pressroom/internal/evaluate"
	"pressroom/internal/imagery"
	"pressroom/internal/knowledge"
	"pressroom/internal/llm"
	"pressroom/internal/logger"
	"pressroom/internal/pipeline"
	"pressroom/internal/research"
	"pressroom/internal/search"
	"pressroom/internal/store"
)

// app bundles the wired components one command invocation needs.
type app struct {
	Pipeline *pipeline.Pipeline
	Store    *store.Store
	Index    *knowledge.Index
}

// Close releases the app's database handles.
func (a *app) Close() {
	if a.Index != nil {
		_ = a.Index.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

// newApp wires the full pipeline from configuration. Optional backends
// (search, knowledge index, image generation) degrade to nil when not
// configured; the pipeline skips or degrades accordingly.
func newApp(cfg *config.Config) (*app, error) {
	contentStore, err := store.NewStore(cfg.Store.Directory)
	if err != nil {
		return nil, err
	}

	gemini, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		contentStore.Close()
		return nil, err
	}

	var index *knowledge.Index
	index, err = knowledge.NewIndex(cfg.Store.Directory, gemini)
	if err != nil {
		logger.Warn("knowledge index unavailable, internal research disabled", "error", err.Error())
		index = nil
	}

	webProvider := newSearchProvider(cfg)

	var collector *research.Collector
	if index != nil || webProvider != nil {
		if index != nil {
			collector = research.NewCollector(index, webProvider)
		} else {
			collector = research.NewCollector(nil, webProvider)
		}
		collector.SetLimits(cfg.Pipeline.MaxInternalPassages, cfg.Pipeline.MaxWebCitations)
	}

	enhancer := enhance.NewEnhancer(gemini, contentStore)

	var generator imagery.Generator
	if cfg.AI.OpenAI.APIKey != "" {
		generator = imagery.NewOpenAIClient(cfg.AI.OpenAI.APIKey)
	}
	resolver := imagery.NewResolver(contentStore, generator,
		filepath.Join(cfg.Store.Directory, "images"), cfg.Images.Size, cfg.Images.Quality)

	evaluator := evaluate.NewEvaluator(cfg.Pipeline.DefaultThreshold)

	timeouts := pipeline.Timeouts{
		Research:   config.Duration(cfg.Pipeline.ResearchTimeout, 0),
		Generation: config.Duration(cfg.Pipeline.GenerationTimeout, 0),
		Image:      config.Duration(cfg.Pipeline.ImageTimeout, 0),
		Evaluation: config.Duration(cfg.Pipeline.EvaluationTimeout, 0),
	}

	var researcher pipeline.Researcher
	if collector != nil {
		researcher = collector
	}

	p := pipeline.New(analyzer.New(), researcher, enhancer, resolver, evaluator, contentStore, timeouts)
	return &app{Pipeline: p, Store: contentStore, Index: index}, nil
}

// newSearchProvider builds the configured web search provider, nil when
// none can be constructed.
func newSearchProvider(cfg *config.Config) search.Provider {
	providerType := search.ProviderType(cfg.Search.DefaultProvider)

	credentials := map[string]string{}
	switch providerType {
	case search.ProviderTypeGoogle:
		if cfg.Search.Providers.Google.APIKey != "" {
			credentials["api_key"] = cfg.Search.Providers.Google.APIKey
		}
		if cfg.Search.Providers.Google.SearchID != "" {
			credentials["search_id"] = cfg.Search.Providers.Google.SearchID
		}
	case search.ProviderTypeSerpAPI:
		if cfg.Search.Providers.SerpAPI.APIKey != "" {
			credentials["api_key"] = cfg.Search.Providers.SerpAPI.APIKey
		}
	}

	provider, err := search.NewProvider(providerType, credentials)
	if err != nil {
		logger.Warn("web search provider unavailable, web research disabled",
			"provider", cfg.Search.DefaultProvider, "error", err.Error())
		return nil
	}
	return provider
}
