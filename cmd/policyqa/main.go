// Command policyqa answers HR policy questions from indexed policy documents.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/ai"
	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/config/env"
	configfile "github.com/custodia-labs/policy-assistant/internal/adapters/driven/config/file"
	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/messaging/whatsapp"
	storagefile "github.com/custodia-labs/policy-assistant/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/policy-assistant/internal/adapters/driving/cli"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/core/services"
	"github.com/custodia-labs/policy-assistant/internal/logger"
	"github.com/custodia-labs/policy-assistant/internal/normalisers"
	"github.com/custodia-labs/policy-assistant/internal/postprocessors"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Loading .env: %v", err)
	}

	svc, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetServices(svc)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// configStore opens ~/.policyqa/config.toml. Without a home directory
// settings come from the environment alone and are not saved.
func configStore() (driven.ConfigStore, error) {
	dir, err := configfile.DefaultDir()
	if err != nil {
		logger.Warn("No config directory, using environment only: %v", err)
		return memory.NewConfigStore(), nil
	}
	fileStore, err := configfile.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return fileStore, nil
}

// wire builds the application services. Settings problems are fatal;
// an unusable model provider only disables the services that need it,
// so settings and docs commands keep working.
func wire() (*cli.Services, error) {
	base, err := configStore()
	if err != nil {
		return nil, err
	}
	settingsService := services.NewSettingsService(env.NewStore(base), ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewIndexStore(settings.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}
	index := services.NewIndexHandle(store, flat.Build)

	svc := &cli.Services{
		Settings: settingsService,
		Document: services.NewDocumentService(index, settings.Docs.BaseURL),
		Feedback: services.NewFeedbackService(storagefile.NewFeedbackLog(settings.Storage.Dir)),
	}

	if settings.WhatsApp.IsConfigured() {
		m, err := whatsapp.NewMessenger(whatsapp.Config{
			Token:      settings.WhatsApp.Token,
			APIBaseURL: settings.WhatsApp.APIBaseURL,
		})
		if err != nil {
			return nil, err
		}
		svc.Messenger = m
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		svc.SetupErr = err
		return svc, nil
	}

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking)
	if err != nil {
		return nil, fmt.Errorf("chunking settings: %w", err)
	}

	retrieval := services.NewRetrievalService(index, embedder)
	svc.Retrieval = retrieval
	svc.Ingest = services.NewIngestService(
		normalisers.NewDefaultRegistry(),
		pipeline,
		embedder,
		store,
		flat.Build,
		index,
		services.IngestConfig{
			BatchSize:         settings.Embedding.BatchSize,
			Workers:           settings.Embedding.Workers,
			RequestsPerSecond: settings.Embedding.RequestsPerSecond,
		},
	)

	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		svc.SetupErr = err
		return svc, nil
	}

	prompts, err := configfile.NewPromptStore("")
	if err != nil {
		logger.Warn("Keeping prompts with the index: %v", err)
		if prompts, err = configfile.NewPromptStore(filepath.Join(settings.Storage.Dir, "prompts")); err != nil {
			return nil, fmt.Errorf("opening prompts: %w", err)
		}
	}

	svc.Ask = services.NewAskService(retrieval, services.NewSynthesizer(llm, prompts), services.AskConfig{
		DefaultTopK: settings.Retrieval.TopK,
		Regions:     settings.Retrieval.Regions,
		DocsBaseURL: settings.Docs.BaseURL,
	})
	return svc, nil
}
