package main

import (
	"fmt"
	"os"

	"xbot/internal/bot"
	"xbot/internal/config"
	"xbot/internal/gemini"
	"xbot/internal/ledger"
	"xbot/internal/xapi"
)

// runtime bundles the wired components a command needs.
type runtime struct {
	cfg   *config.Config
	store *ledger.Store
	pub   *bot.Publisher
}

// loadRuntime opens the ledger and wires the publisher from the
// already-loaded config. Credential validation happens up front so a
// half-configured run fails before any state is touched.
func loadRuntime(requireGemini, requireX bool) (*runtime, error) {
	if requireGemini {
		if err := cfg.ValidateGeminiCredentials(); err != nil {
			return nil, err
		}
	}
	if requireX {
		if err := cfg.ValidateXCredentials(); err != nil {
			return nil, err
		}
	}

	store, err := ledger.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	genClient := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.GetGeminiTimeout(),
	})
	genClient.SetLogger(logger)

	platform := xapi.NewClient(xapi.Credentials{
		APIKey:            cfg.X.APIKey,
		APISecretKey:      cfg.X.APISecretKey,
		AccessToken:       cfg.X.AccessToken,
		AccessTokenSecret: cfg.X.AccessTokenSecret,
	}, cfg.X.BaseURL, cfg.X.UserID)
	platform.SetLogger(logger)

	drafter := gemini.NewDrafter(cfg.Personality)
	quota := bot.Quota{Threshold: cfg.Quota.Threshold, Max: cfg.Quota.Max}

	pub := bot.NewPublisher(store, genClient, platform, drafter, quota, logger, os.Stdin, os.Stdout)

	return &runtime{cfg: cfg, store: store, pub: pub}, nil
}

// Close releases the runtime's resources.
func (r *runtime) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}
