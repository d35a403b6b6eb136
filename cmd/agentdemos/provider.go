package main

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentdemos/internal/config"
	"github.com/hupe1980/agentdemos/model"
	"github.com/hupe1980/agentdemos/model/anthropic"
	"github.com/hupe1980/agentdemos/model/openai"
)

// newModel builds the model for the configured provider. The SDKs read their
// API keys from OPENAI_API_KEY and ANTHROPIC_API_KEY.
func newModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Model
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Model)
		}), nil
	case "mock":
		name := cfg.Model
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
