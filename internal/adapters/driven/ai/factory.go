// Package ai provides factory functions for creating generation adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicgen "github.com/custodia-labs/digest-cli/internal/adapters/driven/llm/anthropic"
	ollamagen "github.com/custodia-labs/digest-cli/internal/adapters/driven/llm/ollama"
	openaigen "github.com/custodia-labs/digest-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateGenerator creates the generator selected by settings, paced when
// RequestsPerSecond is positive.
func CreateGenerator(settings *domain.GeneratorSettings) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured",
			domain.ErrGeneratorUnavailable, providerName(settings))
	}

	var (
		gen driven.Generator
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		gen, err = ollamagen.NewGenerator(ollamagen.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
	case domain.AIProviderOpenAI:
		gen, err = openaigen.NewGenerator(openaigen.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
	case domain.AIProviderAnthropic:
		gen, err = anthropicgen.NewGenerator(anthropicgen.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, err)
	}

	if settings.RequestsPerSecond > 0 {
		gen = NewRateLimitedGenerator(gen, settings.RequestsPerSecond)
	}
	return gen, nil
}

// CreateAndValidateGenerator creates a generator and checks connectivity.
func CreateAndValidateGenerator(settings *domain.GeneratorSettings) (driven.Generator, error) {
	gen, err := CreateGenerator(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := gen.Ping(ctx); err != nil {
		gen.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check 'digest settings'",
			domain.ErrGeneratorUnavailable, err)
	}
	return gen, nil
}

func providerName(settings *domain.GeneratorSettings) string {
	if settings == nil {
		return ""
	}
	return settings.Provider.String()
}
