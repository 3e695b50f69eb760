package provider

import (
	"context"
	"fmt"
	"net/http"

	"pilotscope/internal/config"
)

// Chain is the ordered list of providers tried for one generation
type Chain []Provider

// NewChain builds providers in the configured order, skipping those without a key
func NewChain(ctx context.Context, cfg config.AIConfig, httpClient *http.Client) (Chain, error) {
	var chain Chain
	for _, name := range cfg.EnabledProviders() {
		switch name {
		case config.ProviderOpenAI:
			var doer HTTPDoer
			if httpClient != nil {
				doer = httpClient
			}
			p, err := NewOpenAI(cfg.OpenAI, doer)
			if err != nil {
				return nil, err
			}
			chain = append(chain, p)
		case config.ProviderGemini:
			p, err := NewGemini(ctx, cfg.Gemini, httpClient)
			if err != nil {
				return nil, err
			}
			chain = append(chain, p)
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return chain, nil
}

// Names lists the providers in order
func (c Chain) Names() []string {
	names := make([]string, 0, len(c))
	for _, p := range c {
		names = append(names, p.Name())
	}
	return names
}
