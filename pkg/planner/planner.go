// Package planner builds the planner capability for a domain.
//
// Fallback mode yields the offline template planner; otherwise a language
// model is required, either supplied directly or built from OpenAI-compatible
// settings.
package planner

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/planner/llm"
	"github.com/aretw0/stepwise/pkg/planner/offline"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gpt-4o-mini"

type settings struct {
	model         llms.Model
	modelName     string
	baseURL       string
	apiKey        string
	templatesPath string
	logger        *slog.Logger
}

// Option configures planner construction.
type Option func(*settings)

// WithModel supplies a ready language model.
func WithModel(m llms.Model) Option {
	return func(s *settings) {
		s.model = m
	}
}

// WithOpenAI configures an OpenAI-compatible endpoint.
func WithOpenAI(model, baseURL, apiKey string) Option {
	return func(s *settings) {
		s.modelName = model
		s.baseURL = baseURL
		s.apiKey = apiKey
	}
}

// WithTemplates points the offline planner at a custom templates file.
func WithTemplates(path string) Option {
	return func(s *settings) {
		s.templatesPath = path
	}
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// New creates the planner for d.
func New(d domain.Domain, cfg domain.PlannerConfig, opts ...Option) (ports.Planner, error) {
	s := &settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Fallback {
		s.logger.Debug("Planner Selected", "kind", "offline", "domain", d)
		var offOpts []offline.Option
		if s.templatesPath != "" {
			t, err := offline.LoadTemplates(s.templatesPath)
			if err != nil {
				return nil, err
			}
			offOpts = append(offOpts, offline.WithTemplates(t))
		}
		return offline.New(offOpts...)
	}

	model := s.model
	if model == nil {
		if s.apiKey == "" {
			return nil, fmt.Errorf("%w: no API key configured (set OPENAI_API_KEY or --api-key, or use --fallback)", domain.ErrPlannerUnavailable)
		}
		name := s.modelName
		if name == "" {
			name = DefaultModel
		}
		clientOpts := []openai.Option{
			openai.WithToken(s.apiKey),
			openai.WithModel(name),
		}
		if s.baseURL != "" {
			clientOpts = append(clientOpts, openai.WithBaseURL(s.baseURL))
		}
		client, err := openai.New(clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPlannerUnavailable, err)
		}
		model = client
	}

	s.logger.Debug("Planner Selected", "kind", "llm", "domain", d, "model", s.modelName)
	return llm.New(model, d, llm.WithLogger(s.logger)), nil
}
