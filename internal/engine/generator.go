// Package engine composes template rendering, config resolution, model
// invocation, and response parsing into one generation pipeline driven by
// per-experiment configuration records.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/upliftlab/affirmd/internal/agent"
	"github.com/upliftlab/affirmd/internal/kvstore"
	"github.com/upliftlab/affirmd/internal/llm"
	"github.com/upliftlab/affirmd/internal/parse"
	"github.com/upliftlab/affirmd/internal/prompt"
	"github.com/upliftlab/affirmd/internal/telemetry"
	"github.com/upliftlab/affirmd/types"
)

var (
	// ErrUnknownVersion is returned for requests naming an unregistered
	// experiment. Surfaced as a validation error, not a server fault.
	ErrUnknownVersion = errors.New("unknown experiment version")
	// ErrNoThemes is returned when a request carries no themes. The model is
	// never invoked for such requests.
	ErrNoThemes = errors.New("at least one theme is required")
)

// ChatClient is the slice of the LLM client the generator needs; tests
// substitute a fake.
type ChatClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.GenerateOptions) (string, error)
	ModelName(override string) string
}

// Generator runs the generation pipeline for every registered experiment.
type Generator struct {
	renderer  *prompt.Renderer
	resolver  *agent.Resolver
	client    ChatClient
	logger    *zap.Logger
	telemetry telemetry.Client
}

// NewGenerator wires the pipeline. logger and tel may be nil, in which case
// they default to no-ops.
func NewGenerator(store kvstore.Store, client ChatClient, logger *zap.Logger, tel telemetry.Client) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tel == nil {
		tel = telemetry.NopClient{}
	}
	return &Generator{
		renderer:  prompt.NewRenderer(store, nil),
		resolver:  agent.NewResolver(store),
		client:    client,
		logger:    logger,
		telemetry: tel,
	}
}

// Generate runs one request through the pipeline: validate, build variables,
// render the user prompt (store template with hardcoded fallback), resolve
// model and temperature, invoke the model, and parse the response into the
// experiment's shape.
func (g *Generator) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerationResult, error) {
	if len(req.Themes) == 0 {
		return types.GenerationResult{}, ErrNoThemes
	}

	exp, ok := LookupExperiment(req.Version)
	if !ok {
		return types.GenerationResult{}, fmt.Errorf("version %q: %w", req.Version, ErrUnknownVersion)
	}

	implementation := req.Implementation
	if implementation == "" {
		implementation = kvstore.DefaultImplementation
	}

	variables := map[string]any{
		"themes":            req.Themes,
		"additionalContext": req.AdditionalContext,
		"tone":              req.Tone,
		"challenges":        req.Challenges,
	}

	userPrompt, err := prompt.ResolveTemplate(ctx, g.renderer, prompt.Lookup{
		Key:            kvstore.KeyUserPrompt,
		Version:        exp.Version,
		Implementation: implementation,
		Variables:      variables,
	}, func() string {
		return prompt.FallbackUserPrompt(DefaultTemplate(exp.Shape), req.Themes, req.AdditionalContext)
	})
	if err != nil {
		return types.GenerationResult{}, fmt.Errorf("resolve prompt: %w", err)
	}

	systemPrompt, ok := g.resolver.SystemPrompt(ctx, exp.Version, implementation)
	if !ok {
		systemPrompt = prompt.DefaultSystemPrompt
	}

	modelOverride, _ := g.resolver.ModelName(ctx, exp.Version, implementation)
	temperature := g.resolver.Temperature(ctx, exp.Version, implementation, exp.DefaultTemperature)
	modelName := g.client.ModelName(modelOverride)

	g.logger.Debug("generation configured",
		zap.String("version", exp.Version),
		zap.String("implementation", implementation),
		zap.String("model", modelName),
		zap.Float64("temperature", temperature),
		zap.Int("prompt_chars", len(userPrompt)),
	)

	raw, err := g.client.Generate(ctx, systemPrompt, userPrompt, llm.GenerateOptions{
		Model:       modelOverride,
		Temperature: float32(temperature),
	})
	if err != nil {
		if !exp.Fallback {
			return types.GenerationResult{}, fmt.Errorf("invoke model: %w", err)
		}
		g.logger.Warn("model call failed, using deterministic fallback",
			zap.String("version", exp.Version), zap.Error(err))
		return g.fallbackResult(exp, req, implementation, modelName), nil
	}

	result := g.parseResult(exp, raw)
	result.Model = modelName
	result.Implementation = implementation

	g.logger.Info("generation completed",
		zap.String("version", exp.Version),
		zap.String("implementation", implementation),
		zap.String("model", modelName),
		zap.Int("affirmations", len(result.Affirmations)),
	)
	g.telemetry.Track("generation_completed", telemetry.Properties{
		"version":        exp.Version,
		"implementation": implementation,
		"model":          modelName,
		"shape":          string(exp.Shape),
	})

	return result, nil
}

// parseResult degrades through the parser's strategy ladder for the
// experiment's shape; it never produces an empty result.
func (g *Generator) parseResult(exp Experiment, raw string) types.GenerationResult {
	switch exp.Shape {
	case ShapeTagged:
		tagged := parse.Tagged(raw)
		return types.GenerationResult{Affirmations: tagged.Affirmations, Tags: tagged.Tags}
	case ShapeText:
		return types.GenerationResult{Text: parse.Text(raw)}
	default:
		return types.GenerationResult{Affirmations: parse.List(raw)}
	}
}

// fallbackResult builds deterministic affirmations from the raw preference
// fields for experiments designed for availability over correctness.
func (g *Generator) fallbackResult(exp Experiment, req types.GenerateRequest, implementation, modelName string) types.GenerationResult {
	affirmations := FallbackAffirmations(req)
	result := types.GenerationResult{Model: modelName, Implementation: implementation}
	if exp.Shape == ShapeText {
		result.Text = strings.Join(affirmations, " ")
	} else {
		result.Affirmations = affirmations
	}
	return result
}

// FallbackAffirmations derives affirmations directly from themes, tone, and
// challenges, with no model involved.
func FallbackAffirmations(req types.GenerateRequest) []string {
	var out []string
	for _, theme := range req.Themes {
		theme = strings.TrimSpace(theme)
		if theme == "" {
			continue
		}
		out = append(out, fmt.Sprintf("I give my full attention to %s today.", strings.ToLower(theme)))
	}
	for _, challenge := range req.Challenges {
		challenge = strings.TrimSpace(challenge)
		if challenge == "" {
			continue
		}
		out = append(out, fmt.Sprintf("I meet %s with patience and steadiness.", strings.ToLower(challenge)))
	}
	if tone := strings.TrimSpace(req.Tone); tone != "" {
		out = append(out, fmt.Sprintf("I carry a %s energy through everything I do.", strings.ToLower(tone)))
	}
	if len(out) == 0 {
		out = []string{"I am exactly where I need to be right now."}
	}
	return out
}
