package feedback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonathan/mock-interview/internal/llm"
	"github.com/jonathan/mock-interview/internal/schemas"
	"github.com/jonathan/mock-interview/internal/types"
)

// DefaultTimeout bounds a single generation call
const DefaultTimeout = 60 * time.Second

// GeneratorOptions configures a Generator
type GeneratorOptions struct {
	Timeout time.Duration
	Tier    llm.ModelTier
	// Structured uses provider-side schema enforcement when the client supports it
	Structured bool
	Logger     *slog.Logger
}

// Generator asks a language model to score a transcript
type Generator struct {
	client llm.Client
	opts   GeneratorOptions
}

// NewGenerator creates a Generator over an LLM client
func NewGenerator(client llm.Client, opts GeneratorOptions) *Generator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{client: client, opts: opts}
}

// Generate sends the prompt and returns the validated assessment.
// The response is validated even when the provider enforced the schema.
func (g *Generator) Generate(ctx context.Context, prompt string) (*types.Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	text, err := g.complete(ctx, prompt)
	if err != nil {
		g.opts.Logger.Error("feedback generation failed",
			slog.String("model", g.client.GetModel(g.opts.Tier)),
			slog.Any("error", err),
		)
		return nil, &GenerationError{Message: "language model call failed", Cause: err}
	}

	fb, err := ParseAndValidate(llm.CleanJSONBlock(text))
	if err != nil {
		var sv *SchemaViolationError
		if errors.As(err, &sv) {
			sv.Raw = text
			g.opts.Logger.Warn("feedback response rejected",
				slog.String("field", sv.Field),
				slog.String("reason", sv.Message),
				slog.String("raw_response", text),
			)
		}
		return nil, err
	}
	return fb, nil
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	if sc, ok := g.client.(llm.StructuredClient); ok && g.opts.Structured {
		schema, err := schemas.Raw(schemas.FeedbackSchema)
		if err != nil {
			return "", err
		}
		return sc.GenerateStructured(ctx, llm.StructuredRequest{
			System: SystemInstruction(),
			Prompt: prompt,
			Schema: schema,
			Tier:   g.opts.Tier,
		})
	}
	return g.client.GenerateJSON(ctx, prompt, g.opts.Tier)
}
