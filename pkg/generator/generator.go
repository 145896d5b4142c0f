package generator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"windexai/pkg/ai"
	"windexai/pkg/domain"
)

const defaultConcurrency = 3

// Pipeline runs the architect, developer and combiner stages.
type Pipeline struct {
	llm         ai.LLM
	model       string
	concurrency int
	log         *slog.Logger
}

func NewPipeline(llm ai.LLM, model string, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		llm:         llm,
		model:       ai.ResolveModel(model),
		concurrency: defaultConcurrency,
		log:         log,
	}
}

// Result is the output of one full pipeline run.
type Result struct {
	Plan  domain.Plan
	Parts []domain.CodePart
	HTML  string
}

// Generate plans the site, generates code for every step concurrently and
// combines the parts. Plan steps are logically independent, so developer
// calls run in parallel with a bounded group; parts are reassembled in plan
// order regardless of completion order.
func (p *Pipeline) Generate(ctx context.Context, userRequest, mode string) (Result, error) {
	if mode != "lite" && mode != "pro" {
		return Result{}, fmt.Errorf("unsupported mode %q", mode)
	}

	plan := p.BuildPlan(ctx, userRequest, mode)
	p.log.Info("architect plan ready", "steps", len(plan.Steps), "mode", mode)

	parts := make([]domain.CodePart, len(plan.Steps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, step := range plan.Steps {
		i, step := i, step
		g.Go(func() error {
			parts[i] = p.GenerateStep(gctx, step, mode, plan.Analysis)
			return nil
		})
	}
	// Step failures surface as placeholder parts, never as group errors.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	html, err := Combine(parts, mode)
	if err != nil {
		return Result{}, err
	}
	p.log.Info("site generated", "parts", len(parts), "bytes", len(html))
	return Result{Plan: plan, Parts: parts, HTML: html}, nil
}
