package generator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"windexai/pkg/ai"
	"windexai/pkg/domain"
)

// fakeLLM answers architect calls with plan and developer calls via code.
type fakeLLM struct {
	plan    string
	planErr error
	code    func(userPrompt string) (string, error)
}

func (f *fakeLLM) Chat(ctx context.Context, model string, messages []ai.Message, temperature float64) (string, error) {
	system := messages[0].Content
	if strings.Contains(system, "веб-архитектор") {
		return f.plan, f.planErr
	}
	if f.code != nil {
		return f.code(messages[len(messages)-1].Content)
	}
	return "<div>ok</div>", nil
}

func (f *fakeLLM) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return "", nil
}

func (f *fakeLLM) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	return nil, nil
}

const validPlanJSON = `{
  "analysis": "лендинг для кофейни",
  "steps": [
    {"id": 1, "name": "Хедер", "description": "шапка сайта", "code_type": "html", "priority": "high", "dependencies": []},
    {"id": 2, "name": "Стили", "description": "оформление", "code_type": "css", "priority": "high", "dependencies": [1]}
  ],
  "final_structure": "один HTML файл"
}`

func TestBuildPlanParsesModelOutput(t *testing.T) {
	p := NewPipeline(&fakeLLM{plan: validPlanJSON}, "", nil)
	plan := p.BuildPlan(context.Background(), "сайт кофейни", "lite")
	if len(plan.Steps) != 2 {
		t.Fatalf("want 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[1].CodeType != "css" {
		t.Fatalf("step types lost: %+v", plan.Steps)
	}
}

func TestBuildPlanParsesFencedJSON(t *testing.T) {
	p := NewPipeline(&fakeLLM{plan: "```json\n" + validPlanJSON + "\n```"}, "", nil)
	plan := p.BuildPlan(context.Background(), "сайт", "lite")
	if len(plan.Steps) != 2 {
		t.Fatalf("fenced plan not parsed, got %d steps", len(plan.Steps))
	}
}

func TestBuildPlanFallsBackOnGarbage(t *testing.T) {
	p := NewPipeline(&fakeLLM{plan: "вот план: сначала хедер, потом футер"}, "", nil)
	plan := p.BuildPlan(context.Background(), "сайт кофейни", "lite")
	assertFallbackPlan(t, plan)
}

func TestBuildPlanFallsBackOnAPIError(t *testing.T) {
	p := NewPipeline(&fakeLLM{planErr: fmt.Errorf("boom")}, "", nil)
	plan := p.BuildPlan(context.Background(), "сайт", "pro")
	assertFallbackPlan(t, plan)
}

func TestBuildPlanFallsBackOnInvalidCodeType(t *testing.T) {
	bad := `{"analysis":"x","steps":[{"id":1,"name":"n","description":"d","code_type":"python","priority":"high","dependencies":[]}],"final_structure":"y"}`
	p := NewPipeline(&fakeLLM{plan: bad}, "", nil)
	plan := p.BuildPlan(context.Background(), "сайт", "lite")
	assertFallbackPlan(t, plan)
}

func assertFallbackPlan(t *testing.T, plan domain.Plan) {
	t.Helper()
	if len(plan.Steps) != 6 {
		t.Fatalf("fallback plan must have 6 steps, got %d", len(plan.Steps))
	}
	types := []string{"html", "html", "html", "html", "css", "javascript"}
	for i, step := range plan.Steps {
		if step.CodeType != types[i] {
			t.Fatalf("fallback step %d type %q, want %q", i+1, step.CodeType, types[i])
		}
	}
}

func TestGenerateStepStripsMarkdownFences(t *testing.T) {
	llm := &fakeLLM{code: func(string) (string, error) {
		return "```html\n<div>hello</div>\n```", nil
	}}
	p := NewPipeline(llm, "", nil)
	part := p.GenerateStep(context.Background(), domain.PlanStep{Name: "Хедер", CodeType: "html", Description: "шапка"}, "lite", "")
	if part.Code != "<div>hello</div>" {
		t.Fatalf("fences not stripped: %q", part.Code)
	}
	if part.StepName != "Хедер" || part.Type != "html" {
		t.Fatalf("part metadata wrong: %+v", part)
	}
}

func TestGenerateStepPlaceholderPerCodeType(t *testing.T) {
	llm := &fakeLLM{code: func(string) (string, error) { return "", fmt.Errorf("model down") }}
	p := NewPipeline(llm, "", nil)

	cases := map[string]string{
		"html":       "<!-- Error generating html code -->",
		"css":        "/* Error generating css code */",
		"javascript": "// Error generating javascript code",
	}
	for codeType, want := range cases {
		part := p.GenerateStep(context.Background(), domain.PlanStep{Name: "s", CodeType: codeType}, "lite", "")
		if part.Code != want {
			t.Fatalf("placeholder for %s = %q, want %q", codeType, part.Code, want)
		}
	}
}

func TestGeneratePreservesPlanOrder(t *testing.T) {
	// The first step answers slower than the second; output order must still
	// follow the plan.
	llm := &fakeLLM{
		plan: validPlanJSON,
		code: func(userPrompt string) (string, error) {
			if strings.Contains(userPrompt, "шапка") {
				time.Sleep(30 * time.Millisecond)
				return "<header>шапка</header>", nil
			}
			return "header { color: red; }", nil
		},
	}
	p := NewPipeline(llm, "", nil)
	res, err := p.Generate(context.Background(), "сайт кофейни", "lite")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Parts) != 2 {
		t.Fatalf("want 2 parts, got %d", len(res.Parts))
	}
	if res.Parts[0].Type != "html" || res.Parts[1].Type != "css" {
		t.Fatalf("plan order not preserved: %+v", res.Parts)
	}
	if !strings.Contains(res.HTML, "<header>шапка</header>") {
		t.Fatalf("generated markup missing from document")
	}
	if !strings.Contains(res.HTML, "header { color: red; }") {
		t.Fatalf("generated css missing from document")
	}
}

func TestGenerateRejectsUnknownMode(t *testing.T) {
	p := NewPipeline(&fakeLLM{plan: validPlanJSON}, "", nil)
	if _, err := p.Generate(context.Background(), "сайт", "turbo"); err == nil {
		t.Fatalf("unknown mode must error")
	}
}
