package generator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"windexai/pkg/ai"
	"windexai/pkg/domain"
)

const developerSystemPrompt = `Ты опытный веб-разработчик. Генерируй чистый, современный, production-ready код.
Режим: %s. Контекст плана: %s
Отвечай ТОЛЬКО кодом, без пояснений. Не используй markdown-разметку.`

var (
	fenceOpenRe  = regexp.MustCompile("(?im)^```[a-zA-Z]*[ \t]*\r?\n?")
	fenceCloseRe = regexp.MustCompile("(?m)\\s*```\\s*$")
	strayMarkRe  = regexp.MustCompile(`(?im)^\s*(html|css)\s*$`)
)

// GenerateStep runs one developer call for a plan step. Model failures return
// a comment placeholder instead of an error so a single bad step cannot sink
// the whole build.
func (p *Pipeline) GenerateStep(ctx context.Context, step domain.PlanStep, mode, planContext string) domain.CodePart {
	system := fmt.Sprintf(developerSystemPrompt, mode, planContext)
	user := fmt.Sprintf("Сгенерируй %s код для: %s", step.CodeType, step.Description)

	raw, err := p.llm.Chat(ctx, p.model, []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, 0.8)
	if err != nil {
		p.log.Warn("developer call failed", "step", step.Name, "error", err)
		return errorPlaceholder(step)
	}
	return domain.CodePart{
		Type:     step.CodeType,
		Code:     stripFences(raw),
		StepName: step.Name,
	}
}

// stripFences removes markdown code-fence markers the model sometimes wraps
// its output in.
func stripFences(code string) string {
	code = fenceOpenRe.ReplaceAllString(code, "")
	code = fenceCloseRe.ReplaceAllString(code, "")
	return strings.TrimSpace(code)
}

func errorPlaceholder(step domain.PlanStep) domain.CodePart {
	var code string
	switch step.CodeType {
	case "html":
		code = "<!-- Error generating html code -->"
	case "css":
		code = "/* Error generating css code */"
	case "javascript":
		code = "// Error generating javascript code"
	default:
		code = fmt.Sprintf("<!-- Error generating %s code -->", step.CodeType)
	}
	return domain.CodePart{Type: step.CodeType, Code: code, StepName: step.Name}
}
