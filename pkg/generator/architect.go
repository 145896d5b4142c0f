// Package generator implements the website-generation pipeline: an architect
// model call that plans, parallel developer calls that produce code per step,
// and a deterministic combiner that assembles the final document.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"windexai/pkg/ai"
	"windexai/pkg/domain"
)

const architectSystemPrompt = `Ты опытный веб-архитектор. Проанализируй запрос пользователя и составь план разработки сайта.
Ответь СТРОГО валидным JSON без пояснений и markdown-разметки:
{
  "analysis": "краткий анализ запроса",
  "steps": [
    {"id": 1, "name": "...", "description": "...", "code_type": "html|css|javascript", "priority": "high|medium|low", "dependencies": []}
  ],
  "final_structure": "описание итоговой структуры"
}
План должен содержать от 4 до 8 шагов. Каждый шаг генерирует ровно один тип кода.`

// BuildPlan asks the architect model for a step plan. Any failure, be it the
// API call, JSON parsing or plan validation, yields the fixed fallback plan.
func (p *Pipeline) BuildPlan(ctx context.Context, userRequest, mode string) domain.Plan {
	raw, err := p.llm.Chat(ctx, p.model, []ai.Message{
		{Role: "system", Content: architectSystemPrompt},
		{Role: "user", Content: userRequest},
	}, 0.9)
	if err != nil {
		p.log.Warn("architect call failed, using fallback plan", "error", err)
		return fallbackPlan(userRequest, mode)
	}

	var plan domain.Plan
	if err := json.Unmarshal([]byte(stripFences(raw)), &plan); err != nil {
		p.log.Warn("architect returned unparsable plan, using fallback", "error", err)
		return fallbackPlan(userRequest, mode)
	}
	if err := validatePlan(plan); err != nil {
		p.log.Warn("architect plan failed validation, using fallback", "error", err)
		return fallbackPlan(userRequest, mode)
	}
	return plan
}

func validatePlan(plan domain.Plan) error {
	if len(plan.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	for _, step := range plan.Steps {
		if strings.TrimSpace(step.Name) == "" {
			return fmt.Errorf("step %d has no name", step.ID)
		}
		switch step.CodeType {
		case "html", "css", "javascript":
		default:
			return fmt.Errorf("step %d has unknown code type %q", step.ID, step.CodeType)
		}
	}
	return nil
}

// fallbackPlan is the fixed six-step plan used when the architect fails.
func fallbackPlan(userRequest, mode string) domain.Plan {
	return domain.Plan{
		Analysis: fmt.Sprintf("Создание %s проекта по запросу: %s", mode, userRequest),
		Steps: []domain.PlanStep{
			{ID: 1, Name: "Создание хедера с навигацией", Description: "Создать шапку сайта с логотипом и меню навигации", CodeType: "html", Priority: "high", Dependencies: []int{}},
			{ID: 2, Name: "Создание hero-секции", Description: "Создать главную секцию с заголовком и призывом к действию", CodeType: "html", Priority: "high", Dependencies: []int{1}},
			{ID: 3, Name: "Создание основного контента", Description: "Создать секции с основным контентом сайта", CodeType: "html", Priority: "high", Dependencies: []int{2}},
			{ID: 4, Name: "Создание футера", Description: "Создать подвал сайта с контактной информацией", CodeType: "html", Priority: "medium", Dependencies: []int{3}},
			{ID: 5, Name: "Добавление стилей", Description: "Добавить CSS стили для всех секций", CodeType: "css", Priority: "high", Dependencies: []int{4}},
			{ID: 6, Name: "Добавление интерактивности", Description: "Добавить JavaScript для интерактивных элементов", CodeType: "javascript", Priority: "medium", Dependencies: []int{5}},
		},
		FinalStructure: "Единый HTML файл с встроенными CSS и JavaScript",
	}
}
