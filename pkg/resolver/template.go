// Copyright 2025 Certen Protocol

package resolver

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/statemachine"
)

//go:embed templates/purchase_lesson.yaml
var templatesFS embed.FS

type templateEffect struct {
	Type string         `yaml:"type"`
	Data map[string]any `yaml:"data"`
}

type templateStep struct {
	Description string          `yaml:"description"`
	Effect      *templateEffect `yaml:"effect"`
}

type contractTemplate struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Steps       []templateStep `yaml:"steps"`
}

func loadPurchaseLessonTemplate() (contractTemplate, error) {
	data, err := templatesFS.ReadFile("templates/purchase_lesson.yaml")
	if err != nil {
		return contractTemplate{}, fmt.Errorf("resolver: read purchaseLesson template: %w", err)
	}

	var tpl contractTemplate
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return contractTemplate{}, fmt.Errorf("resolver: parse purchaseLesson template: %w", err)
	}
	return tpl, nil
}

func (s templateStep) toEffectDescriptor() *contract.EffectDescriptor {
	if s.Effect == nil {
		return nil
	}
	return &contract.EffectDescriptor{Type: s.Effect.Type, Data: s.Effect.Data}
}

func (t contractTemplate) toStepInputs() []statemachine.StepInput {
	steps := make([]statemachine.StepInput, len(t.Steps))
	for i, s := range t.Steps {
		steps[i] = statemachine.StepInput{Description: s.Description, Effect: s.toEffectDescriptor()}
	}
	return steps
}
