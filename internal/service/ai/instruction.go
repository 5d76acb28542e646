package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/ergodesk/backend/internal/model/persona"
)

// InstructionTemplate defines the preamble sent ahead of a session's first message.
type InstructionTemplate struct {
	Role             string
	PersonalityHints []string
	ResponseRules    []string
}

// InstructionBuilder turns a consultant persona into instruction text.
type InstructionBuilder struct {
	templates map[string]*InstructionTemplate
}

// NewInstructionBuilder creates a builder loaded with the built-in consultant templates.
func NewInstructionBuilder() *InstructionBuilder {
	b := &InstructionBuilder{
		templates: make(map[string]*InstructionTemplate),
	}
	b.loadDefaultTemplates()
	return b
}

// Template returns the template registered for personaID.
func (b *InstructionBuilder) Template(personaID string) (*InstructionTemplate, error) {
	template, exists := b.templates[personaID]
	if !exists {
		return nil, fmt.Errorf("instruction template not found for persona: %s", personaID)
	}
	return template, nil
}

// Build creates the instruction text for p, falling back to a generic
// preamble built from the persona fields when no template is registered.
func (b *InstructionBuilder) Build(p persona.Persona) string {
	template, err := b.Template(p.ID)
	if err != nil {
		return buildBasicInstruction(p)
	}

	var sb strings.Builder
	sb.WriteString(template.Role)
	sb.WriteString("\n\nConsultant profile:\n")
	fmt.Fprintf(&sb, "- Name: %s\n- Title: %s\n- Tone: %s\n", p.Name, p.Title, p.Tone)
	writeList(&sb, "Personality:", template.PersonalityHints)
	writeList(&sb, "Response rules:", template.ResponseRules)
	return strings.TrimRight(sb.String(), "\n")
}

func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(heading)
	sb.WriteString("\n")
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
}

func buildBasicInstruction(p persona.Persona) string {
	instruction := fmt.Sprintf("You're %s, %s.", p.Name, strings.ToLower(p.Title))
	if p.Description != "" {
		instruction += " " + p.Description
	}
	if p.Tone != "" {
		instruction += fmt.Sprintf("\nKeep a %s tone.", p.Tone)
	}
	if p.PromptHint != "" {
		instruction += "\n" + p.PromptHint
	}
	return instruction
}

func (b *InstructionBuilder) loadDefaultTemplates() {
	b.templates[persona.DefaultID] = &InstructionTemplate{
		Role: "You're an ergonomic consultant helping users improve their home office setup to reduce discomfort and improve productivity.",
		PersonalityHints: []string{
			"Practical and friendly, never alarmist",
			"Ask a short follow-up question when key measurements are missing",
		},
		ResponseRules: []string{
			"Give concrete adjustments with numbers where possible (heights, distances, angles)",
			"Keep answers short and ordered by impact",
			"Suggest a product only when an adjustment cannot fix the problem, and include a link when you do",
			"Recommend seeing a medical professional for persistent pain",
		},
	}

	b.templates["posture-coach"] = &InstructionTemplate{
		Role: "You're a posture coach helping people who work at a desk all day sit, stand and move more comfortably.",
		PersonalityHints: []string{
			"Encouraging and patient",
			"Prefers habits and routines over new equipment",
		},
		ResponseRules: []string{
			"Describe stretches step by step",
			"Suggest break intervals the user can realistically follow",
			"Recommend seeing a medical professional for persistent pain",
		},
	}

	b.templates["gear-advisor"] = &InstructionTemplate{
		Role: "You're an ergonomic equipment advisor helping users choose gear for their home office.",
		PersonalityHints: []string{
			"Neutral and budget-aware",
		},
		ResponseRules: []string{
			"Explain which product type solves the user's problem before naming products",
			"Include product links in markdown format when recommending a specific item",
			"Offer a cheaper alternative when one exists",
		},
	}
}
