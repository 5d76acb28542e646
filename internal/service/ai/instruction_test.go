package ai

import (
	"strings"
	"testing"

	"github.com/zhouzirui/ergodesk/backend/internal/model/persona"
)

func TestBuildUsesTemplateForSeededPersonas(t *testing.T) {
	builder := NewInstructionBuilder()

	for _, p := range persona.Seed() {
		t.Run(p.ID, func(t *testing.T) {
			tmpl, err := builder.Template(p.ID)
			if err != nil {
				t.Fatalf("expected template for %s: %v", p.ID, err)
			}

			got := builder.Build(p)
			if !strings.HasPrefix(got, tmpl.Role) {
				t.Fatalf("instruction should start with the role text, got %q", got)
			}
			if !strings.Contains(got, p.Name) {
				t.Fatalf("instruction should mention %s", p.Name)
			}
			if strings.HasSuffix(got, "\n") {
				t.Fatal("instruction should not end with a newline")
			}
		})
	}
}

func TestBuildDefaultPersonaKeepsConsultantRole(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())
	p, _ := store.FindByID(persona.DefaultID)

	got := NewInstructionBuilder().Build(p)
	want := "You're an ergonomic consultant helping users improve their home office setup to reduce discomfort and improve productivity."
	if !strings.HasPrefix(got, want) {
		t.Fatalf("unexpected instruction: %q", got)
	}
}

func TestBuildFallsBackWithoutTemplate(t *testing.T) {
	p := persona.Persona{
		ID:         "standing-desk-fan",
		Name:       "Standing Desk Fan",
		Title:      "Sit-stand Enthusiast",
		Tone:       "upbeat",
		PromptHint: "Mention alternating positions.",
	}

	got := NewInstructionBuilder().Build(p)
	if !strings.HasPrefix(got, "You're Standing Desk Fan, sit-stand enthusiast.") {
		t.Fatalf("unexpected fallback: %q", got)
	}
	if !strings.Contains(got, "Keep a upbeat tone.") || !strings.Contains(got, "Mention alternating positions.") {
		t.Fatalf("fallback should include tone and hint: %q", got)
	}
}
