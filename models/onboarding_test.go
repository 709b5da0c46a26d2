package models

import (
	"strings"
	"testing"
)

func TestPersonaIncludesProfileDetails(t *testing.T) {
	profile := OnboardingProfile{
		Name:          "Ada",
		Depth:         "beginner",
		LearningStyle: "visual",
		Traits:        []string{"curious", "hands-on"},
		Interests:     []string{"music", "robotics"},
	}

	persona := profile.Persona()

	for _, want := range []string{"Ada", "first principles", "visual", "curious", "robotics"} {
		if !strings.Contains(persona, want) {
			t.Errorf("persona missing %q: %s", want, persona)
		}
	}
}

func TestPersonaMinimalProfile(t *testing.T) {
	profile := OnboardingProfile{Name: "Sam"}

	persona := profile.Persona()
	if !strings.Contains(persona, "Sam") {
		t.Fatalf("persona missing name: %s", persona)
	}
	if strings.Contains(persona, "learning style") {
		t.Fatalf("unset fields should not appear: %s", persona)
	}
}

func TestPersonaDepthVariants(t *testing.T) {
	beginner := (&OnboardingProfile{Name: "A", Depth: "beginner"}).Persona()
	advanced := (&OnboardingProfile{Name: "A", Depth: "advanced"}).Persona()
	if beginner == advanced {
		t.Fatal("depth levels should produce different personas")
	}
}
