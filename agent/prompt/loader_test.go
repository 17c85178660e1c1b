package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	prompts := map[string]string{
		"receptionist": set.Receptionist,
		"reservations": set.Reservations,
		"takeaway":     set.Takeaway,
		"payment":      set.Payment,
		"assistant":    set.Assistant,
	}
	for name, text := range prompts {
		if text == "" {
			t.Errorf("%s prompt is empty", name)
			continue
		}
		if text != strings.TrimSpace(text) {
			t.Errorf("%s prompt not trimmed", name)
		}
	}
}
