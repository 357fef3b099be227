package scene

import (
	"errors"
	"testing"

	"github.com/df07/go-pathtracer/pkg/renderer"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"hollow-glass", "Hollow Glass"},
		{"book_cover", "Book Cover"},
		{"depth-of-field", "Depth Of Field"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestNames_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range Names() {
		if seen[name] {
			t.Errorf("Duplicate scene name %q", name)
		}
		seen[name] = true
	}
	if len(seen) != 10 {
		t.Errorf("Expected 10 builtin scenes, got %d", len(seen))
	}
}

func TestNew_UnknownScene(t *testing.T) {
	s, err := New("cornell-box", renderer.LowSettings(), Options{})
	if !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
	if s != nil {
		t.Error("Expected nil scene for unknown name")
	}
}

func TestListAllScenes(t *testing.T) {
	response := ListAllScenes()

	if len(response.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(response.Groups))
	}
	if response.Groups[0].Name != groupBookOne || response.Groups[1].Name != groupBookTwo {
		t.Errorf("Unexpected group order: %q, %q", response.Groups[0].Name, response.Groups[1].Name)
	}

	total := 0
	for _, group := range response.Groups {
		for i, info := range group.Scenes {
			total++
			if info.Group != group.Name {
				t.Errorf("Scene %q listed under %q but belongs to %q", info.ID, group.Name, info.Group)
			}
			if info.DisplayName == "" || info.Description == "" {
				t.Errorf("Scene %q is missing metadata: %+v", info.ID, info)
			}
			if i > 0 && group.Scenes[i-1].DisplayName > info.DisplayName {
				t.Errorf("Scenes in %q are not sorted by display name", group.Name)
			}
		}
	}
	if total != len(Names()) {
		t.Errorf("Expected %d listed scenes, got %d", len(Names()), total)
	}
}
