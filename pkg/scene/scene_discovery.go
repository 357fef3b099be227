package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-pathtracer/pkg/renderer"
)

// ErrUnknownScene is returned when a scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a builtin scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier, accepted by New
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Animated    bool   `json:"animated"`    // Camera shutter is open over an interval
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// Builder creates a scene for the given image settings
type Builder func(settings renderer.Settings, opts Options) (*Scene, error)

type registration struct {
	info  SceneInfo
	build Builder
}

const (
	groupBookOne = "In One Weekend"
	groupBookTwo = "The Next Week"
)

var registry = []registration{
	{SceneInfo{ID: "sky", Description: "Empty world showing only the sky gradient", Group: groupBookOne}, NewSkyScene},
	{SceneInfo{ID: "sphere", Description: "Diffuse sphere on diffuse ground", Group: groupBookOne}, NewSphereScene},
	{SceneInfo{ID: "fuzzy-metal", Description: "Diffuse sphere between two brushed metal spheres", Group: groupBookOne}, NewFuzzyMetalScene},
	{SceneInfo{ID: "hollow-glass", Description: "Diffuse sphere, gold mirror and a hollow glass bubble", Group: groupBookOne}, NewHollowGlassScene},
	{SceneInfo{ID: "field-of-view", Description: "Two touching spheres filling a 90 degree view", Group: groupBookOne}, NewFieldOfViewScene},
	{SceneInfo{ID: "depth-of-field", Description: "Hollow glass scene seen through a wide aperture", Group: groupBookOne}, NewDepthOfFieldScene},
	{SceneInfo{ID: "book-cover", Description: "Random field of small spheres around three large ones", Group: groupBookOne}, NewBookCoverScene},
	{SceneInfo{ID: "motion-blur", Description: "Book cover with bouncing diffuse spheres", Group: groupBookTwo, Animated: true}, NewMotionBlurScene},
	{SceneInfo{ID: "checker", Description: "Two checkered spheres", Group: groupBookTwo}, NewCheckerScene},
	{SceneInfo{ID: "perlin", Description: "Perlin noise textured spheres", Group: groupBookTwo}, NewPerlinScene},
}

// Names returns the registered scene identifiers in registration order
func Names() []string {
	names := make([]string, len(registry))
	for i, r := range registry {
		names[i] = r.info.ID
	}
	return names
}

// New builds the named scene
func New(name string, settings renderer.Settings, opts Options) (*Scene, error) {
	for _, r := range registry {
		if r.info.ID == name {
			return r.build(settings, opts)
		}
	}
	return nil, fmt.Errorf("%q (available: %s): %w", name, strings.Join(Names(), ", "), ErrUnknownScene)
}

// ListScenes returns metadata for every registered scene
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, len(registry))
	for i, r := range registry {
		info := r.info
		info.Name = titleCase(info.ID)
		info.DisplayName = info.Name
		scenes[i] = info
	}
	return scenes
}

// ListAllScenes returns the registered scenes grouped by category
func ListAllScenes() ScenesResponse {
	var response ScenesResponse

	groupMap := make(map[string][]SceneInfo)
	var groupNames []string
	for _, info := range ListScenes() {
		if _, exists := groupMap[info.Group]; !exists {
			groupNames = append(groupNames, info.Group)
		}
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	// Groups keep registration order, scenes within a group are sorted by display name
	for _, groupName := range groupNames {
		scenes := groupMap[groupName]
		sort.Slice(scenes, func(i, j int) bool {
			return scenes[i].DisplayName < scenes[j].DisplayName
		})
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: scenes,
		})
	}

	return response
}

// titleCase converts an identifier to title case
// e.g., "hollow-glass" -> "Hollow Glass"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
