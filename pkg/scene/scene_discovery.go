package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	builtInGroup    = "Built-in Scenes"
	fileGroup       = "Scene Files"
	fileScenePrefix = "file:"
)

// ScenesDirs are searched in order for scene files
var ScenesDirs = []string{"scenes", "../scenes"}

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the scene file (file type only)
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

func scenesDir() string {
	for _, path := range ScenesDirs {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}

func sceneFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.toml", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

// ListFileScenes scans the scenes directory and returns the scene files it contains
func ListFileScenes() ([]SceneInfo, error) {
	dir := scenesDir()
	if dir == "" {
		// No scenes directory found, return empty list
		return []SceneInfo{}, nil
	}

	files, err := sceneFiles(dir)
	if err != nil {
		return nil, err
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		info, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Skip broken files but keep listing the rest
			Logger().Warn("Skipping scene file", "path", filePath, "error", err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseSceneMetadata loads a scene file and extracts its listing metadata
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	info := SceneInfo{
		ID:          fileScenePrefix + stem,
		Name:        stem,
		DisplayName: titleCase(stem),
		Group:       fileGroup,
		Type:        "file",
		FilePath:    filePath,
	}

	cfg, err := LoadConfigFile(filePath)
	if err != nil {
		return info, err
	}
	if cfg.Name != stem {
		info.DisplayName = cfg.Name
	}
	info.Description = cfg.Description
	return info, nil
}

func findSceneFile(stem string) (string, bool) {
	dir := scenesDir()
	if dir == "" {
		return "", false
	}
	files, err := sceneFiles(dir)
	if err != nil {
		return "", false
	}
	for _, f := range files {
		if strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)) == stem {
			return f, true
		}
	}
	return "", false
}

// ListAllScenes returns both built-in and file scenes, grouped by category
func ListAllScenes() (ScenesResponse, error) {
	var response ScenesResponse

	builtIns := make([]SceneInfo, 0, len(presets))
	for _, p := range presets {
		builtIns = append(builtIns, SceneInfo{
			ID:          p.name,
			Name:        p.name,
			DisplayName: p.displayName,
			Description: p.build().Description,
			Group:       builtInGroup,
			Type:        "builtin",
		})
	}
	response.Groups = append(response.Groups, SceneGroup{Name: builtInGroup, Scenes: builtIns})

	fileScenes, err := ListFileScenes()
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}
	if len(fileScenes) > 0 {
		response.Groups = append(response.Groups, SceneGroup{Name: fileGroup, Scenes: fileScenes})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "edge-on" -> "Edge On"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
