package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ProjectMeta is what we extract from a pyproject.toml: enough to
// label the index with the project's own name and version.
type ProjectMeta struct {
	Name    string
	Version string
}

// ReadProjectMeta reads pyproject.toml under root, supporting both the
// PEP 621 [project] table and the legacy [tool.poetry] table. Returns
// an empty meta (no error) when the file is absent.
func ReadProjectMeta(root string) (*ProjectMeta, error) {
	tomlPath := filepath.Join(root, "pyproject.toml")

	data, err := os.ReadFile(tomlPath)
	if os.IsNotExist(err) {
		return &ProjectMeta{}, nil
	}
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	meta := &ProjectMeta{}
	if project, ok := doc["project"].(map[string]interface{}); ok {
		meta.Name, _ = project["name"].(string)
		meta.Version, _ = project["version"].(string)
	}

	if meta.Name == "" {
		if tool, ok := doc["tool"].(map[string]interface{}); ok {
			if poetry, ok := tool["poetry"].(map[string]interface{}); ok {
				meta.Name, _ = poetry["name"].(string)
				meta.Version, _ = poetry["version"].(string)
			}
		}
	}

	return meta, nil
}
