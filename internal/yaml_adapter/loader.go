// Package yaml_adapter loads registry definitions from YAML documents with
// the same fields as the HCL format.
package yaml_adapter

import (
	"context"
	"fmt"
	"os"

	"github.com/shuvo-dotcom/nfgcalc/internal/config"
	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML registry loader.
func NewLoader() *Loader {
	return &Loader{}
}

type fileRoot struct {
	Variables []yaml.Node `yaml:"variables"`
	Equations []yaml.Node `yaml:"equations"`
}

type variable struct {
	Name          string   `yaml:"name"`
	Unit          string   `yaml:"unit"`
	Aliases       []string `yaml:"aliases"`
	Kind          string   `yaml:"kind"`
	Properties    []string `yaml:"properties"`
	Reduction     string   `yaml:"reduction"`
	Default       *float64 `yaml:"default"`
	TimeInvariant bool     `yaml:"time_invariant"`
	FullName      string   `yaml:"full_name"`
	Description   string   `yaml:"description"`
	Format        string   `yaml:"format"`
}

type equation struct {
	ID          string   `yaml:"id"`
	Output      string   `yaml:"output"`
	Unit        string   `yaml:"unit"`
	Formula     string   `yaml:"formula"`
	Requires    []string `yaml:"requires"`
	Priority    *int     `yaml:"priority"`
	Description string   `yaml:"description"`
}

// Load parses every .yaml and .yml file under paths.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(paths, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered YAML registry files.", "count", len(files))

	model := &config.Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}

		var root fileRoot
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse YAML file %s: %w", file, err)
		}

		for i := range root.Variables {
			node := &root.Variables[i]
			var v variable
			if err := node.Decode(&v); err != nil {
				return nil, fmt.Errorf("failed to decode variable in %s:%d: %w", file, node.Line, err)
			}
			model.Variables = append(model.Variables, &config.VariableDefinition{
				Name:          v.Name,
				Unit:          v.Unit,
				Aliases:       v.Aliases,
				Kind:          v.Kind,
				Properties:    v.Properties,
				Reduction:     v.Reduction,
				Default:       v.Default,
				TimeInvariant: v.TimeInvariant,
				FullName:      v.FullName,
				Description:   v.Description,
				Format:        v.Format,
				Source:        fmt.Sprintf("%s:%d", file, node.Line),
				File:          file,
			})
		}

		for i := range root.Equations {
			node := &root.Equations[i]
			var eq equation
			if err := node.Decode(&eq); err != nil {
				return nil, fmt.Errorf("failed to decode equation in %s:%d: %w", file, node.Line, err)
			}
			if eq.ID == "" || eq.Formula == "" {
				return nil, fmt.Errorf("equation in %s:%d: id and formula are required", file, node.Line)
			}
			model.Equations = append(model.Equations, &config.EquationDefinition{
				ID:          eq.ID,
				Output:      eq.Output,
				Unit:        eq.Unit,
				Formula:     eq.Formula,
				Requires:    eq.Requires,
				Priority:    eq.Priority,
				Description: eq.Description,
				Source:      fmt.Sprintf("%s:%d", file, node.Line),
				File:        file,
			})
		}
	}

	logger.Debug("YAML loading complete.", "variables", len(model.Variables), "equations", len(model.Equations))
	return model, nil
}
