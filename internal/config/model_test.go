package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	a := &Model{
		Variables: []*VariableDefinition{{Name: "generation"}},
		Equations: []*EquationDefinition{{ID: "lcoe_basic"}},
	}
	b := &Model{
		Variables: []*VariableDefinition{{Name: "capex"}},
	}

	got := Merge(a, nil, b)

	names := []string{}
	for _, v := range got.Variables {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"generation", "capex"}, names)
	assert.Len(t, got.Equations, 1)
}

func TestMerge_OrdersByFileAcrossLoaders(t *testing.T) {
	hclModel := &Model{
		Equations: []*EquationDefinition{
			{ID: "b_first", File: "reg/b.hcl"},
			{ID: "b_second", File: "reg/b.hcl"},
			{ID: "d", File: "reg/d.hcl"},
		},
	}
	yamlModel := &Model{
		Equations: []*EquationDefinition{
			{ID: "a", File: "reg/a.yaml"},
			{ID: "c", File: "reg/c.yml"},
		},
	}

	got := Merge(hclModel, yamlModel)

	ids := []string{}
	for _, eq := range got.Equations {
		ids = append(ids, eq.ID)
	}
	assert.Equal(t, []string{"a", "b_first", "b_second", "c", "d"}, ids)
}
