package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/shuvo-dotcom/nfgcalc/internal/config"
)

type blockKey struct {
	typ   string
	label string
}

// blockSources maps each labelled top-level block to "file:line". The first
// declaration wins so duplicates point at the original.
func blockSources(f *hcl.File) map[blockKey]string {
	out := make(map[blockKey]string)
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return out
	}
	for _, b := range body.Blocks {
		if len(b.Labels) == 0 {
			continue
		}
		k := blockKey{b.Type, b.Labels[0]}
		if _, dup := out[k]; dup {
			continue
		}
		r := b.DefRange()
		out[k] = fmt.Sprintf("%s:%d", r.Filename, r.Start.Line)
	}
	return out
}

func translateVariable(v *Variable, file, source string) *config.VariableDefinition {
	return &config.VariableDefinition{
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
		Source:        source,
		File:          file,
	}
}

func translateEquation(eq *Equation, file, source string) *config.EquationDefinition {
	return &config.EquationDefinition{
		ID:          eq.ID,
		Output:      eq.Output,
		Unit:        eq.Unit,
		Formula:     eq.Formula,
		Requires:    eq.Requires,
		Priority:    eq.Priority,
		Description: eq.Description,
		Source:      source,
		File:        file,
	}
}
