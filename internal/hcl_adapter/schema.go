package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Variables []*Variable `hcl:"variable,block"`
	Equations []*Equation `hcl:"equation,block"`
	Remain    hcl.Body    `hcl:",remain"`
}

// Variable is the HCL shape of a `variable "name" {}` block.
type Variable struct {
	Name          string   `hcl:"name,label"`
	Unit          string   `hcl:"unit,optional"`
	Aliases       []string `hcl:"aliases,optional"`
	Kind          string   `hcl:"kind,optional"`
	Properties    []string `hcl:"properties,optional"`
	Reduction     string   `hcl:"reduction,optional"`
	Default       *float64 `hcl:"default,optional"`
	TimeInvariant bool     `hcl:"time_invariant,optional"`
	FullName      string   `hcl:"full_name,optional"`
	Description   string   `hcl:"description,optional"`
	Format        string   `hcl:"format,optional"`
}

// Equation is the HCL shape of an `equation "id" {}` block.
type Equation struct {
	ID          string   `hcl:"id,label"`
	Output      string   `hcl:"output"`
	Unit        string   `hcl:"unit"`
	Formula     string   `hcl:"formula"`
	Requires    []string `hcl:"requires,optional"`
	Priority    *int     `hcl:"priority,optional"`
	Description string   `hcl:"description,optional"`
}
