package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes the top-level blocks of a configuration file.
type fileRoot struct {
	Registry   []*registryBlock  `hcl:"registry,block"`
	Logging    []*loggingBlock   `hcl:"logging,block"`
	Components []*componentBlock `hcl:"component,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

type registryBlock struct {
	Owner           *string `hcl:"owner,optional"`
	CollisionCheck  *bool   `hcl:"collision_check,optional"`
	PopSeparator    *string `hcl:"pop_separator,optional"`
	ReflectFallback *bool   `hcl:"reflect_fallback,optional"`
}

type loggingBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type componentBlock struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Script files are read with a schema instead of gohcl tags because command
// order matters and gohcl groups blocks by type.
var scriptSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "continue_on_error"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "get", LabelNames: []string{"name"}},
		{Type: "set", LabelNames: []string{"name"}},
		{Type: "invoke", LabelNames: []string{"name"}},
		{Type: "pop", LabelNames: []string{"name"}},
		{Type: "unpop", LabelNames: []string{"name"}},
		{Type: "pop_all"},
		{Type: "unpop_all"},
		{Type: "describe"},
	},
}

type getBlock struct {
	Expect hcl.Expression `hcl:"expect,optional"`
}

type setBlock struct {
	Value hcl.Expression `hcl:"value"`
}

type invokeBlock struct {
	Signature *string        `hcl:"signature,optional"`
	Args      hcl.Expression `hcl:"args,optional"`
	Expect    hcl.Expression `hcl:"expect,optional"`
}

type emptyBlock struct{}
