package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the merged configuration of every loaded file.
type Model struct {
	Registry   RegistryConfig
	Logging    LoggingConfig
	Components []*Component
}

// RegistryConfig mirrors registry.Options.
type RegistryConfig struct {
	// Owner names the root object. Empty means a generated ID.
	Owner          string
	CollisionCheck bool
	PopSeparator   string
	// ReflectFallback describes component types without a declared surface
	// by their exported methods.
	ReflectFallback bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Component is one `component "<kind>" "<name>"` declaration. Body holds
// the kind-specific arguments, decoded by Converter.DecodeArguments.
type Component struct {
	Kind string
	Name string
	Body hcl.Body
}

// DefaultModel returns a model with every setting at its default.
func DefaultModel() *Model {
	return &Model{
		Registry: RegistryConfig{
			CollisionCheck:  true,
			PopSeparator:    ".",
			ReflectFallback: true,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Component returns the component called name.
func (m *Model) Component(name string) (*Component, bool) {
	for _, c := range m.Components {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// CommandKind is the verb of a script command.
type CommandKind string

const (
	CommandGet      CommandKind = "get"
	CommandSet      CommandKind = "set"
	CommandInvoke   CommandKind = "invoke"
	CommandPop      CommandKind = "pop"
	CommandUnpop    CommandKind = "unpop"
	CommandPopAll   CommandKind = "pop_all"
	CommandUnpopAll CommandKind = "unpop_all"
	CommandDescribe CommandKind = "describe"
)

// Script is an ordered list of management commands.
type Script struct {
	Path            string
	ContinueOnError bool
	Commands        []*Command
}

// Command is one script step. Values are already evaluated.
type Command struct {
	Kind CommandKind
	// Target is the attribute or operation name; empty for pop_all,
	// unpop_all and describe.
	Target    string
	Signature string
	Value     cty.Value
	Args      []cty.Value
	// Expect, when not cty.NilVal, is compared with the command's result.
	Expect cty.Value
	// Pos is the source position, e.g. "smoke.hcl:4,1-14".
	Pos string
}

// String renders the command the way it is echoed in script output.
func (c *Command) String() string {
	switch c.Kind {
	case CommandInvoke:
		return fmt.Sprintf("%s %s%s", c.Kind, c.Target, c.Signature)
	case CommandPopAll, CommandUnpopAll, CommandDescribe:
		return string(c.Kind)
	default:
		return fmt.Sprintf("%s %s", c.Kind, c.Target)
	}
}
