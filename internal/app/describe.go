package app

import (
	"context"
	"fmt"

	"github.com/vk/mgmtgrid/internal/ctxlog"
	"github.com/vk/mgmtgrid/internal/descriptor"
	"gopkg.in/yaml.v3"
)

// Report is the document printed by Describe.
type Report struct {
	Owner      string             `yaml:"owner"`
	Objects    []ObjectReport     `yaml:"objects"`
	Descriptor descriptor.Summary `yaml:"descriptor"`
}

type ObjectReport struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Root    bool     `yaml:"root,omitempty"`
	Skipped []string `yaml:"skipped,omitempty"`
}

// BuildReport snapshots the registry: its objects and the merged
// descriptor.
func (a *App) BuildReport() Report {
	r := Report{
		Owner:      a.registry.OwnerID(),
		Descriptor: descriptor.Summarize(a.registry.MergeDescriptors()),
	}
	for _, o := range a.registry.Objects() {
		r.Objects = append(r.Objects, ObjectReport{
			Name:    o.Name(),
			Type:    o.Descriptor().Type,
			Root:    o.IsRoot(),
			Skipped: o.Skipped(),
		})
	}
	return r
}

// Describe writes the report as YAML. With pop set every poppable
// attribute is popped first, so their sub-objects are included.
func (a *App) Describe(ctx context.Context, pop bool) error {
	logger := ctxlog.FromContext(ctx)
	if pop {
		ds, err := a.registry.PopAll()
		if err != nil {
			return fmt.Errorf("pop all: %w", err)
		}
		logger.Debug("Popped attributes before describe.", "count", len(ds))
	}

	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(a.BuildReport()); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
