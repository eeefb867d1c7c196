package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/mgmtgrid/internal/config"
	"github.com/vk/mgmtgrid/internal/ctxlog"
	"github.com/vk/mgmtgrid/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load merges the registry, logging and component blocks of every .hcl file
// under paths into one model. Missing paths are skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL config loader started.", "path_count", len(paths))

	model := config.DefaultModel()
	files, err := findAllHCLFiles(paths, false)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL config files.", "count", len(files))

	parser := hclparse.NewParser()
	seenRegistry, seenLogging := "", ""
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, b := range root.Registry {
			if seenRegistry != "" {
				return nil, nil, fmt.Errorf("%s: duplicate registry block, first declared in %s", file, seenRegistry)
			}
			seenRegistry = file
			applyRegistry(&model.Registry, b)
		}
		for _, b := range root.Logging {
			if seenLogging != "" {
				return nil, nil, fmt.Errorf("%s: duplicate logging block, first declared in %s", file, seenLogging)
			}
			seenLogging = file
			applyLogging(&model.Logging, b)
		}
		for _, b := range root.Components {
			if _, dup := model.Component(b.Name); dup {
				return nil, nil, fmt.Errorf("%s: component %q is declared twice", file, b.Name)
			}
			model.Components = append(model.Components, &config.Component{Kind: b.Kind, Name: b.Name, Body: b.Body})
		}
	}

	logger.Debug("HCL config loading complete.", "components", len(model.Components), "owner", model.Registry.Owner)
	return model, NewConverter(), nil
}

func applyRegistry(dst *config.RegistryConfig, b *registryBlock) {
	if b.Owner != nil {
		dst.Owner = *b.Owner
	}
	if b.CollisionCheck != nil {
		dst.CollisionCheck = *b.CollisionCheck
	}
	if b.PopSeparator != nil {
		dst.PopSeparator = *b.PopSeparator
	}
	if b.ReflectFallback != nil {
		dst.ReflectFallback = *b.ReflectFallback
	}
}

func applyLogging(dst *config.LoggingConfig, b *loggingBlock) {
	if b.Level != nil {
		dst.Level = *b.Level
	}
	if b.Format != nil {
		dst.Format = *b.Format
	}
}

// LoadScripts parses every script file under paths. Unlike Load, a missing
// path is an error.
func (l *Loader) LoadScripts(ctx context.Context, paths ...string) ([]*config.Script, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := findAllHCLFiles(paths, true)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no .hcl script files found")
	}

	parser := hclparse.NewParser()
	evalCtx := newEvalContext()
	scripts := make([]*config.Script, 0, len(files))
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		script, err := decodeScript(ctxlog.With(ctx, "script", file), file, hclFile.Body, evalCtx)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded script.", "script", file, "commands", len(script.Commands))
		scripts = append(scripts, script)
	}
	return scripts, nil
}

// findAllHCLFiles expands paths into .hcl files: directories are walked,
// files are taken as they are. Duplicates are dropped.
func findAllHCLFiles(paths []string, required bool) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) && !required {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if required || filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return all, nil
}
