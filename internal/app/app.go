package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vk/mgmtgrid/internal/config"
	"github.com/vk/mgmtgrid/internal/ctxlog"
	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	loader    config.Loader
	converter config.Converter
	config    *config.Model
	registry  *registry.Registry
	root      *rootObject
}

// NewApp loads the configuration under cfg.ConfigPaths and registers the
// root object plus one managed object per configured component. With no
// modules the built-in component kinds are used.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logW := cfg.LogOutput
	if logW == nil {
		logW = outW
	}
	logger := newLogger(firstNonEmpty(cfg.LogLevel, "info"), cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	model, converter, err := loader.Load(ctx, cfg.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := validateLogging(model.Logging.Level, model.Logging.Format, false); err != nil {
		return nil, fmt.Errorf("logging block: %w", err)
	}
	// Flags win over the logging block.
	logger = newLogger(firstNonEmpty(cfg.LogLevel, model.Logging.Level), firstNonEmpty(cfg.LogFormat, model.Logging.Format), logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Configuration loaded.", "components", len(model.Components))

	if len(modules) == 0 {
		modules = coreModules
	}
	catalog, kinds, err := buildCatalog(model.Registry.ReflectFallback, modules)
	if err != nil {
		return nil, err
	}
	logger.Debug("Component kinds registered.", "count", len(kinds), "types", catalog.Types())

	reg := registry.New(registry.Options{
		OwnerID:        model.Registry.Owner,
		Source:         catalog,
		Logger:         logger,
		CollisionCheck: model.Registry.CollisionCheck,
		PopSeparator:   &model.Registry.PopSeparator,
	})

	a := &App{
		outW:      outW,
		logger:    logger,
		loader:    loader,
		converter: converter,
		config:    model,
		registry:  reg,
		root:      &rootObject{owner: reg.OwnerID(), started: time.Now()},
	}
	if _, err := reg.Put(a.root); err != nil {
		return nil, fmt.Errorf("failed to register root object: %w", err)
	}
	for _, comp := range model.Components {
		if err := a.addComponent(ctx, kinds, comp); err != nil {
			return nil, err
		}
	}
	logger.Info("Registry ready.", "owner", reg.OwnerID(), "objects", reg.Len())
	return a, nil
}

// buildCatalog registers the root type and every module in a fresh catalog
// and indexes the modules by kind.
func buildCatalog(reflectFallback bool, modules []registry.Module) (*descriptor.Catalog, map[string]registry.Module, error) {
	var fallback descriptor.Source
	if reflectFallback {
		fallback = descriptor.Reflective{}
	}
	catalog := descriptor.NewCatalog(fallback)
	if err := registerRoot(catalog); err != nil {
		return nil, nil, err
	}

	kinds := make(map[string]registry.Module, len(modules))
	for _, mod := range modules {
		kind := mod.Kind()
		if _, dup := kinds[kind]; dup {
			return nil, nil, fmt.Errorf("component kind %q is provided by more than one module", kind)
		}
		if err := mod.Register(catalog); err != nil {
			return nil, nil, fmt.Errorf("failed to register component kind %q: %w", kind, err)
		}
		kinds[kind] = mod
	}
	return catalog, kinds, nil
}

func (a *App) addComponent(ctx context.Context, kinds map[string]registry.Module, comp *config.Component) error {
	mod, ok := kinds[comp.Kind]
	if !ok {
		return fmt.Errorf("component %q: unknown kind %q", comp.Name, comp.Kind)
	}
	ctx = ctxlog.With(ctx, "component", comp.Name, "kind", comp.Kind)

	inst, err := mod.New(ctx, func(args any) error {
		return a.converter.DecodeArguments(ctx, comp, args)
	})
	if err != nil {
		return fmt.Errorf("component %q: %w", comp.Name, err)
	}
	if _, err := a.registry.PutNamed(inst, comp.Name+a.registry.PopSeparator()); err != nil {
		return fmt.Errorf("component %q: %w", comp.Name, err)
	}
	a.root.addComponent(comp.Name)
	ctxlog.FromContext(ctx).Debug("Component registered.")
	return nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration.
func (a *App) Model() *config.Model {
	return a.config
}

// Check verifies the consistency of the registry indices and prints a
// one-line summary.
func (a *App) Check() error {
	if err := a.registry.Verify(); err != nil {
		a.logger.Error("Registry check failed.", "error", err)
		return err
	}
	fmt.Fprintf(a.outW, "ok: %d objects, %d attributes, %d operations\n",
		a.registry.Len(), len(a.registry.AttributeNames()), len(a.registry.OperationKeys()))
	return nil
}
