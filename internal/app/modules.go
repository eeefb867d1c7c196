package app

import (
	"github.com/vk/mgmtgrid/internal/registry"
	"github.com/vk/mgmtgrid/modules/cache"
	"github.com/vk/mgmtgrid/modules/env_vars"
	"github.com/vk/mgmtgrid/modules/runtimeinfo"
)

// coreModules is the definitive list of all component kinds that are
// compiled into the mgmtgrid binary.
var coreModules = []registry.Module{
	&cache.Module{},
	&env_vars.Module{},
	&runtimeinfo.Module{},
}
