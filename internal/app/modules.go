package app

import (
	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/modules/local"
	"github.com/specialistvlad/sagagrid/modules/rest"
	"github.com/specialistvlad/sagagrid/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the sagagrid binary. Order matters: earlier modules win resolution ties.
var coreModules = []registry.Module{
	&local.Module{},
	&socketio.Module{},
	&rest.Module{},
}
