package catalog

import (
	"errors"

	"github.com/albertocavalcante/go-classpath/coord"
)

// ErrUnknownModule is matched by errors.Is for any *UnknownModuleError.
var ErrUnknownModule = errors.New("unknown module")

// UnknownModuleError is returned when a referenced module, or a version of it,
// has no catalog entry.
type UnknownModuleError struct {
	Module coord.ModuleID

	// Version is set when the module is known but the version is not.
	Version string

	// Known lists the catalogued versions when the module exists.
	Known []string
}

func (e *UnknownModuleError) Error() string {
	if e.Version == "" {
		return "unknown module " + e.Module.String()
	}
	msg := "unknown module version " + e.Module.String() + ":" + e.Version
	if len(e.Known) > 0 {
		msg += " (known versions:"
		for _, v := range e.Known {
			msg += " " + v
		}
		msg += ")"
	}
	return msg
}

// Is lets errors.Is match ErrUnknownModule.
func (e *UnknownModuleError) Is(target error) bool {
	return target == ErrUnknownModule
}
