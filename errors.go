package classpath

import (
	"github.com/albertocavalcante/go-classpath/capability"
	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/selection"
	"github.com/albertocavalcante/go-classpath/variant"
)

// Error types returned inside *ResolutionError. Use errors.As to inspect them.
type (
	UnknownModuleError                = catalog.UnknownModuleError
	NoCompatibleVariantError          = variant.NoCompatibleVariantError
	AmbiguousVariantError             = variant.AmbiguousVariantError
	VersionConflictError              = selection.VersionConflictError
	UnresolvedCapabilityConflictError = capability.UnresolvedConflictError
)

// Sentinel errors for errors.Is.
var (
	// ErrUnknownModule indicates a referenced module or version has no catalog entry.
	ErrUnknownModule = catalog.ErrUnknownModule

	// ErrNoCompatibleVariant indicates no variant satisfies the consumer.
	ErrNoCompatibleVariant = variant.ErrNoCompatibleVariant

	// ErrAmbiguousVariant indicates several variants match equally well.
	ErrAmbiguousVariant = variant.ErrAmbiguousVariant

	// ErrVersionConflict indicates constraints exclude every requested version.
	ErrVersionConflict = selection.ErrVersionConflict

	// ErrCapabilityConflict indicates a capability conflict without a selection rule.
	ErrCapabilityConflict = capability.ErrUnresolvedConflict
)
