package variant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
)

// Sentinel errors matched by errors.Is.
var (
	// ErrNoCompatibleVariant indicates no variant satisfies the request.
	ErrNoCompatibleVariant = errors.New("no compatible variant")

	// ErrAmbiguousVariant indicates several variants match equally well.
	ErrAmbiguousVariant = errors.New("ambiguous variant")
)

// Rejection explains why a candidate variant was not compatible.
type Rejection struct {
	Variant string
	Reasons []string
}

// NoCompatibleVariantError is returned when no variant of a module version
// satisfies the requested attributes and capabilities.
type NoCompatibleVariantError struct {
	Module  coord.ModuleID
	Version string

	Requested    catalog.Attributes
	Capabilities []catalog.Capability

	// Candidates lists every variant considered, with the reasons it was rejected.
	Candidates []Rejection
}

func (e *NoCompatibleVariantError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("no variant of %s:%s matches %s", e.Module, e.Version, e.Requested))
	if len(e.Capabilities) > 0 {
		caps := make([]string, len(e.Capabilities))
		for i, c := range e.Capabilities {
			caps[i] = c.String()
		}
		sb.WriteString(" with capability ")
		sb.WriteString(strings.Join(caps, ", "))
	}
	if len(e.Candidates) == 0 {
		sb.WriteString(": module version declares no variants")
		return sb.String()
	}
	for _, r := range e.Candidates {
		sb.WriteString("\n  - ")
		sb.WriteString(r.Variant)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(r.Reasons, "; "))
	}
	return sb.String()
}

func (e *NoCompatibleVariantError) Is(target error) bool {
	return target == ErrNoCompatibleVariant
}

// AmbiguousVariantError is returned when more than one variant has the best score.
type AmbiguousVariantError struct {
	Module    coord.ModuleID
	Version   string
	Requested catalog.Attributes

	// Candidates names the tied variants in declaration order.
	Candidates []string
}

func (e *AmbiguousVariantError) Error() string {
	return fmt.Sprintf("ambiguous variants of %s:%s for %s: %s",
		e.Module, e.Version, e.Requested, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousVariantError) Is(target error) bool {
	return target == ErrAmbiguousVariant
}
