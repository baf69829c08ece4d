package classpath

import "github.com/albertocavalcante/go-classpath/lockfile"

// Lock records the resolved graphs in a new lock file.
func Lock(graphs ...*ResolvedGraph) *lockfile.Lockfile {
	lf := lockfile.New()
	for _, g := range graphs {
		lf.Set(g.LockEntry())
	}
	return lf
}

// LockEntry converts the graph to its lock file form.
func (g *ResolvedGraph) LockEntry() lockfile.Classpath {
	c := lockfile.Classpath{
		Root:          g.Root.String(),
		Configuration: g.Configuration.String(),
		Mode:          g.Mode.String(),
		Attributes:    g.Attributes,
		Artifacts:     g.Artifacts,
	}
	for _, m := range g.Modules() {
		c.Modules = append(c.Modules, lockfile.Module{
			Coordinate: m.String(),
			Variant:    g.Selected[m.Module].Variant,
		})
	}
	return c
}

// VerifyLock checks that the resolved graphs match what lf recorded for them.
// Graphs that lf has never seen are reported as added.
func VerifyLock(lf *lockfile.Lockfile, graphs ...*ResolvedGraph) error {
	return lockfile.Verify(lf, Lock(graphs...))
}
