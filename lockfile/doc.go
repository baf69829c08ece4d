// Package lockfile reads and writes classpath.lock files.
//
// A lock file records the outcome of one or more resolutions so later runs
// can detect drift in the artifact set resolved for the same root,
// configuration and metadata mode.
//
// # Lockfile Structure
//
// A lock file contains:
//   - lockFileVersion: schema version for format compatibility
//   - classpaths: one entry per resolution, keyed by root, configuration, mode
//     and consumer attributes
//
// Each classpath lists the selected modules with their variants, the sorted
// artifact set and a SHA-256 hash over that set.
//
// # Usage
//
// Record a resolution:
//
//	lf := lockfile.New()
//	lf.Set(lockfile.Classpath{Root: "org.example:app:1.0", Configuration: "runtime", Mode: "rich", Artifacts: files})
//	if err := lf.WriteFile(lockfile.DefaultPath(".")); err != nil {
//	    log.Fatal(err)
//	}
//
// Check a fresh resolution against it:
//
//	old, err := lockfile.ReadFile("classpath.lock")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if diff := lockfile.Compare(old, fresh); !diff.IsEmpty() {
//	    fmt.Print(diff.Summary())
//	}
package lockfile
