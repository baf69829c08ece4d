// Command classpath resolves the compile or runtime classpath of a module
// from one or more catalog files.
//
// Usage:
//
//	classpath -catalog guava.catalog -root org.example:app -config runtime \
//	    -attr org.gradle.jvm.environment=standard-jvm \
//	    -prefer com.google.collections:google-collections=guava
//
// Several configurations can be resolved at once with -config compile,runtime.
// Each requests the usage matching its configuration unless -attr sets
// org.gradle.usage.
// -expect compares the result with a file listing one artifact per line, and
// -lock / -check-lock write or verify a classpath.lock file.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/albertocavalcante/go-classpath"
	"github.com/albertocavalcante/go-classpath/capability"
	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/lockfile"
)

// listFlag collects a repeatable flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	catalogs  listFlag
	root      string
	configs   string
	attrs     listFlag
	mandatory string
	mode      string
	prefer    listFlag
	maxDepth  int
	format    string
	explain   string
	expect    string
	lock      string
	checkLock string
	metrics   bool
	verbosity int
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "classpath: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := newLogger(opts.verbosity, stderr)
	defer logger.Sync() //nolint:errcheck

	m, err := classpath.LoadCatalogFiles(opts.catalogs...)
	if err != nil {
		return err
	}

	reqs, err := requests(opts)
	if err != nil {
		return err
	}

	resolverOpts := []classpath.Option{
		classpath.WithLogger(slog.New(zapslog.NewHandler(logger.Core()))),
		classpath.WithMaxDepth(opts.maxDepth),
	}
	for _, p := range opts.prefer {
		cp, module, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid -prefer %q: want capability=module", p)
		}
		c, err := catalog.ParseCapability(cp)
		if err != nil {
			return fmt.Errorf("invalid -prefer %q: %w", p, err)
		}
		resolverOpts = append(resolverOpts, classpath.WithCapabilityRule(c, preferRule(module)))
	}

	var reg *prometheus.Registry
	if opts.metrics {
		reg = prometheus.NewRegistry()
		metrics, err := classpath.NewMetrics(reg)
		if err != nil {
			return err
		}
		resolverOpts = append(resolverOpts, classpath.WithMetrics(metrics))
	}

	r, err := classpath.NewResolver(m.Catalog, m.Constraints, resolverOpts...)
	if err != nil {
		return err
	}
	graphs, err := r.ResolveConfigurations(context.Background(), reqs...)
	if err != nil {
		return err
	}

	for _, g := range graphs {
		if err := writeGraph(stdout, g, opts); err != nil {
			return err
		}
	}

	if reg != nil {
		if err := writeMetrics(stderr, reg); err != nil {
			return err
		}
	}

	if opts.expect != "" {
		expected, err := readLines(opts.expect)
		if err != nil {
			return err
		}
		for _, g := range graphs {
			if err := classpath.CompareArtifacts(expected, g.Artifacts).Err(); err != nil {
				return fmt.Errorf("%s: %w", g.Configuration, err)
			}
		}
	}

	if opts.checkLock != "" {
		locked, err := lockfile.ReadFile(opts.checkLock)
		if err != nil {
			return err
		}
		if err := classpath.VerifyLock(locked, graphs...); err != nil {
			return err
		}
		logger.Info("classpath lock is up to date", zap.String("path", opts.checkLock))
	}
	if opts.lock != "" {
		if err := classpath.Lock(graphs...).WriteFile(opts.lock); err != nil {
			return err
		}
		logger.Info("wrote classpath lock", zap.String("path", opts.lock), zap.Int("classpaths", len(graphs)))
	}
	return nil
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("classpath", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&opts.catalogs, "catalog", "catalog file, .yaml or Starlark (repeatable, earlier files win)")
	fs.StringVar(&opts.root, "root", "", "root module, group:name[:version]")
	fs.StringVar(&opts.configs, "config", "runtime", "configurations to resolve, comma separated (compile, runtime)")
	fs.Var(&opts.attrs, "attr", "consumer attribute key=value (repeatable)")
	fs.StringVar(&opts.mandatory, "mandatory", "", "attributes every variant must declare, comma separated")
	fs.StringVar(&opts.mode, "mode", "rich", "metadata mode (rich, legacy)")
	fs.Var(&opts.prefer, "prefer", "capability=module conflict rule; module matches by name substring (repeatable)")
	fs.IntVar(&opts.maxDepth, "max-depth", 0, "maximum dependency chain length (0 means unlimited)")
	fs.StringVar(&opts.format, "format", "text", "output format (text, tree, json, dot)")
	fs.StringVar(&opts.explain, "explain", "", "print dependency insight for group:name")
	fs.StringVar(&opts.expect, "expect", "", "file listing the expected artifacts, one per line")
	fs.StringVar(&opts.lock, "lock", "", "write a lock file")
	fs.StringVar(&opts.checkLock, "check-lock", "", "verify the result against a lock file")
	fs.BoolVar(&opts.metrics, "metrics", false, "print resolution metrics to stderr")
	fs.IntVar(&opts.verbosity, "v", 0, "log verbosity (0-2)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(opts.catalogs) == 0 {
		return nil, errors.New("at least one -catalog is required")
	}
	if opts.root == "" {
		return nil, errors.New("-root is required")
	}
	switch opts.format {
	case "text", "tree", "json", "dot":
	default:
		return nil, fmt.Errorf("unknown -format %q", opts.format)
	}
	return opts, nil
}

func requests(opts *options) ([]classpath.Request, error) {
	root, err := coord.ParseCoordinate(opts.root)
	if err != nil {
		return nil, err
	}
	mode, err := classpath.ParseMetadataMode(opts.mode)
	if err != nil {
		return nil, err
	}
	attrs := catalog.Attributes{}
	for _, a := range opts.attrs {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid -attr %q: want key=value", a)
		}
		attrs[k] = v
	}
	var mandatory []string
	if opts.mandatory != "" {
		mandatory = strings.Split(opts.mandatory, ",")
	}

	var reqs []classpath.Request
	for _, name := range strings.Split(opts.configs, ",") {
		cfg, err := catalog.ParseConfiguration(name)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, classpath.Request{
			Root:          root.Module,
			RootVersion:   root.Version,
			Configuration: cfg,
			Attributes:    attrs.Clone(),
			Mandatory:     mandatory,
			Mode:          mode,
		})
	}
	return reqs, nil
}

// preferRule accepts a full group:name or a module name substring.
func preferRule(module string) capability.SelectionRule {
	if id, err := coord.ParseModuleID(module); err == nil {
		return capability.PreferModule(id)
	}
	return capability.PreferModuleNamed(module)
}

func writeGraph(w io.Writer, g *classpath.ResolvedGraph, opts *options) error {
	switch opts.format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Root          string   `json:"root"`
			Configuration string   `json:"configuration"`
			Mode          string   `json:"mode"`
			Artifacts     []string `json:"artifacts"`
		}{g.Root.String(), g.Configuration.String(), g.Mode.String(), g.Artifacts}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case "dot":
		fmt.Fprint(w, g.Graph.ToDOT())
	case "tree":
		fmt.Fprintf(w, "# %s %s\n", g.Configuration, g.Mode)
		fmt.Fprint(w, g.Graph.ToText())
	default:
		fmt.Fprintf(w, "# %s %s\n", g.Configuration, g.Mode)
		for _, a := range g.Artifacts {
			fmt.Fprintln(w, a)
		}
	}

	if opts.explain != "" {
		id, err := coord.ParseModuleID(opts.explain)
		if err != nil {
			return err
		}
		text, err := g.Graph.ToExplainText(id)
		if err != nil {
			return err
		}
		fmt.Fprint(w, text)
	}
	return nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

func newLogger(verbosity int, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case verbosity == 1:
		level = zapcore.InfoLevel
	case verbosity >= 2:
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
