package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dusk-indust/archmirror/internal/config"
	"github.com/dusk-indust/archmirror/internal/extract"
	"github.com/dusk-indust/archmirror/internal/graph"
	"github.com/dusk-indust/archmirror/internal/mcptools"
	"github.com/dusk-indust/archmirror/internal/mirror"
	"github.com/dusk-indust/archmirror/internal/scanner"
	archsync "github.com/dusk-indust/archmirror/internal/sync"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Root      string
	MirrorDir string
	MaxDepth  int
	Detail    string
	Out       string
	Sync      string
	Recursive bool
	Force     bool
	ServeMCP  bool
	Addr      string
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("archmirror", flag.ContinueOnError)
	fs.StringVar(&flags.Root, "root", ".", "root of the tree to track")
	fs.StringVar(&flags.MirrorDir, "mirror-dir", "", "mirror store location (default: <root>/.archmirror/mirrors)")
	fs.IntVar(&flags.MaxDepth, "max-depth", 0, "maximum scan depth, 0 for unlimited")
	fs.StringVar(&flags.Detail, "detail", "", "detail level: minimal, standard, detailed (default: standard)")
	fs.StringVar(&flags.Out, "out", "", "write the scanned graph as JSON to this file")
	fs.StringVar(&flags.Sync, "sync", "", "comma-separated paths to sync instead of scanning")
	fs.BoolVar(&flags.Recursive, "recursive", false, "sync directories recursively")
	fs.BoolVar(&flags.Force, "force", false, "force sync: rebuild paths without change detection")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "serve the tracked tree over MCP")
	fs.StringVar(&flags.Addr, "addr", "localhost:8137", "listen address for -serve-mcp")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.Root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	engine, err := buildEngine(flags, cfg)
	if err != nil {
		return err
	}

	if flags.ServeMCP {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log.Printf("archmirror: serving MCP on %s for %s", flags.Addr, engine.Scanner().Root())
		return mcptools.RunServer(ctx, mcptools.NewService(engine), flags.Addr)
	}

	if flags.Sync != "" {
		paths := splitPaths(flags.Sync)
		res, err := engine.Sync(paths, flags.Recursive, flags.Force)
		if err != nil {
			return err
		}
		fmt.Printf("updated %d, added %d, removed %d\n", res.Updated, res.Added, res.Removed)
		return nil
	}

	return scanAndReport(flags, cfg, engine)
}

// buildEngine wires the ignore policy, extractor and sync engine from
// flags and project config, with flags taking precedence.
func buildEngine(flags cliFlags, cfg *config.ProjectConfig) (*archsync.Engine, error) {
	level, err := resolveLevel(flags.Detail, cfg.DetailLevel)
	if err != nil {
		return nil, err
	}

	mirrorDir := flags.MirrorDir
	if mirrorDir == "" {
		mirrorDir = cfg.MirrorDir
	}
	m, err := mirror.New(flags.Root, mirrorDir)
	if err != nil {
		return nil, err
	}

	ignore := scanner.NewIgnorePolicy(flags.Root, nil, cfg.AdditionalIgnores)
	ignore.AddPatternLines(cfg.ExcludePatterns...)

	return archsync.NewEngine(flags.Root, graph.New(), m, ignore, extract.New().ExtractFile, level)
}

// scanAndReport runs a full scan, prints summary counts, and optionally
// writes the graph JSON.
func scanAndReport(flags cliFlags, cfg *config.ProjectConfig, engine *archsync.Engine) error {
	maxDepth := flags.MaxDepth
	if maxDepth == 0 {
		maxDepth = cfg.MaxDepth
	}
	level, err := resolveLevel(flags.Detail, cfg.DetailLevel)
	if err != nil {
		return err
	}

	g, _, err := engine.Scanner().Scan(maxDepth, level)
	if err != nil {
		return err
	}
	fmt.Printf("scanned %s: %d nodes, %d relationships\n",
		engine.Scanner().Root(), g.NodeCount(), g.RelationshipCount())
	for kind, n := range g.NodeKindCounts() {
		if n > 0 {
			fmt.Printf("  %-10s %d\n", kind, n)
		}
	}

	if flags.Out == "" {
		return nil
	}
	data, err := g.MarshalDetail(level)
	if err != nil {
		return err
	}
	if err := os.WriteFile(flags.Out, data, 0o644); err != nil {
		return fmt.Errorf("write graph to %s: %w", flags.Out, err)
	}
	fmt.Printf("graph written to %s\n", flags.Out)
	return nil
}

// resolveLevel picks the detail level from the flag, then config, then the
// standard default.
func resolveLevel(flagValue, cfgValue string) (graph.DetailLevel, error) {
	raw := flagValue
	if raw == "" {
		raw = cfgValue
	}
	if raw == "" {
		return graph.DetailStandard, nil
	}
	return graph.ParseDetailLevel(raw)
}

func splitPaths(raw string) []string {
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
