// xoftool is a CLI utility for inspecting DirectX .x scene files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/xofkit/internal/assets"
	"github.com/Faultbox/xofkit/internal/config"
	"github.com/Faultbox/xofkit/internal/logger"
	"github.com/Faultbox/xofkit/pkg/xfile"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal(err)
	}
	defer logger.Sync()

	switch command {
	case "info":
		withScene(cfg, "info", args, writeInfo)
	case "tree":
		withScene(cfg, "tree", args, func(w *reportWriter, _ string, s *xfile.Scene) { writeTree(w, s) })
	case "meshes":
		withScene(cfg, "meshes", args, func(w *reportWriter, _ string, s *xfile.Scene) { writeMeshes(w, s) })
	case "materials", "mats":
		withScene(cfg, "materials", args, func(w *reportWriter, _ string, s *xfile.Scene) { writeMaterials(w, s) })
	case "anims":
		cmdAnims(cfg, args)
	case "inflate":
		cmdInflate(cfg, args)
	case "check":
		cmdCheck(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`xoftool - DirectX .x scene utility

Usage:
  xoftool [flags] <command> [args]

Commands:
  info <file.x>              Show header and scene summary
  tree <file.x>              Print the frame hierarchy
  meshes <file.x>            List meshes with vertex and face counts
  materials <file.x>         List global and per-mesh materials
  anims [-t tick] <file.x>   List animation sets, or sample them at a tick
  inflate <in.x> <out.x>     Write the uncompressed form of a tzip/bzip file
  check [-all] [files...]    Parse and lint files in parallel

Flags:
  -config <path>   Config file (default ./xoftool.yaml or the user config dir)
  -debug           Enable debug logging
  -encoding <cp>   Code page for names and strings (cp949, shift-jis, ...)
  -no-filter       Keep single-child frames
  -prune           Remove frames without meshes or children
  -grf <a,b>       GRF archives to resolve paths against
  -workers <n>     Parallel parses for check

Examples:
  xoftool info tiny.x
  xoftool -grf data.grf tree data/model/tree.x
  xoftool -grf data.grf check -all`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newManager builds an asset manager over the working directory, the
// configured search paths and the configured archives.
func newManager(cfg *config.Config) (*assets.Manager, error) {
	opts, err := cfg.DecoderOptions()
	if err != nil {
		return nil, err
	}
	m := assets.NewManager(opts, logger.Log)

	dirs := append([]string{"."}, cfg.Assets.SearchPaths...)
	for _, dir := range dirs {
		if err := m.AddSearchPath(dir); err != nil {
			m.Close()
			return nil, err
		}
	}
	for _, path := range cfg.Assets.GRFPaths {
		if err := m.AddArchive(path); err != nil {
			m.Close()
			return nil, err
		}
	}
	return m, nil
}

func withScene(cfg *config.Config, name string, args []string, report func(*reportWriter, string, *xfile.Scene)) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: xoftool %s <file.x>\n", name)
		os.Exit(1)
	}

	m, err := newManager(cfg)
	if err != nil {
		fatal(err)
	}
	defer m.Close()

	scene, err := m.LoadScene(args[0])
	if err != nil {
		fatal(err)
	}

	w := newReportWriter(os.Stdout)
	report(w, args[0], scene)
	if err := w.Flush(); err != nil {
		fatal(err)
	}
}

func cmdAnims(cfg *config.Config, args []string) {
	fs := newFlagSet("anims")
	tick := fs.Float64("t", -1, "Sample every animation at this tick")
	fs.Parse(args)

	withScene(cfg, "anims", fs.Args(), func(w *reportWriter, _ string, s *xfile.Scene) {
		if *tick >= 0 {
			writePose(w, s, *tick)
			return
		}
		writeAnims(w, s)
	})
}

func cmdInflate(cfg *config.Config, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: xoftool inflate <in.x> <out.x>")
		os.Exit(1)
	}

	m, err := newManager(cfg)
	if err != nil {
		fatal(err)
	}
	defer m.Close()

	data, err := m.Load(args[0])
	if err != nil {
		fatal(err)
	}
	plain, err := xfile.Inflate(data)
	if err != nil {
		fatal(fmt.Errorf("inflating %s: %w", args[0], err))
	}

	if dir := filepath.Dir(args[1]); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fatal(err)
		}
	}
	if err := os.WriteFile(args[1], plain, 0644); err != nil {
		fatal(err)
	}

	logger.Log.Info("inflated", zap.String("in", args[0]), zap.String("out", args[1]),
		zap.Int("compressed", len(data)), zap.Int("size", len(plain)))
	fmt.Printf("%s: %d -> %d bytes\n", args[1], len(data), len(plain))
}

func cmdCheck(cfg *config.Config, args []string) {
	fs := newFlagSet("check")
	all := fs.Bool("all", false, "Check every .x file in the search paths and archives")
	fs.Parse(args)

	m, err := newManager(cfg)
	if err != nil {
		fatal(err)
	}
	defer m.Close()

	paths := fs.Args()
	if *all {
		listed, err := m.List()
		if err != nil {
			fatal(err)
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: xoftool check [-all] [files...]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := checkScenes(ctx, m, paths, cfg.Assets.Workers)
	if err != nil {
		fatal(err)
	}

	w := newReportWriter(os.Stdout)
	failed := writeCheck(w, results)
	if err := w.Flush(); err != nil {
		fatal(err)
	}
	if failed {
		os.Exit(1)
	}
}
