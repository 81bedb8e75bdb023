package config

import (
	"flag"
	"strings"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagEncoding = flag.String("encoding", "", "Code page for names and strings (e.g. cp949, shift-jis)")
	flagNoFilter = flag.Bool("no-filter", false, "Keep single-child frames instead of collapsing them")
	flagPrune    = flag.Bool("prune", false, "Remove frames without meshes or children")
	flagGRF      = flag.String("grf", "", "Comma-separated GRF archives to search")
	flagWorkers  = flag.Int("workers", 0, "Parallel parses for batch commands")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagEncoding != "" {
		cfg.Decoder.TextEncoding = *flagEncoding
	}
	if *flagNoFilter {
		cfg.Decoder.FilterHierarchy = false
	}
	if *flagPrune {
		cfg.Decoder.PruneEmptyFrames = true
	}
	if *flagGRF != "" {
		for _, p := range strings.Split(*flagGRF, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Assets.GRFPaths = append(cfg.Assets.GRFPaths, p)
			}
		}
	}
	if *flagWorkers > 0 {
		cfg.Assets.Workers = *flagWorkers
	}
}
