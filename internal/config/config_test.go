package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test decoder defaults
	if !cfg.Decoder.FilterHierarchy {
		t.Error("expected hierarchy filtering to be on by default")
	}
	if cfg.Decoder.PruneEmptyFrames {
		t.Error("expected pruning to be off by default")
	}
	if cfg.Decoder.TextEncoding != "" {
		t.Errorf("expected raw text encoding, got %s", cfg.Decoder.TextEncoding)
	}

	// Test asset defaults
	if cfg.Assets.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Assets.Workers)
	}
	if len(cfg.Assets.GRFPaths) != 0 {
		t.Errorf("expected no archives, got %v", cfg.Assets.GRFPaths)
	}

	// Test logging defaults
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
decoder:
  text_encoding: "cp949"
  filter_hierarchy: false
  prune_empty_frames: true

assets:
  search_paths: ["models", "extra"]
  grf_paths: ["data.grf"]
  workers: 8

logging:
  level: "debug"
  log_file: "xoftool.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Decoder.TextEncoding != "cp949" {
		t.Errorf("expected encoding cp949, got %s", cfg.Decoder.TextEncoding)
	}
	if cfg.Decoder.FilterHierarchy {
		t.Error("expected filter_hierarchy to be false")
	}
	if !cfg.Decoder.PruneEmptyFrames {
		t.Error("expected prune_empty_frames to be true")
	}

	if !reflect.DeepEqual(cfg.Assets.SearchPaths, []string{"models", "extra"}) {
		t.Errorf("unexpected search paths %v", cfg.Assets.SearchPaths)
	}
	if !reflect.DeepEqual(cfg.Assets.GRFPaths, []string{"data.grf"}) {
		t.Errorf("unexpected grf paths %v", cfg.Assets.GRFPaths)
	}
	if cfg.Assets.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Assets.Workers)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "xoftool.log" {
		t.Errorf("expected log file 'xoftool.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
assets:
  workers: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("xoftool.yaml", []byte("assets:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	if path := findConfigFile(); path == "" {
		t.Error("expected to find xoftool.yaml in current directory")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"known encoding", func(c *Config) { c.Decoder.TextEncoding = "shift-jis" }, false},
		{"unknown encoding", func(c *Config) { c.Decoder.TextEncoding = "klingon" }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"zero workers", func(c *Config) { c.Assets.Workers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecoderOptions(t *testing.T) {
	cfg := Default()
	cfg.Decoder.FilterHierarchy = false
	cfg.Decoder.PruneEmptyFrames = true
	cfg.Decoder.TextEncoding = "cp949"

	opts, err := cfg.DecoderOptions()
	if err != nil {
		t.Fatalf("DecoderOptions failed: %v", err)
	}
	if opts.FilterHierarchy || !opts.PruneEmptyFrames {
		t.Errorf("unexpected hierarchy options %+v", opts)
	}
	if opts.TextEncoding == nil {
		t.Error("expected a text encoding for cp949")
	}

	cfg.Decoder.TextEncoding = ""
	opts, err = cfg.DecoderOptions()
	if err != nil {
		t.Fatalf("DecoderOptions failed: %v", err)
	}
	if opts.TextEncoding != nil {
		t.Error("expected no text encoding for an empty name")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "encoding flag",
			setup: func() { *flagEncoding = "euc-kr" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Decoder.TextEncoding != "euc-kr" {
					t.Errorf("expected encoding euc-kr, got %s", cfg.Decoder.TextEncoding)
				}
			},
			teardown: func() { *flagEncoding = "" },
		},
		{
			name: "hierarchy flags",
			setup: func() {
				*flagNoFilter = true
				*flagPrune = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Decoder.FilterHierarchy {
					t.Error("expected filtering to be off with no-filter flag")
				}
				if !cfg.Decoder.PruneEmptyFrames {
					t.Error("expected pruning to be on with prune flag")
				}
			},
			teardown: func() {
				*flagNoFilter = false
				*flagPrune = false
			},
		},
		{
			name:  "grf flag",
			setup: func() { *flagGRF = "a.grf, b.grf,," },
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg.Assets.GRFPaths, []string{"a.grf", "b.grf"}) {
					t.Errorf("unexpected grf paths %v", cfg.Assets.GRFPaths)
				}
			},
			teardown: func() { *flagGRF = "" },
		},
		{
			name:  "workers flag",
			setup: func() { *flagWorkers = 16 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Assets.Workers != 16 {
					t.Errorf("expected 16 workers, got %d", cfg.Assets.Workers)
				}
			},
			teardown: func() { *flagWorkers = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
assets:
  workers: 2
logging:
  level: "info"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWorkers = 6
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers should be from flag (6), not file (2)
	if cfg.Assets.Workers != 6 {
		t.Errorf("expected 6 workers from flag, got %d", cfg.Assets.Workers)
	}

	// Level should be from file since no flag override
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level info from file, got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("decoder:\n  text_encoding: klingon\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown text encoding")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Assets.SearchPaths = []string{"models"}
	cfg.Assets.GRFPaths = []string{"data.grf"}
	cfg.Decoder.TextEncoding = "windows-1252"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}
