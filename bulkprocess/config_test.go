package bulkprocess

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	if !cfg.PreservePrecision || !cfg.ExportMP4 || !cfg.Manifest || cfg.ContactSheet {
		t.Errorf("Unexpected default switches: %+v", cfg)
	}
	if cfg.FPS != 10 || cfg.Workers != 1 || cfg.OutputDir != "output" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"no output dir":   func(c *Config) { c.OutputDir = " " },
		"zero fps":        func(c *Config) { c.FPS = 0 },
		"negative fps":    func(c *Config) { c.FPS = -5 },
		"zero workers":    func(c *Config) { c.Workers = 0 },
		"zero tile":       func(c *Config) { c.TileSize = 0 },
		"bad compression": func(c *Config) { c.PNGCompression = "ultra" },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestDefaultSkipExtensionsAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipExtensions[0] = ".changed"

	if DefaultSkipExtensions[0] != ".exe" {
		t.Fatalf("DefaultConfig shares its skip list with the package default")
	}
}
