package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".kagami/kagami.db"
	}
	if cfg.Render.DarkStyle == "" {
		cfg.Render.DarkStyle = "monokai"
	}
	if cfg.Render.LightStyle == "" {
		cfg.Render.LightStyle = "github"
	}
	if cfg.Render.HardWraps == nil {
		t := true
		cfg.Render.HardWraps = &t
	}
	if cfg.Viewer.DefaultTheme != "light" {
		cfg.Viewer.DefaultTheme = "dark"
	}
	if cfg.Watch.Enabled == nil {
		t := true
		cfg.Watch.Enabled = &t
	}
	if cfg.Watch.DebounceMS <= 0 {
		cfg.Watch.DebounceMS = 400
	}
	if cfg.About.Name == "" {
		cfg.About.Name = "kagami"
	}
}
