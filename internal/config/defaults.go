package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Limits.MaxUploadBytes == 0 {
		cfg.Limits.MaxUploadBytes = 100 << 20 // 100 MB
	}
	if cfg.Limits.ComposeTextClamp == 0 {
		cfg.Limits.ComposeTextClamp = 500
	}
	if cfg.Limits.MaxSlideEnvelopeEMU == 0 {
		// 20 inches; larger coordinates are clamped before shape construction.
		cfg.Limits.MaxSlideEnvelopeEMU = 20 * 914400
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/deckform/data/db/catalog.db"
	}
	if cfg.Storage.AssetDir == "" {
		cfg.Storage.AssetDir = "/usr/local/var/deckform/data/assets"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/deckform/data/indices/bleve"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "/usr/local/var/deckform/data/output"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pptx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
