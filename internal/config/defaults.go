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
		cfg.Storage.DatabasePath = "/usr/local/var/campuslens/data/db/records.db"
	}
	if cfg.Storage.ScholarshipIndexPath == "" {
		cfg.Storage.ScholarshipIndexPath = "/usr/local/var/campuslens/data/indices/scholarships"
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "/usr/local/etc/campuslens/catalog.yaml"
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = "gemini-2.0-flash"
	}
	if cfg.Model.MaxOutputTokens == 0 {
		cfg.Model.MaxOutputTokens = 8192
	}
	if cfg.Model.Temperature == 0 {
		cfg.Model.Temperature = 0.7
	}
	if cfg.Chat.MaxCandidates == 0 {
		cfg.Chat.MaxCandidates = 3
	}
	if cfg.Chat.SnippetLength == 0 {
		cfg.Chat.SnippetLength = 300
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
