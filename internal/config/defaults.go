package config

const (
	defaultBaseURL               = "http://127.0.0.1:8000"
	defaultRequestTimeoutSeconds = 30
	defaultPollIntervalMillis    = 2000
	defaultStateDir              = "~/.local/share/steno"
	defaultStorageBackend        = StorageSQLite
	defaultPreviewMode           = "text"
	defaultSummaryRenderMode     = "text"
	defaultTheme                 = "system"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultConfigPath            = "~/.config/steno/config.toml"
	projectConfigName            = "steno.toml"
)

// Storage backends accepted by storage.backend.
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			BaseURL:               defaultBaseURL,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Sync: Sync{
			PollIntervalMillis: defaultPollIntervalMillis,
		},
		Storage: Storage{
			StateDir: defaultStateDir,
			Backend:  defaultStorageBackend,
		},
		Display: Display{
			PreviewMode:       defaultPreviewMode,
			SummaryRenderMode: defaultSummaryRenderMode,
			Theme:             defaultTheme,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
