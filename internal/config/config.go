// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Codec   CodecConfig   `yaml:"codec"`
	Export  ExportConfig  `yaml:"export"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// CodecConfig holds settings for reading and writing asset files.
type CodecConfig struct {
	EdgeHelper      string   `yaml:"edge_helper"`                // Edge index decompressor executable
	EdgeHelperArgs  []string `yaml:"edge_helper_args,omitempty"` // Extra arguments for the helper
	StrictRoundTrip bool     `yaml:"strict_round_trip"`          // Fail roundtrip when rewritten bytes differ
}

// ExportConfig holds settings for text exports.
type ExportConfig struct {
	Indent int `yaml:"indent"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Codec: CodecConfig{
			StrictRoundTrip: true,
		},
		Export: ExportConfig{
			Indent: 2,
		},
	}
}
