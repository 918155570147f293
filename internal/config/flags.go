package config

import "flag"

// Flags holds the command-line overrides registered on a flag set.
type Flags struct {
	config     *string
	debug      *bool
	logFile    *string
	edgeHelper *string
	lenient    *bool
	indent     *int
}

// RegisterFlags adds the shared configuration flags to fs. Call it before
// fs.Parse.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		logFile:    fs.String("log-file", "", "Write logs to this file"),
		edgeHelper: fs.String("edge-helper", "", "Edge index decompressor executable"),
		lenient:    fs.Bool("lenient", false, "Report byte differences on roundtrip without failing"),
		indent:     fs.Int("indent", 0, "Indentation of YAML exports"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.edgeHelper != "" {
		cfg.Codec.EdgeHelper = *f.edgeHelper
	}
	if *f.lenient {
		cfg.Codec.StrictRoundTrip = false
	}
	if *f.indent > 0 {
		cfg.Export.Indent = *f.indent
	}
}
