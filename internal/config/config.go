package config

import (
	"os"
	"path/filepath"
)

const (
	ConfigDir    = ".tmplvars"
	ConfigFile   = "config.yaml"
	TemplateFile = "template.json"
	LogFile      = "tmplvars.log"
	ServePidFile = "serve.pid"

	DefaultWebPort  = 19850
	DefaultLogLevel = "info"

	// EnvPrefix is the prefix of environment variables read by Load.
	EnvPrefix = "TMPLVARS_"
)

// Settings is the resolved program configuration.
type Settings struct {
	// Template is the template file or SQLite database to edit.
	Template string `koanf:"template"`
	// Backend forces a catalog backend ("file", "sqlite"); empty infers it from Template.
	Backend string      `koanf:"backend"`
	Log     LogSettings `koanf:"log"`
	Web     WebSettings `koanf:"web"`
}

// LogSettings controls the log file written while the TUI owns the terminal.
type LogSettings struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// WebSettings controls the local API server.
type WebSettings struct {
	Port int `koanf:"port"`
}

// --- Path helpers ---

// ConfigDirPath returns ~/.tmplvars
func ConfigDirPath() string {
	return filepath.Join(os.Getenv("HOME"), ConfigDir)
}

// ConfigFilePath returns ~/.tmplvars/config.yaml
func ConfigFilePath() string {
	return filepath.Join(ConfigDirPath(), ConfigFile)
}

// DefaultTemplatePath returns ~/.tmplvars/template.json
func DefaultTemplatePath() string {
	return filepath.Join(ConfigDirPath(), TemplateFile)
}

// LogPath returns ~/.tmplvars/tmplvars.log
func LogPath() string {
	return filepath.Join(ConfigDirPath(), LogFile)
}
