package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kubescape/pgtree/pkg/exporters"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "PGTREE"

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	colorValues  = []string{ColorAuto, ColorAlways, ColorNever, "y", "yes", "n", "no"}
	sourceValues = []string{"auto", "ps", "procfs", "file"}
	engineValues = []string{"auto", "builtin", "pgrep"}
)

type SearchConfig struct {
	Engine string `mapstructure:"engine"`
}

type Config struct {
	LogLevel      string                    `mapstructure:"logLevel"`
	ChildrenOnly  bool                      `mapstructure:"childrenOnly"`
	ASCII         bool                      `mapstructure:"ascii"`
	Color         string                    `mapstructure:"color"`
	Wrap          bool                      `mapstructure:"wrap"`
	MaxArgsWidth  int                       `mapstructure:"maxArgsWidth"`
	Fields        []string                  `mapstructure:"fields"`
	UseUID        bool                      `mapstructure:"useUID"`
	ExcludeIdle   bool                      `mapstructure:"excludeIdle"`
	Signal        string                    `mapstructure:"signal"`
	Confirmed     bool                      `mapstructure:"confirmed"`
	KillSelf      bool                      `mapstructure:"killSelf"`
	WaitTimeout   time.Duration             `mapstructure:"waitTimeout"`
	Source        string                    `mapstructure:"source"`
	SnapshotFile  string                    `mapstructure:"snapshotFile"`
	ProcfsPath    string                    `mapstructure:"procfsPath"`
	Search        SearchConfig              `mapstructure:"search"`
	WatchInterval time.Duration             `mapstructure:"watchInterval"`
	MetricsAddr   string                    `mapstructure:"metricsAddr"`
	Exporters     exporters.ExportersConfig `mapstructure:"exporters"`
}

// FlagKeys maps configuration keys to the command line flags overriding them.
var FlagKeys = map[string]string{
	"logLevel":                  "log-level",
	"childrenOnly":              "children-only",
	"ascii":                     "ascii",
	"color":                     "color",
	"wrap":                      "wrap",
	"maxArgsWidth":              "max-args-width",
	"fields":                    "field",
	"useUID":                    "uid",
	"excludeIdle":               "exclude-idle",
	"signal":                    "signal",
	"confirmed":                 "yes",
	"killSelf":                  "kill-self",
	"waitTimeout":               "wait",
	"source":                    "source",
	"snapshotFile":              "snapshot-file",
	"procfsPath":                "procfs-path",
	"search.engine":             "search-engine",
	"watchInterval":             "watch",
	"metricsAddr":               "metrics-addr",
	"exporters.stdoutExporter":  "audit-stdout",
	"exporters.csvExporterPath": "audit-csv",
}

// LoadConfig reads config.{yaml,json} from path when it exists, then applies
// PGTREE_* environment variables and the flags that were set on the command line.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	if path != "" {
		v.AddConfigPath(path)
	}

	v.SetDefault("logLevel", "warning")
	v.SetDefault("childrenOnly", false)
	v.SetDefault("ascii", false)
	v.SetDefault("color", ColorAuto)
	v.SetDefault("wrap", true)
	v.SetDefault("maxArgsWidth", 0)
	v.SetDefault("fields", []string{"stime"})
	v.SetDefault("useUID", false)
	v.SetDefault("excludeIdle", false)
	v.SetDefault("signal", "0")
	v.SetDefault("confirmed", false)
	v.SetDefault("killSelf", false)
	v.SetDefault("waitTimeout", time.Duration(0))
	v.SetDefault("source", "auto")
	v.SetDefault("snapshotFile", "")
	v.SetDefault("procfsPath", "/proc")
	v.SetDefault("search.engine", "auto")
	v.SetDefault("watchInterval", time.Duration(0))
	v.SetDefault("metricsAddr", "")
	v.SetDefault("exporters.stdoutExporter", false)
	v.SetDefault("exporters.csvExporterPath", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range FlagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return config, config.Validate()
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	if !slices.Contains(colorValues, c.Color) {
		return fmt.Errorf("invalid color %q, expected one of %s", c.Color, strings.Join(colorValues, ", "))
	}
	if !slices.Contains(sourceValues, c.Source) {
		return fmt.Errorf("invalid source %q, expected one of %s", c.Source, strings.Join(sourceValues, ", "))
	}
	if !slices.Contains(engineValues, c.Search.Engine) {
		return fmt.Errorf("invalid search engine %q, expected one of %s", c.Search.Engine, strings.Join(engineValues, ", "))
	}
	if c.MaxArgsWidth < 0 {
		return fmt.Errorf("maxArgsWidth must not be negative")
	}
	if c.WaitTimeout < 0 || c.WatchInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.Source == "file" && c.SnapshotFile == "" {
		return fmt.Errorf("source file needs snapshotFile")
	}
	return nil
}

// UseColor resolves the color setting, auto meaning color on a terminal.
func (c *Config) UseColor(isTerminal bool) bool {
	switch c.Color {
	case ColorAlways, "y", "yes":
		return true
	case ColorNever, "n", "no":
		return false
	default:
		return isTerminal
	}
}
