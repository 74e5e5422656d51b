package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the mdirtree configuration
type Config struct {
	Format               string      `mapstructure:"format"`
	OnConflict           string      `mapstructure:"on_conflict"`
	DryRun               bool        `mapstructure:"dry_run"`
	CreateMissingParents bool        `mapstructure:"create_missing_parents"`
	Scaffold             bool        `mapstructure:"scaffold"`
	Diff                 bool        `mapstructure:"diff"`
	DirPerm              os.FileMode `mapstructure:"-"`
	FilePerm             os.FileMode `mapstructure:"-"`
	LogLevel             string      `mapstructure:"log_level"`
	LogFile              string      `mapstructure:"log_file"`
}

// Config keys, shared by the YAML file, MDIRTREE_* environment variables
// and flag bindings
const (
	KeyFormat               = "format"
	KeyOnConflict           = "on_conflict"
	KeyDryRun               = "dry_run"
	KeyCreateMissingParents = "create_missing_parents"
	KeyScaffold             = "scaffold"
	KeyDiff                 = "diff"
	KeyDirPerm              = "dir_perm"
	KeyFilePerm             = "file_perm"
	KeyLogLevel             = "log_level"
	KeyLogFile              = "log_file"
)

// EnvPrefix is prepended to every key when reading the environment
const EnvPrefix = "MDIRTREE"

// FlagKeys maps command line flag names onto config keys
var FlagKeys = map[string]string{
	"format":      KeyFormat,
	"on-conflict": KeyOnConflict,
	"dry-run":     KeyDryRun,
	"parents":     KeyCreateMissingParents,
	"scaffold":    KeyScaffold,
	"diff":        KeyDiff,
	"dir-perm":    KeyDirPerm,
	"file-perm":   KeyFilePerm,
	"log-level":   KeyLogLevel,
	"log-file":    KeyLogFile,
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Format:               "auto",
		OnConflict:           "skip",
		CreateMissingParents: true,
		DirPerm:              0o755,
		FilePerm:             0o644,
		LogLevel:             "warn",
	}
}

// ConfigPath returns the path to the config file
// Can be overridden for testing
var ConfigPath = func() string {
	return filepath.Join(xdg.ConfigHome, "mdirtree", "config.yaml")
}

// Result is a loaded configuration and where it came from
type Result struct {
	*Config
	// Path is the config file that was consulted
	Path string
	// Found is false when the default config file does not exist
	Found bool
}

// Load layers defaults, the config file, the environment and any changed
// flags in that order. An empty path means ConfigPath(); a missing file at
// the default location is not an error, a missing explicit file is.
func Load(path string, flags *pflag.FlagSet) (*Result, error) {
	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case explicit:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
			found = false
		default:
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Result{Config: cfg, Path: path, Found: found}, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault(KeyFormat, d.Format)
	v.SetDefault(KeyOnConflict, d.OnConflict)
	v.SetDefault(KeyDryRun, d.DryRun)
	v.SetDefault(KeyCreateMissingParents, d.CreateMissingParents)
	v.SetDefault(KeyScaffold, d.Scaffold)
	v.SetDefault(KeyDiff, d.Diff)
	v.SetDefault(KeyDirPerm, formatPerm(d.DirPerm))
	v.SetDefault(KeyFilePerm, formatPerm(d.FilePerm))
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFile, d.LogFile)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	var err error
	if cfg.DirPerm, err = ParsePerm(v.Get(KeyDirPerm)); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyDirPerm, err)
	}
	if cfg.FilePerm, err = ParsePerm(v.Get(KeyFilePerm)); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyFilePerm, err)
	}
	return cfg, nil
}

// ParsePerm reads a permission value. Strings are octal with an optional
// 0 or 0o prefix; numbers are taken as-is, which is what a YAML octal
// literal such as 0750 decodes to.
func ParsePerm(value any) (os.FileMode, error) {
	switch p := value.(type) {
	case os.FileMode:
		return p, checkPerm(uint64(p))
	case int:
		if p < 0 {
			return 0, fmt.Errorf("negative permission %d", p)
		}
		return os.FileMode(p), checkPerm(uint64(p))
	case int64:
		if p < 0 {
			return 0, fmt.Errorf("negative permission %d", p)
		}
		return os.FileMode(p), checkPerm(uint64(p))
	case uint64:
		return os.FileMode(p), checkPerm(p)
	case string:
		s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(p)), "0o")
		if s == "" {
			return 0, fmt.Errorf("empty permission")
		}
		u, err := strconv.ParseUint(s, 8, 32)
		if err != nil {
			return 0, fmt.Errorf("permission %q is not octal", p)
		}
		return os.FileMode(u), checkPerm(u)
	default:
		return 0, fmt.Errorf("unsupported permission value %v", value)
	}
}

// checkPerm accepts plain rwx bits only; setuid, setgid and sticky do not
// survive os.FileMode conversion and Chmod would drop them
func checkPerm(u uint64) error {
	if u&^0o777 != 0 {
		return fmt.Errorf("permission %#o out of range: only rwx bits (0 to 0777) are supported", u)
	}
	return nil
}

func formatPerm(m os.FileMode) string {
	return fmt.Sprintf("%04o", uint32(m.Perm()))
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "auto", "ascii", "tree", "text", "markdown", "md":
	default:
		return fmt.Errorf("invalid format '%s': must be one of: auto, ascii, markdown", c.Format)
	}

	switch strings.ToLower(c.OnConflict) {
	case "", "skip", "overwrite", "fail":
	default:
		return fmt.Errorf("invalid on_conflict '%s': must be one of: skip, overwrite, fail", c.OnConflict)
	}

	if c.DirPerm == 0 {
		return fmt.Errorf("dir_perm cannot be zero")
	}
	if c.DirPerm&0o700 != 0o700 {
		return fmt.Errorf("dir_perm %04o must grant the owner rwx", uint32(c.DirPerm))
	}
	if c.FilePerm == 0 {
		return fmt.Errorf("file_perm cannot be zero")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log_level '%s': must be one of: debug, info, warn, error", c.LogLevel)
	}

	return nil
}
