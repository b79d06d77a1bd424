// Package config loads clipmix settings from defaults, an optional TOML
// file and CLIPMIX_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"

	"github.com/forPelevin/clipmix/internal/types"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CLIPMIX_"

// Config holds every setting of a compilation run.
type Config struct {
	FFmpegPath string `toml:"ffmpeg_path" env:"FFMPEG_PATH, overwrite" validate:"required"`
	TempDir    string `toml:"temp_dir" env:"TEMP_DIR, overwrite"`
	Output     string `toml:"output" env:"OUTPUT, overwrite" validate:"required"`
	Manifest   string `toml:"manifest" env:"MANIFEST, overwrite"`

	Level           int     `toml:"level" env:"LEVEL, overwrite" validate:"min=0,max=60"`
	SilenceDuration float64 `toml:"silence_duration" env:"SILENCE_DURATION, overwrite" validate:"gt=0"`
	Count           int     `toml:"count" env:"COUNT, overwrite" validate:"min=1"`
	Parallelism     int     `toml:"parallelism" env:"PARALLELISM, overwrite" validate:"min=0"`
	Seed            int64   `toml:"seed" env:"SEED, overwrite"`
	TimeoutSeconds  int     `toml:"timeout_seconds" env:"TIMEOUT_SECONDS, overwrite" validate:"min=0"`

	LogLevel  string `toml:"log_level" env:"LOG_LEVEL, overwrite" validate:"oneof=debug info warn error"`
	LogFormat string `toml:"log_format" env:"LOG_FORMAT, overwrite" validate:"oneof=auto text json"`

	// Optional S3 publishing of the final output
	S3Bucket           string `toml:"s3_bucket" env:"S3_BUCKET, overwrite"`
	S3Region           string `toml:"s3_region" env:"S3_REGION, overwrite" validate:"required_with=S3Bucket"`
	S3Endpoint         string `toml:"s3_endpoint" env:"S3_ENDPOINT, overwrite" validate:"omitempty,url"`
	S3Prefix           string `toml:"s3_prefix" env:"S3_PREFIX, overwrite"`
	AWSAccessKeyID     string `toml:"aws_access_key_id" env:"AWS_ACCESS_KEY_ID, overwrite"`
	AWSSecretAccessKey string `toml:"aws_secret_access_key" env:"AWS_SECRET_ACCESS_KEY, overwrite"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		FFmpegPath:      "ffmpeg",
		Output:          "clip_compilation.mp4",
		Level:           30,
		SilenceDuration: 0.75,
		Count:           3,
		TimeoutSeconds:  int((3 * time.Hour).Seconds()),
		LogLevel:        "info",
		LogFormat:       "auto",
	}
}

// Load layers defaults, the TOML file at path (or the default location when
// path is empty) and the environment. It reports the config file used, if
// any. The result is not validated so that flags can still be applied.
func Load(ctx context.Context, path string) (Config, string, error) {
	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return Config{}, "", err
	}
	if exists {
		f, err := os.Open(resolved)
		if err != nil {
			return Config{}, "", fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
			return Config{}, "", fmt.Errorf("parse config %s: %w", resolved, err)
		}
	} else {
		resolved = ""
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, envconfig.OsLookuper()),
	}); err != nil {
		return Config{}, "", fmt.Errorf("config env: %w", err)
	}

	cfg.normalize()
	return cfg, resolved, nil
}

func (c *Config) normalize() {
	c.FFmpegPath = strings.TrimSpace(c.FFmpegPath)
	c.Output = strings.TrimSpace(c.Output)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.TempDir != "" {
		if expanded, err := expandHome(c.TempDir); err == nil {
			c.TempDir = expanded
		}
	}
}

var validate = validator.New()

// Validate checks field constraints. Failures wrap types.ErrInput.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: invalid config: %s", types.ErrInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: invalid config: %w", types.ErrInput, err)
	}
	return nil
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath is $XDG_CONFIG_HOME/clipmix/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "clipmix", "config.toml"), nil
}

// resolvePath reports whether a config file exists. An explicit path must
// exist; the default location is optional.
func resolvePath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandHome(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			return "", false, fmt.Errorf("config file: %w", err)
		}
		return expanded, true, nil
	}

	def, err := DefaultPath()
	if err != nil {
		return "", false, nil
	}
	if _, err := os.Stat(def); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return def, false, nil
		}
		return "", false, fmt.Errorf("config file: %w", err)
	}
	return def, true, nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
