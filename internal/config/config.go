package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix marks the environment variables read into the config.
// A double underscore nests, so FLASHDECK_DB__DSN sets db.dsn.
const EnvPrefix = "FLASHDECK_"

type Config struct {
	Addr    string        `koanf:"addr" validate:"required"`
	Log     LogConfig     `koanf:"log"`
	DB      DBConfig      `koanf:"db"`
	Session SessionConfig `koanf:"session"`
	Deck    DeckConfig    `koanf:"deck"`
	Card    CardConfig    `koanf:"card"`
	Cards   CardsConfig   `koanf:"cards"`
	Static  StaticConfig  `koanf:"static"`
	Sources SourcesConfig `koanf:"sources"`
}

type LogConfig struct {
	Mode string `koanf:"mode" validate:"oneof=development production"`
}

type DBConfig struct {
	Driver       string `koanf:"driver" validate:"oneof=sqlite pgx"`
	DSN          string `koanf:"dsn" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
}

type SessionConfig struct {
	CookieName    string        `koanf:"cookie_name" validate:"required"`
	MaxAge        time.Duration `koanf:"max_age" validate:"gt=0"`
	PurgeInterval time.Duration `koanf:"purge_interval" validate:"gte=0"`
}

type DeckConfig struct {
	DefaultRevisionLength int `koanf:"default_revision_length" validate:"min=5,max=25"`
}

type CardConfig struct {
	DefaultWeight int `koanf:"default_weight" validate:"min=1,max=32767"`
}

type CardsConfig struct {
	PerPage int `koanf:"per_page" validate:"min=1,max=1000"`
}

type StaticConfig struct {
	Dir string `koanf:"dir"`
}

type SourcesConfig struct {
	ReposDir     string        `koanf:"repos_dir" validate:"required"`
	// LocalRoot bounds the directories users may register over HTTP.
	// Empty disables local sources for users.
	LocalRoot    string        `koanf:"local_root"`
	SyncInterval time.Duration `koanf:"sync_interval" validate:"gte=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Addr: ":8080",
		Log:  LogConfig{Mode: "development"},
		DB: DBConfig{
			Driver: "sqlite",
			DSN:    "flashdeck.db",
		},
		Session: SessionConfig{
			CookieName:    "auth-cookie",
			MaxAge:        36 * time.Hour,
			PurgeInterval: time.Hour,
		},
		Deck:    DeckConfig{DefaultRevisionLength: 10},
		Card:    CardConfig{DefaultWeight: 1024},
		Cards:   CardsConfig{PerPage: 36},
		Sources: SourcesConfig{ReposDir: "repos"},
	}
}

// RegisterFlags adds the config flags to flagSet. Only flags set on the command
// line override the other layers.
func RegisterFlags(flagSet *pflag.FlagSet) {
	d := Default()
	flagSet.String("config", "", "path to a YAML config file")
	flagSet.String("addr", d.Addr, "HTTP listen address")
	flagSet.String("log.mode", d.Log.Mode, "log mode: development or production")
	flagSet.String("db.driver", d.DB.Driver, "database driver: sqlite or pgx")
	flagSet.String("db.dsn", d.DB.DSN, "database DSN")
	flagSet.String("static.dir", d.Static.Dir, "directory holding the web client bundle")
}

// Load builds the config from defaults, a .env file, the YAML file named by
// --config, FLASHDECK_ environment variables and changed flags, in that order.
func Load(flagSet *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if path, _ := flagSet.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	flags := posflag.ProviderWithFlag(flagSet, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed || f.Name == "config" {
			return "", nil
		}
		return f.Name, f.Value.String()
	})
	if err := k.Load(flags, nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
