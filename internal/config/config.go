package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken   string        `env:"TELEGRAM_TOKEN,required"`
	AdminIDs        []int64       `env:"ADMIN_IDS"`
	ChannelUsername string        `env:"CHANNEL_USERNAME" envDefault:"@smmpannel_fri"`
	LogChannelID    int64         `env:"LOG_CHANNEL_ID"`
	StartingPoints  int           `env:"STARTING_POINTS" envDefault:"5"`
	PointsPerRefer  int           `env:"POINTS_PER_REFER" envDefault:"5"`
	StateTTL        time.Duration `env:"STATE_TTL" envDefault:"15m"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	MetricsAddr     string        `env:"METRICS_ADDR"`
	LogProduction   bool          `env:"LOG_PRODUCTION" envDefault:"false"`
	BotDebug        bool          `env:"BOT_DEBUG" envDefault:"false"`
	UpdateTimeout   int           `env:"UPDATE_TIMEOUT" envDefault:"60"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"2m"`
}

// Load reads an optional .env file and then parses the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf([]int64(nil)): parseIDList,
		},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("at least one admin ID is required")
	}
	if cfg.StartingPoints < 0 || cfg.PointsPerRefer < 0 {
		return nil, fmt.Errorf("point settings must not be negative")
	}
	if cfg.ChannelUsername != "" && !strings.HasPrefix(cfg.ChannelUsername, "@") {
		cfg.ChannelUsername = "@" + cfg.ChannelUsername
	}

	return &cfg, nil
}

// parseIDList reads a comma separated list of IDs, ignoring blanks around entries.
func parseIDList(value string) (interface{}, error) {
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) IsAdmin(id int64) bool {
	for _, adminID := range c.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}
