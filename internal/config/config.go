package config

import (
	"fmt"
	"invitebot/lib/validate"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	Enabled bool   `yaml:"enabled" env:"API_ENABLED" env-default:"false"`
	BindIp  string `yaml:"bind_ip" env:"API_BIND_IP" env-default:"127.0.0.1"`
	Port    string `yaml:"port" env:"API_PORT" env-default:"8080"`
	Token   string `yaml:"token" env:"API_TOKEN" env-default:""`
}

// Telegram holds both accounts: the bot that talks to admins
// and the user account that owns the target chat's invite links.
type Telegram struct {
	BotToken          string `yaml:"bot_token" env:"BOT_TOKEN" validate:"required"`
	ApiId             int    `yaml:"api_id" env:"API_ID" validate:"required"`
	ApiHash           string `yaml:"api_hash" env:"API_HASH" validate:"required"`
	Phone             string `yaml:"phone" env:"USER_PHONE" validate:"required"`
	Password          string `yaml:"password" env:"USER_PASS" env-default:""`
	Session           string `yaml:"session" env:"USER_SESSION" env-default:"user.session"`
	TargetChatId      int64  `yaml:"target_chat_id" env:"TARGET_CHAT_ID" validate:"required"`
	LogToAdmins       bool   `yaml:"log_to_admins" env:"LOG_TO_ADMINS" env-default:"true"`
	DigestIntervalMin int    `yaml:"digest_interval_min" env:"DIGEST_INTERVAL_MIN" env-default:"30" validate:"min=1"`
}

type Admins struct {
	Super []int64 `yaml:"super" env:"ADMINS_SUPER" env-separator:","`
	Buyer []int64 `yaml:"buyer" env:"ADMINS_BUYER" env-separator:","`
	Other []int64 `yaml:"other" env:"ADMINS_OTHER" env-separator:","`
}

type Store struct {
	Driver   string `yaml:"driver" env:"STORE_DRIVER" env-default:"mongo" validate:"oneof=mongo mysql memory"`
	Host     string `yaml:"host" env:"STORE_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"STORE_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"STORE_USER" env-default:""`
	Password string `yaml:"password" env:"STORE_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"STORE_DATABASE" env-default:"invitebot"`
}

type Sync struct {
	Enabled        bool `yaml:"enabled" env:"SYNC_ENABLED" env-default:"true"`
	IntervalSec    int  `yaml:"interval_sec" env:"SYNC_INTERVAL" env-default:"300" validate:"min=1"`
	IncludeRevoked bool `yaml:"include_revoked" env:"SYNC_INCLUDE_REVOKED" env-default:"false"`
	PageLimit      int  `yaml:"page_limit" env:"SYNC_PAGE_LIMIT" env-default:"100" validate:"min=1,max=100"`
	PageDelayMs    int  `yaml:"page_delay_ms" env-default:"600"`
	PageJitterMs   int  `yaml:"page_jitter_ms" env-default:"300"`
}

type Limits struct {
	MaxRetries    int `yaml:"max_retries" env:"MAX_RETRIES" env-default:"5" validate:"min=0"`
	FloodExtraSec int `yaml:"flood_extra_sec" env-default:"1" validate:"min=0"`
	CreateDelayMs int `yaml:"create_delay_ms" env-default:"300"`
	CreateJitter  int `yaml:"create_jitter_ms" env-default:"200"`
}

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	LogPath  string   `yaml:"log_path" env:"LOG_PATH" env-default:"logs/invitebot.log"`
	Telegram Telegram `yaml:"telegram"`
	Admins   Admins   `yaml:"admins"`
	Store    Store    `yaml:"store"`
	Sync     Sync     `yaml:"sync"`
	Limits   Limits   `yaml:"limits"`
	Listen   Listen   `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	once.Do(func() {
		conf, err := Load(path)
		if err != nil {
			log.Fatal(err)
		}
		instance = conf
	})
	return instance
}

// Load reads the YAML file, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	if err := validate.Struct(conf); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}
