package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Evaluator EvaluatorConfig
	Log       LogConfig
}

type ServerConfig struct {
	Mode        Mode
	Addr        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Driver string // sqlite|postgres
	DSN    string
}

type AuthConfig struct {
	HMACSecret string
	// Seed accounts for offline/dev deployments; production installs
	// provision users elsewhere.
	TeacherUser     string
	TeacherPassHash string // bcrypt
	StudentUser     string
	StudentPassHash string // bcrypt
}

type EvaluatorConfig struct {
	BaseURL    string
	APIKey     string
	TimeoutSec int
}

type LogConfig struct {
	Level string // debug|info|warn|error
}

// Load reads configuration from an optional file plus explicitly bound
// environment variables; env vars win over file values.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.SetDefault("server.mode", string(ModeOffline))
	vip.SetDefault("server.addr", ":8080")
	vip.SetDefault("server.cors_origins", "http://localhost:3000")
	vip.SetDefault("database.driver", "sqlite")
	vip.SetDefault("evaluator.timeout_sec", 30)
	vip.SetDefault("log.level", "info")

	vip.BindEnv("server.mode", "MODE")
	vip.BindEnv("server.addr", "HTTP_ADDR")
	vip.BindEnv("server.cors_origins", "CORS_ORIGINS")

	vip.BindEnv("database.driver", "DB_DRIVER")
	vip.BindEnv("database.dsn", "DB_DSN")

	vip.BindEnv("auth.hmac_secret", "AUTH_HMAC_SECRET")
	vip.BindEnv("auth.teacher_user", "AUTH_TEACHER_USER")
	vip.BindEnv("auth.teacher_pass_hash", "AUTH_TEACHER_PASS_HASH")
	vip.BindEnv("auth.student_user", "AUTH_STUDENT_USER")
	vip.BindEnv("auth.student_pass_hash", "AUTH_STUDENT_PASS_HASH")

	vip.BindEnv("evaluator.base_url", "EVALUATOR_BASE_URL")
	vip.BindEnv("evaluator.api_key", "EVALUATOR_API_KEY")
	vip.BindEnv("evaluator.timeout_sec", "EVALUATOR_TIMEOUT_SEC")

	vip.BindEnv("log.level", "LOG_LEVEL")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Mode:        Mode(vip.GetString("server.mode")),
			Addr:        vip.GetString("server.addr"),
			CORSOrigins: splitCSV(vip.GetString("server.cors_origins")),
		},
		Database: DatabaseConfig{
			Driver: vip.GetString("database.driver"),
			DSN:    vip.GetString("database.dsn"),
		},
		Auth: AuthConfig{
			HMACSecret:      vip.GetString("auth.hmac_secret"),
			TeacherUser:     vip.GetString("auth.teacher_user"),
			TeacherPassHash: vip.GetString("auth.teacher_pass_hash"),
			StudentUser:     vip.GetString("auth.student_user"),
			StudentPassHash: vip.GetString("auth.student_pass_hash"),
		},
		Evaluator: EvaluatorConfig{
			BaseURL:    vip.GetString("evaluator.base_url"),
			APIKey:     vip.GetString("evaluator.api_key"),
			TimeoutSec: vip.GetInt("evaluator.timeout_sec"),
		},
		Log: LogConfig{Level: vip.GetString("log.level")},
	}

	if cfg.Auth.HMACSecret == "" {
		return nil, fmt.Errorf("auth HMAC secret is required (set AUTH_HMAC_SECRET)")
	}
	if cfg.Server.Mode != ModeOffline && cfg.Server.Mode != ModeOnline {
		return nil, fmt.Errorf("unknown server mode %q", cfg.Server.Mode)
	}
	if cfg.Server.Mode == ModeOnline && cfg.Evaluator.BaseURL == "" {
		return nil, fmt.Errorf("evaluator base URL is required in online mode (set EVALUATOR_BASE_URL)")
	}
	return cfg, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
