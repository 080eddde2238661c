package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config for TOML files. Durations are strings such as "30s".
// Zero values leave the current setting untouched.
type fileConfig struct {
	Server struct {
		Host            string `toml:"host"`
		Port            int    `toml:"port"`
		ReadTimeout     string `toml:"read_timeout"`
		WriteTimeout    string `toml:"write_timeout"`
		IdleTimeout     string `toml:"idle_timeout"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Dataset struct {
		Path  string `toml:"path"`
		Sheet string `toml:"sheet"`
	} `toml:"dataset"`
	Logger struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logger"`
	Security struct {
		EnableRateLimit *bool    `toml:"rate_limit_enabled"`
		RateLimitRPS    int      `toml:"rate_limit_rps"`
		RateLimitBurst  int      `toml:"rate_limit_burst"`
		AllowedOrigins  []string `toml:"allowed_origins"`
		TrustedProxies  []string `toml:"trusted_proxies"`
	} `toml:"security"`
	Session struct {
		CookieName    string `toml:"cookie_name"`
		TTL           string `toml:"ttl"`
		SweepInterval string `toml:"sweep_interval"`
		MaxSessions   int    `toml:"max_sessions"`
	} `toml:"session"`
	Charts struct {
		Width  int `toml:"width"`
		Height int `toml:"height"`
	} `toml:"charts"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Server.Host, fc.Server.Host)
	setInt(&c.Server.Port, fc.Server.Port)
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.read_timeout", fc.Server.ReadTimeout, &c.Server.ReadTimeout},
		{"server.write_timeout", fc.Server.WriteTimeout, &c.Server.WriteTimeout},
		{"server.idle_timeout", fc.Server.IdleTimeout, &c.Server.IdleTimeout},
		{"server.shutdown_timeout", fc.Server.ShutdownTimeout, &c.Server.ShutdownTimeout},
		{"session.ttl", fc.Session.TTL, &c.Session.TTL},
		{"session.sweep_interval", fc.Session.SweepInterval, &c.Session.SweepInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.name, err)
		}
		*d.dst = v
	}

	setString(&c.Dataset.Path, fc.Dataset.Path)
	setString(&c.Dataset.Sheet, fc.Dataset.Sheet)

	setString(&c.Logger.Level, fc.Logger.Level)
	setString(&c.Logger.Format, fc.Logger.Format)

	if fc.Security.EnableRateLimit != nil {
		c.Security.EnableRateLimit = *fc.Security.EnableRateLimit
	}
	setInt(&c.Security.RateLimitRPS, fc.Security.RateLimitRPS)
	setInt(&c.Security.RateLimitBurst, fc.Security.RateLimitBurst)
	if len(fc.Security.AllowedOrigins) > 0 {
		c.Security.AllowedOrigins = fc.Security.AllowedOrigins
	}
	if len(fc.Security.TrustedProxies) > 0 {
		c.Security.TrustedProxies = fc.Security.TrustedProxies
	}

	setString(&c.Session.CookieName, fc.Session.CookieName)
	setInt(&c.Session.MaxSessions, fc.Session.MaxSessions)

	setInt(&c.Charts.Width, fc.Charts.Width)
	setInt(&c.Charts.Height, fc.Charts.Height)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
