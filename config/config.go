package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		TrustedProxies []string `yaml:"trustedProxies"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		CookieSecure   bool     `yaml:"cookieSecure"`
	} `yaml:"server"`

	Database struct {
		URI  string `yaml:"uri"`
		Name string `yaml:"name"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`

	Security struct {
		IPHashSalt string `yaml:"ipHashSalt"`
		// Requests per minute allowed on write endpoints, per fingerprint.
		WriteRateLimit int `yaml:"writeRateLimit"`
	} `yaml:"security"`

	// Environment-configured super admin, checked before stored admins.
	SuperAdmin struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"superAdmin"`

	RBAC struct {
		// Persist casbin policies in MongoDB instead of memory.
		UseMongoAdapter bool `yaml:"useMongoAdapter"`
	} `yaml:"rbac"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// LoadConfig reads the configuration file, then applies environment
// overrides (a .env file in the working directory is loaded first when
// present). A missing config file is not an error: defaults plus the
// environment are used instead.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for values neither the file nor
// the environment set.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.TrustedProxies = []string{"127.0.0.1"}
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Database.URI = "mongodb://localhost:27017/pollhub"
	cfg.Security.WriteRateLimit = 30
	cfg.Log.Level = "info"
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		c.Server.CookieSecure = v == "true" || v == "1"
	}
	setString(&c.Database.URI, "MONGODB_URI")
	setString(&c.Database.Name, "MONGODB_DATABASE")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Security.IPHashSalt, "IP_HASH_SALT")
	setString(&c.SuperAdmin.Username, "ADMIN_USERNAME")
	setString(&c.SuperAdmin.Password, "ADMIN_PASSWORD")
	setString(&c.Log.Level, "LOG_LEVEL")
}

// Validate rejects configurations the server cannot run safely with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (JWT_SECRET)")
	}
	if c.Security.IPHashSalt == "" {
		return errors.New("ip hash salt is required (IP_HASH_SALT)")
	}
	if c.Database.URI == "" {
		return errors.New("database uri is required (MONGODB_URI)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if (c.SuperAdmin.Username == "") != (c.SuperAdmin.Password == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
