package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port         string `mapstructure:"port" yaml:"port"`
		MetricsPort  string `mapstructure:"metrics_port" yaml:"metrics_port"`
		StaticDir    string `mapstructure:"static_dir" yaml:"static_dir"`
		LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
		StartDelayMS int    `mapstructure:"start_delay_ms" yaml:"start_delay_ms"`
		MaxUploadMB  int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
		JWTSecret    string `mapstructure:"jwt_secret" yaml:"-"`
	} `mapstructure:"server" yaml:"server"`
	Lights struct {
		// Driver is "gpio" for real header pins or "sim" for the on-screen simulator.
		Driver string `mapstructure:"driver" yaml:"driver"`
		// Pins are physical header pin numbers, not GPIO numbers.
		Pins         []int    `mapstructure:"pins" yaml:"pins"`
		Labels       []string `mapstructure:"labels" yaml:"labels"`
		RotateFrames int      `mapstructure:"rotate_frames" yaml:"rotate_frames"`
	} `mapstructure:"lights" yaml:"lights"`
	Storage struct {
		Provider  string `mapstructure:"provider" yaml:"provider"`
		LocalPath string `mapstructure:"local_path" yaml:"local_path"`
		Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
		Region    string `mapstructure:"region" yaml:"region"`
		KeyID     string `mapstructure:"key_id" yaml:"-"`
		AppKey    string `mapstructure:"app_key" yaml:"-"`
		Bucket    string `mapstructure:"bucket" yaml:"bucket"`
		Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	} `mapstructure:"storage" yaml:"storage"`
	Database struct {
		Driver   string `mapstructure:"driver" yaml:"driver"`
		Path     string `mapstructure:"path" yaml:"path"`
		Host     string `mapstructure:"host" yaml:"host"`
		Port     string `mapstructure:"port" yaml:"port"`
		User     string `mapstructure:"user" yaml:"user"`
		Password string `mapstructure:"password" yaml:"-"`
		Name     string `mapstructure:"name" yaml:"name"`
	} `mapstructure:"database" yaml:"database"`
}

func Load() *Config {
	v := viper.New()
	setup(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	cfg, err := decode(v)
	if err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Critical: %v", err)
	}
	return cfg
}

// Defaults returns the configuration produced by defaults and environment alone.
func Defaults() *Config {
	v := viper.New()
	setup(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func setup(v *viper.Viper) {
	v.SetEnvPrefix("LIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server
	v.BindEnv("server.port")
	v.BindEnv("server.metrics_port")
	v.BindEnv("server.static_dir")
	v.BindEnv("server.log_level")
	v.BindEnv("server.start_delay_ms")
	v.BindEnv("server.max_upload_mb")
	v.BindEnv("server.jwt_secret")

	// Lights
	v.BindEnv("lights.driver")
	v.BindEnv("lights.pins")
	v.BindEnv("lights.labels")
	v.BindEnv("lights.rotate_frames")

	// Storage
	v.BindEnv("storage.provider")
	v.BindEnv("storage.local_path")
	v.BindEnv("storage.endpoint")
	v.BindEnv("storage.region")
	v.BindEnv("storage.key_id")
	v.BindEnv("storage.app_key")
	v.BindEnv("storage.bucket")
	v.BindEnv("storage.prefix")

	// Database
	v.BindEnv("database.driver")
	v.BindEnv("database.path")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.name")

	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.metrics_port", ":9091")
	v.SetDefault("server.static_dir", "dist")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.start_delay_ms", 1000) // time for the remote player to buffer
	v.SetDefault("server.max_upload_mb", 100)

	// Candy canes, icicles, stairs, handrails, tree
	v.SetDefault("lights.driver", "gpio")
	v.SetDefault("lights.pins", []int{3, 5, 7, 8, 10, 11, 12, 13})
	v.SetDefault("lights.labels", []string{})
	v.SetDefault("lights.rotate_frames", 10)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_path", "./audio")
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./lightshow.db")
	v.SetDefault("database.port", "5432")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that cannot produce a working service.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Lights.Pins) == 0 {
		errs = append(errs, errors.New("no light pins configured (LIGHTS_LIGHTS_PINS)"))
	}
	seen := make(map[int]bool, len(c.Lights.Pins))
	for _, p := range c.Lights.Pins {
		if seen[p] {
			errs = append(errs, fmt.Errorf("pin %d configured twice", p))
		}
		seen[p] = true
	}
	switch c.Lights.Driver {
	case "gpio", "sim":
	default:
		errs = append(errs, fmt.Errorf("unknown lights driver %q", c.Lights.Driver))
	}

	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.KeyID == "" {
			errs = append(errs, errors.New("S3 KeyID is missing (LIGHTS_STORAGE_KEY_ID)"))
		}
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("S3 bucket is missing (LIGHTS_STORAGE_BUCKET)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage provider %q", c.Storage.Provider))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}

// Label returns the human name of the channel at index i, if one was configured.
func (c *Config) Label(i int) string {
	if i < len(c.Lights.Labels) {
		return c.Lights.Labels[i]
	}
	return ""
}
