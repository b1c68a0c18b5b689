package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the dbbs commands read.
type Config struct {
	Glossary GlossaryConfig `mapstructure:"glossary"`
	Log      LogConfig      `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
	S3       S3Config       `mapstructure:"s3"`
	COS      COSConfig      `mapstructure:"cos"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`
}

type GlossaryConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Client  string        `mapstructure:"client"` // browser, cloudflare or default
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type COSConfig struct {
	URL       string `mapstructure:"url"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type SupabaseConfig struct {
	URL      string `mapstructure:"url"`
	Key      string `mapstructure:"key"`
	Password string `mapstructure:"password"`
}

type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	LockFile string        `mapstructure:"lock_file"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var ErrNoSinks = errors.New("no output configured: set output.dir, s3.bucket, cos.url, mongo.uri, postgres.dsn or supabase.url")

// Load reads defaults, then the config file, then DBBS_* environment
// variables. When path is empty a dbbs.{yaml,toml,json} in the working
// directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dbbs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DBBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// names the deployed handler reads
	if err := v.BindEnv("s3.bucket", "DBBS_S3_BUCKET", "OUTPUT_BUCKET_NAME"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("glossary.url", "")
	v.SetDefault("glossary.timeout", 30*time.Second)
	v.SetDefault("glossary.client", "browser")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("output.dir", "")
	v.SetDefault("output.prefix", "parsed-")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("cos.url", "")
	v.SetDefault("cos.secret_id", "")
	v.SetDefault("cos.secret_key", "")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "dbbs")
	v.SetDefault("mongo.collection", "parse_results")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.key", "")
	v.SetDefault("supabase.password", "")
	v.SetDefault("schedule.interval", 12*time.Hour)
	v.SetDefault("schedule.lock_file", "dbbs.lock")
	v.SetDefault("server.addr", ":8080")
}

// Validate checks what a scrape run needs: a glossary URL, at least one
// output, and complete credentials for every output that is partly set.
// All missing keys are reported at once.
func (c *Config) Validate() error {
	var missing []string

	if c.Glossary.URL == "" {
		missing = append(missing, "glossary.url")
	}
	if c.COS.URL != "" {
		if c.COS.SecretID == "" {
			missing = append(missing, "cos.secret_id")
		}
		if c.COS.SecretKey == "" {
			missing = append(missing, "cos.secret_key")
		}
	}
	if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
		if c.S3.AccessKey == "" {
			missing = append(missing, "s3.access_key")
		} else {
			missing = append(missing, "s3.secret_key")
		}
	}
	if c.Supabase.URL != "" && c.Supabase.Key == "" && c.Supabase.Password == "" {
		missing = append(missing, "supabase.key")
	}
	if c.Schedule.Interval <= 0 {
		missing = append(missing, "schedule.interval")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing config: %v", missing)
	}
	if !c.HasSinks() {
		return ErrNoSinks
	}
	return nil
}

// ValidateReplication checks the Mongo source and a Postgres-compatible target.
func (c *Config) ValidateReplication() error {
	var missing []string
	if c.Mongo.URI == "" {
		missing = append(missing, "mongo.uri")
	}
	if c.Postgres.DSN == "" && c.Supabase.URL == "" {
		missing = append(missing, "postgres.dsn")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing config: %v", missing)
	}
	return nil
}

// HasSinks reports whether any output is configured.
func (c *Config) HasSinks() bool {
	return c.Output.Dir != "" ||
		c.S3.Bucket != "" ||
		c.COS.URL != "" ||
		c.Mongo.URI != "" ||
		c.Postgres.DSN != "" ||
		c.Supabase.URL != ""
}
