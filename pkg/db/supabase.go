package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	supabase "github.com/supabase-community/supabase-go"

	"dbbs/pkg/domain"
)

var ErrSupabaseNotConfigured = errors.New("either connection string/password or Supabase URL+key must be provided")

// SupabaseConfig holds configuration required to connect to Supabase.
type SupabaseConfig struct {
	// ConnectionString is the Supabase Postgres connection string. When empty
	// it is built from SupabaseURL and Password.
	ConnectionString string

	// SupabaseURL is the project URL, https://<project-ref>.supabase.co.
	SupabaseURL string

	// SupabaseKey is the API key used for REST inserts.
	SupabaseKey string

	// Password is the database password, not the API key.
	Password string

	MaxOpenConns int
	MaxIdleConns int
	ConnMaxIdle  time.Duration
	ConnMaxLife  time.Duration
}

// SupabaseClient stores parse results in Supabase, either through a direct
// Postgres connection or, without a password, through the REST API.
type SupabaseClient struct {
	db          *sql.DB
	supabaseSDK *supabase.Client
	store       *ResultStore
	cfg         SupabaseConfig
}

func NewSupabaseClient(cfg SupabaseConfig) *SupabaseClient {
	c := &SupabaseClient{cfg: cfg}
	c.store = NewResultStore(c, "supabase")
	return c
}

// Connect initializes the SDK when a URL and key are given and opens a direct
// connection when a connection string or password is given. A failing direct
// connection falls back to REST mode if the SDK is available.
func (c *SupabaseClient) Connect(ctx context.Context) error {
	if c.cfg.SupabaseURL != "" && c.cfg.SupabaseKey != "" {
		sdkClient, err := supabase.NewClient(c.cfg.SupabaseURL, c.cfg.SupabaseKey, nil)
		if err != nil {
			return fmt.Errorf("initialize supabase SDK: %w", err)
		}
		c.supabaseSDK = sdkClient
	}

	connStr := c.cfg.ConnectionString
	if connStr == "" && c.cfg.Password != "" {
		var err error
		connStr, err = c.buildConnectionString()
		if err != nil {
			if c.supabaseSDK != nil {
				return nil
			}
			return fmt.Errorf("build connection string: %w", err)
		}
	}

	if connStr != "" {
		// The simple protocol avoids prepared statement clashes on the pooler.
		connStr = addConnectionParam(connStr, "statement_cache_capacity", "0")
		connStr = addConnectionParam(connStr, "default_query_exec_mode", "simple_protocol")

		db, err := openPool(ctx, connStr, poolTuning{
			maxOpen: c.cfg.MaxOpenConns,
			maxIdle: c.cfg.MaxIdleConns,
			idle:    c.cfg.ConnMaxIdle,
			life:    c.cfg.ConnMaxLife,
		})
		if err != nil {
			if c.supabaseSDK != nil {
				return nil
			}
			return fmt.Errorf("supabase postgres: %w", err)
		}
		c.db = db
	}

	if c.db == nil && c.supabaseSDK == nil {
		return ErrSupabaseNotConfigured
	}
	return nil
}

func (c *SupabaseClient) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB returns nil in REST-only mode.
func (c *SupabaseClient) DB() *sql.DB {
	return c.db
}

func (c *SupabaseClient) HasDirectDB() bool {
	return c.db != nil
}

func (c *SupabaseClient) SDK() *supabase.Client {
	return c.supabaseSDK
}

func (c *SupabaseClient) Name() string {
	return "supabase"
}

// Save writes through the result tables when a direct connection exists and
// otherwise inserts the run document over REST. REST mode expects the
// parse_run table to exist already.
func (c *SupabaseClient) Save(ctx context.Context, key string, result *domain.ParseResult, data []byte) error {
	if c.HasDirectDB() {
		return c.store.Save(ctx, key, result, data)
	}
	if c.supabaseSDK == nil {
		return ErrSupabaseNotConfigured
	}
	if result == nil || result.Timestamp == nil {
		return fmt.Errorf("save parse result %s: missing timestamp", key)
	}
	if data == nil {
		var err error
		if data, err = json.Marshal(result); err != nil {
			return fmt.Errorf("encode parse result: %w", err)
		}
	}

	row := map[string]interface{}{
		"timestamp": *result.Timestamp,
		"key":       key,
		"document":  json.RawMessage(data),
	}
	_, _, err := c.supabaseSDK.From("parse_run").Insert(row, true, "timestamp", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("supabase insert parse_run %s: %w", key, err)
	}
	return nil
}

// buildConnectionString derives the direct connection string from the project URL.
func (c *SupabaseClient) buildConnectionString() (string, error) {
	if c.cfg.SupabaseURL == "" {
		return "", fmt.Errorf("supabase URL is required when connection string is not provided")
	}
	if c.cfg.Password == "" {
		return "", fmt.Errorf("supabase password is required when connection string is not provided")
	}

	parsedURL, err := url.Parse(c.cfg.SupabaseURL)
	if err != nil {
		return "", fmt.Errorf("parse supabase URL: %w", err)
	}

	// wmoiagolzzyhzkxthhvy.supabase.co -> wmoiagolzzyhzkxthhvy
	parts := strings.Split(parsedURL.Host, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid supabase URL format: expected [project-ref].supabase.co")
	}
	projectRef := parts[0]

	return fmt.Sprintf("postgresql://postgres:%s@db.%s.supabase.co:5432/postgres?sslmode=require",
		url.QueryEscape(c.cfg.Password), projectRef), nil
}

func addConnectionParam(connStr, key, value string) string {
	if strings.Contains(connStr, key+"=") {
		return connStr
	}

	separator := "?"
	if strings.Contains(connStr, "?") {
		separator = "&"
	}
	return connStr + separator + key + "=" + value
}
