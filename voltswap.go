// Package voltswap is a client SDK for an electric-vehicle battery-swap
// network: stations, batteries, bookings, package plans and payments,
// reached through one configured transport with a cached read path and an
// invalidating write path.
package voltswap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"voltswap/api"
	"voltswap/cache"
	"voltswap/clients"
	"voltswap/libs/config"
	"voltswap/libs/logging"
	redislib "voltswap/libs/redis"
	"voltswap/notify"
	"voltswap/realtime"
	"voltswap/session"
	"voltswap/transport"
	"voltswap/workflow"
)

// Config for the SDK. Values load from YAML (VOLTSWAP_CONFIG_FILE) with env
// overrides.
type Config struct {
	API struct {
		BaseURL   string        `yaml:"base_url" env:"VOLTSWAP_API_BASE_URL"`
		Timeout   time.Duration `yaml:"timeout" env:"VOLTSWAP_API_TIMEOUT" default:"15s"`
		RateLimit float64       `yaml:"rate_limit" env:"VOLTSWAP_API_RATE_LIMIT"`
		RateBurst int           `yaml:"rate_burst" env:"VOLTSWAP_API_RATE_BURST" default:"1"`
	} `yaml:"api"`
	Session struct {
		File          string        `yaml:"file" env:"VOLTSWAP_SESSION_FILE" default:".voltswap/session.json"`
		RedisAddr     string        `yaml:"redis_addr" env:"VOLTSWAP_SESSION_REDIS_ADDR"`
		RedisPassword string        `yaml:"redis_password" env:"VOLTSWAP_SESSION_REDIS_PASSWORD"`
		RedisDB       int           `yaml:"redis_db" env:"VOLTSWAP_SESSION_REDIS_DB"`
		RedisTTL      time.Duration `yaml:"redis_ttl" env:"VOLTSWAP_SESSION_REDIS_TTL"`
	} `yaml:"session"`
	Realtime struct {
		URL string `yaml:"url" env:"VOLTSWAP_REALTIME_URL"`
	} `yaml:"realtime"`
}

// LoadConfig reads configuration from file and environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("voltswap: API base URL is required (VOLTSWAP_API_BASE_URL)")
	}
	return cfg, nil
}

// Client is the assembled SDK: session, transport, cache and one typed
// client per backend resource.
type Client struct {
	Session *session.Store
	Cache   *cache.Store

	Auth      *clients.AuthClient
	Stations  *clients.StationsClient
	Batteries *clients.BatteriesClient
	Bookings  *clients.BookingsClient
	Plans     *clients.PlansClient
	Payments  *clients.PaymentsClient
	Vnpay     *clients.VnpayClient
	Users     *clients.UsersClient

	Swap *workflow.SwapPipeline

	transport *transport.Transport
	api       *api.Client
	listener  *realtime.Listener
	notifier  notify.Notifier
	logger    *zap.Logger
}

// Option customizes client construction.
type Option func(*options)

type options struct {
	notifier   notify.Notifier
	storage    session.Storage
	httpClient transport.HTTPDoer
}

// WithNotifier overrides the default log-backed notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithSessionStorage overrides the storage picked from config.
func WithSessionStorage(s session.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(o *options) { o.httpClient = client }
}

// New constructs the client graph from config.
func New(ctx context.Context, cfg *Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	storage := o.storage
	if storage == nil {
		var err error
		storage, err = storageFromConfig(cfg)
		if err != nil {
			return nil, err
		}
	}

	sess, err := session.NewStore(ctx, storage)
	if err != nil {
		return nil, fmt.Errorf("voltswap: load session: %w", err)
	}

	transportOpts := []transport.Option{
		transport.WithHTTPClient(transport.NewDefaultHTTPClient(cfg.API.Timeout)),
	}
	if o.httpClient != nil {
		transportOpts = append(transportOpts, transport.WithHTTPClient(o.httpClient))
	}
	if cfg.API.RateLimit > 0 {
		transportOpts = append(transportOpts, transport.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst))
	}

	tr := transport.New(cfg.API.BaseURL, sess, notifier, logger, transportOpts...)
	apiClient := api.New(tr, sess, notifier, logger)
	store := cache.NewStore(apiClient, sess, notifier, logger)

	c := &Client{
		Session:   sess,
		Cache:     store,
		Auth:      clients.NewAuthClient(apiClient),
		Stations:  clients.NewStationsClient(apiClient),
		Batteries: clients.NewBatteriesClient(apiClient),
		Bookings:  clients.NewBookingsClient(apiClient),
		Plans:     clients.NewPlansClient(apiClient),
		Payments:  clients.NewPaymentsClient(apiClient),
		Vnpay:     clients.NewVnpayClient(apiClient),
		Users:     clients.NewUsersClient(apiClient),
		transport: tr,
		api:       apiClient,
		notifier:  notifier,
		logger:    logger,
	}
	c.Swap = workflow.NewSwapPipeline(c.Bookings, c.Batteries, c.Payments, store, logger)

	if cfg.Realtime.URL != "" {
		c.listener = realtime.NewListener(cfg.Realtime.URL, store, sess, logger)
	}
	return c, nil
}

// NewFromEnv builds config, logger and client in one call.
func NewFromEnv(ctx context.Context, opts ...Option) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, logger, opts...)
}

func storageFromConfig(cfg *Config) (session.Storage, error) {
	if cfg.Session.RedisAddr != "" {
		client, err := redislib.NewClient(cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("voltswap: session redis: %w", err)
		}
		return session.NewRedisStorage(client, "", cfg.Session.RedisTTL), nil
	}
	return session.NewFileStorage(cfg.Session.File), nil
}

// Login authenticates and establishes the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.Auth.Login(ctx, clients.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	return c.Session.Login(ctx, resp.Token)
}

// Logout destroys the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.Session.Clear(ctx)
}

// Listen runs the realtime invalidation feed until ctx is cancelled.
// It is a no-op when no realtime URL is configured.
func (c *Client) Listen(ctx context.Context) error {
	if c.listener == nil {
		return nil
	}
	return c.listener.Run(ctx)
}
