package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
				assert.Equal(t, "conversions_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "conversions_queue", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, "tunegrab-api", cfg.App.Name)
				assert.Equal(t, time.Hour, cfg.Retention.Window)
				assert.Equal(t, 30*time.Minute, cfg.Janitor.Interval)
				assert.Equal(t, 180*time.Second, cfg.Extractor.Timeout)
				assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
				assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
			}
		})
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load("testdata/missing_redis.yaml")
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Retention.Window)
	assert.Equal(t, 30*time.Minute, cfg.Janitor.Interval)
	assert.Equal(t, "yt-dlp", cfg.Extractor.BinaryPath)
	assert.Equal(t, 3*time.Minute, cfg.Extractor.Timeout)
	assert.Equal(t, "downloads", cfg.Extractor.OutputDir)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: ExchangeConfig{Name: "conversions_exchange"},
			Queue:    QueueConfig{Name: "conversions_queue"},
		},
		Worker:    WorkerConfig{Concurrency: 4},
		Extractor: ExtractorConfig{BinaryPath: "yt-dlp", Timeout: time.Minute, OutputDir: "downloads"},
		Retention: RetentionConfig{Window: time.Hour},
		Janitor:   JanitorConfig{Interval: 30 * time.Minute},
		RateLimit: RateLimitConfig{Window: 15 * time.Minute, MaxRequests: 10},
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "empty redis addr",
			mutate:    func(c *Config) { c.Redis.Addr = "" },
			wantErr:   true,
			errString: "redis addr is required",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name:      "invalid rabbitmq port",
			mutate:    func(c *Config) { c.RabbitMQ.Port = -1 },
			wantErr:   true,
			errString: "invalid rabbitmq port",
		},
		{
			name:      "empty exchange name",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "empty queue name",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
		{
			name:      "zero rate limit max",
			mutate:    func(c *Config) { c.RateLimit.MaxRequests = 0 },
			wantErr:   true,
			errString: "rate limit max_requests",
		},
		{
			name:      "zero rate limit window",
			mutate:    func(c *Config) { c.RateLimit.Window = 0 },
			wantErr:   true,
			errString: "rate limit window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr:   true,
			errString: "worker concurrency",
		},
		{
			name:      "zero extractor timeout",
			mutate:    func(c *Config) { c.Extractor.Timeout = 0 },
			wantErr:   true,
			errString: "extractor timeout",
		},
		{
			name:      "empty output dir",
			mutate:    func(c *Config) { c.Extractor.OutputDir = "" },
			wantErr:   true,
			errString: "extractor output_dir",
		},
		{
			name:      "zero retention window",
			mutate:    func(c *Config) { c.Retention.Window = 0 },
			wantErr:   true,
			errString: "retention window",
		},
		{
			name:      "zero janitor interval",
			mutate:    func(c *Config) { c.Janitor.Interval = 0 },
			wantErr:   true,
			errString: "janitor interval",
		},
		{
			name:      "empty redis addr",
			mutate:    func(c *Config) { c.Redis.Addr = "" },
			wantErr:   true,
			errString: "redis addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.NoError(t, cfg.ValidateAPIConfig())
		require.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing redis", func(t *testing.T) {
		cfg, err := Load("testdata/missing_redis.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis addr is required")
	})
}
