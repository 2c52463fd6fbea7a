package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Chain struct {
		// Read endpoints in preference order, first listed is tried first.
		Endpoints       []string      `env:"RPC_ENDPOINTS" envSeparator:"," envDefault:"https://worldchain-mainnet.g.alchemy.com/public,https://worldchain.drpc.org,https://480.rpc.thirdweb.com,https://worldchain-mainnet.public.blastapi.io,https://worldchain-mainnet.gateway.tenderly.co/"`
		ContractAddress string        `env:"CONTRACT_ADDRESS" envDefault:"0x1F53330Bc66d9e38e4fE4561D515A73eD59787b6"`
		CallTimeout     time.Duration `env:"RPC_CALL_TIMEOUT" envDefault:"8s"`
		TokenDecimals   int32         `env:"TOKEN_DECIMALS" envDefault:"18"`
	}

	Claim struct {
		// Address is the user the claimer acts for. Empty means the bridge account.
		Address        string        `env:"CLAIM_ADDRESS" envDefault:""`
		Platforms      []string      `env:"CLAIM_PLATFORMS" envSeparator:"," envDefault:"telegram,twitter,youtube"`
		Amount         string        `env:"CLAIM_AMOUNT" envDefault:"1"`
		Cooldown       time.Duration `env:"CLAIM_COOLDOWN" envDefault:"24h"`
		MaxRetries     int           `env:"CLAIM_MAX_RETRIES" envDefault:"3"`
		RetryDelay     time.Duration `env:"CLAIM_RETRY_DELAY" envDefault:"500ms"`
		CorrelationTTL time.Duration `env:"CLAIM_CORRELATION_TTL" envDefault:"1h"`
		PollInterval   time.Duration `env:"CLAIM_POLL_INTERVAL" envDefault:"1s"`
	}

	Bridge struct {
		URL        string        `env:"BRIDGE_URL" envDefault:""`
		PrivateKey string        `env:"BRIDGE_PRIVATE_KEY" envDefault:""`
		Timeout    time.Duration `env:"BRIDGE_TIMEOUT" envDefault:"2m"`
	}

	Backend struct {
		BaseURL string        `env:"BACKEND_URL" envDefault:"http://localhost:8080/api/v1"`
		Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	}
}

func Load() (*Config, error) {
	// .env is optional, in production the variables are set directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make every resolution fail.
func (c *Config) Validate() error {
	if len(c.Chain.Endpoints) == 0 {
		return fmt.Errorf("RPC_ENDPOINTS must list at least one endpoint")
	}
	if !common.IsHexAddress(c.Chain.ContractAddress) {
		return fmt.Errorf("invalid CONTRACT_ADDRESS: %q", c.Chain.ContractAddress)
	}
	if c.Claim.MaxRetries < 0 {
		return fmt.Errorf("CLAIM_MAX_RETRIES cannot be negative")
	}
	if len(c.Claim.Platforms) == 0 {
		return fmt.Errorf("CLAIM_PLATFORMS must list at least one platform")
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
