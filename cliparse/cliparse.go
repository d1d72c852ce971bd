package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	KMSProviderGCP    = "gcp"
	KMSProviderMemory = "memory"
)

type Config struct {
	Port         int
	AppEnv       string
	DatabaseURL  string
	DatabaseType string

	KMSProvider          string
	GCPProjectID         string
	GCPLocation          string
	GCPEncryptionKeyRing string
	GCPSigningKeyRing    string
	GCPClientEmail       string
	GCPPrivateKey        string

	BackofficeURL               string
	BallotCryptoToBackofficeKey string
	BackofficeToBallotCryptoKey string
	AdminKey                    string

	CountWorkers   int
	CountQueueSize int
}

// ParseFlags loads .env, parses flags, then fills the gaps from the environment.
// CLI flags win over env.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// A missing .env is fine, real deployments inject env directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	fs := flag.NewFlagSet("ballot-crypto", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.AppEnv, "env", "", "Application environment (development or production)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	fs.StringVar(&cfg.KMSProvider, "kms", "", "KMS provider (gcp or memory)")
	fs.StringVar(&cfg.BackofficeURL, "backoffice-url", "", "Base URL of the backoffice admin API")

	fs.IntVar(&cfg.CountWorkers, "workers", 0, "Number of concurrent counting jobs")
	fs.IntVar(&cfg.CountQueueSize, "queue-size", 0, "Maximum number of queued counting jobs")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.BackofficeToBallotCryptoKey, "inbound-key", "", "Backoffice to ballot-crypto key (prefer env)")
	fs.StringVar(&cfg.BallotCryptoToBackofficeKey, "outbound-key", "", "Ballot-crypto to backoffice key (prefer env)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Key administration secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 5000)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}

	fallback(&cfg.AppEnv, "APP_ENV", EnvProduction)
	if cfg.AppEnv != EnvDevelopment && cfg.AppEnv != EnvProduction {
		return Config{}, fmt.Errorf("invalid APP_ENV %q", cfg.AppEnv)
	}

	fallback(&cfg.DatabaseType, "DATABASE_TYPE", "sqlite")
	switch cfg.DatabaseType {
	case "sqlite":
		fallback(&cfg.DatabaseURL, "DATABASE_URL", "file:ballot-crypto.db")
	case "postgres":
		fallback(&cfg.DatabaseURL, "DATABASE_URL", "")
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("invalid DATABASE_TYPE %q", cfg.DatabaseType)
	}

	fallback(&cfg.KMSProvider, "KMS_PROVIDER", KMSProviderGCP)
	switch cfg.KMSProvider {
	case KMSProviderGCP:
		cfg.GCPProjectID = os.Getenv("GCP_PROJECT_ID")
		cfg.GCPLocation = os.Getenv("GCP_LOCATION")
		cfg.GCPEncryptionKeyRing = os.Getenv("GCP_ENCRYPTION_KEY_RING")
		cfg.GCPSigningKeyRing = os.Getenv("GCP_SIGNING_KEY_RING")
		cfg.GCPClientEmail = os.Getenv("GCP_CLIENT_EMAIL")
		cfg.GCPPrivateKey = os.Getenv("GCP_PRIVATE_KEY")

		for name, v := range map[string]string{
			"GCP_PROJECT_ID":          cfg.GCPProjectID,
			"GCP_LOCATION":            cfg.GCPLocation,
			"GCP_ENCRYPTION_KEY_RING": cfg.GCPEncryptionKeyRing,
			"GCP_SIGNING_KEY_RING":    cfg.GCPSigningKeyRing,
		} {
			if v == "" {
				return Config{}, fmt.Errorf("%s required", name)
			}
		}
		if cfg.GCPEncryptionKeyRing == cfg.GCPSigningKeyRing {
			return Config{}, errors.New("GCP_ENCRYPTION_KEY_RING and GCP_SIGNING_KEY_RING must differ")
		}
	case KMSProviderMemory:
		if cfg.AppEnv == EnvProduction {
			return Config{}, errors.New("memory KMS is not allowed in production")
		}
	default:
		return Config{}, fmt.Errorf("invalid KMS_PROVIDER %q", cfg.KMSProvider)
	}

	fallback(&cfg.BackofficeURL, "BACKOFFICE_URL", "")
	if cfg.BackofficeURL == "" {
		return Config{}, errors.New("BACKOFFICE_URL required")
	}

	if cfg.CountWorkers == 0 {
		n, err := envInt("COUNT_WORKERS", 2)
		if err != nil {
			return Config{}, err
		}
		cfg.CountWorkers = n
	}
	if cfg.CountQueueSize == 0 {
		n, err := envInt("COUNT_QUEUE_SIZE", 64)
		if err != nil {
			return Config{}, err
		}
		cfg.CountQueueSize = n
	}
	if cfg.CountWorkers < 1 || cfg.CountQueueSize < 1 {
		return Config{}, errors.New("COUNT_WORKERS and COUNT_QUEUE_SIZE must be positive")
	}

	// Secrets - MUST be provided
	fallback(&cfg.BackofficeToBallotCryptoKey, "BACKOFFICE_TO_BALLOT_CRYPTO_KEY", "")
	if cfg.BackofficeToBallotCryptoKey == "" {
		return Config{}, errors.New("BACKOFFICE_TO_BALLOT_CRYPTO_KEY required")
	}

	fallback(&cfg.BallotCryptoToBackofficeKey, "BALLOT_CRYPTO_TO_BACKOFFICE_KEY", "")
	if cfg.BallotCryptoToBackofficeKey == "" {
		return Config{}, errors.New("BALLOT_CRYPTO_TO_BACKOFFICE_KEY required")
	}

	fallback(&cfg.AdminKey, "BALLOT_CRYPTO_ADMIN_KEY", "")
	if cfg.AdminKey == "" {
		return Config{}, errors.New("BALLOT_CRYPTO_ADMIN_KEY required")
	}
	if cfg.AdminKey == cfg.BackofficeToBallotCryptoKey {
		return Config{}, errors.New("BALLOT_CRYPTO_ADMIN_KEY must differ from BACKOFFICE_TO_BALLOT_CRYPTO_KEY")
	}

	return cfg, nil
}

func fallback(dst *string, env, def string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
		return
	}
	*dst = def
}

func envInt(env string, def int) (int, error) {
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", env)
	}
	return n, nil
}
