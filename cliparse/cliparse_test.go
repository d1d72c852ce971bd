// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("KMS_PROVIDER", "memory")
	t.Setenv("BACKOFFICE_URL", "http://backoffice.test/admin")
	t.Setenv("BACKOFFICE_TO_BALLOT_CRYPTO_KEY", "inbound")
	t.Setenv("BALLOT_CRYPTO_TO_BACKOFFICE_KEY", "outbound")
	t.Setenv("BALLOT_CRYPTO_ADMIN_KEY", "admin")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("COUNT_WORKERS", "4")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.CountWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.CountWorkers)
	}
	if cfg.CountQueueSize != 64 {
		t.Errorf("expected default queue size 64, got %d", cfg.CountQueueSize)
	}
	if cfg.DatabaseType != "sqlite" || cfg.DatabaseURL != "file:ballot-crypto.db" {
		t.Errorf("unexpected database defaults: %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-admin-key", "cli-admin"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.AdminKey != "cli-admin" {
		t.Errorf("CLI should override env: expected cli-admin, got %s", cfg.AdminKey)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	for _, env := range []string{
		"BACKOFFICE_TO_BALLOT_CRYPTO_KEY",
		"BALLOT_CRYPTO_TO_BACKOFFICE_KEY",
		"BALLOT_CRYPTO_ADMIN_KEY",
		"BACKOFFICE_URL",
	} {
		t.Run(env, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(env, "")

			if _, err := ParseFlags([]string{}); err == nil {
				t.Errorf("expected error when %s is missing", env)
			}
		})
	}
}

func TestParseFlags_AdminKeyMustDiffer(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BALLOT_CRYPTO_ADMIN_KEY", "inbound")

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when admin and inbound keys are equal")
	}
}

func TestParseFlags_MemoryKMSRejectedInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected memory KMS to be rejected in production")
	}
}

func TestParseFlags_GCPRequiresKeyRings(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KMS_PROVIDER", "gcp")
	t.Setenv("GCP_PROJECT_ID", "pple")
	t.Setenv("GCP_LOCATION", "asia-southeast1")
	t.Setenv("GCP_ENCRYPTION_KEY_RING", "")
	t.Setenv("GCP_SIGNING_KEY_RING", "signing")

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when GCP_ENCRYPTION_KEY_RING is missing")
	}

	t.Setenv("GCP_ENCRYPTION_KEY_RING", "encryption")
	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GCPSigningKeyRing != "signing" || cfg.GCPEncryptionKeyRing != "encryption" {
		t.Errorf("unexpected key rings: %+v", cfg)
	}
}

func TestParseFlags_LoadsDotEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BALLOT_CRYPTO_ADMIN_KEY", "")
	// Clear it for real so godotenv is allowed to set it
	os.Unsetenv("BALLOT_CRYPTO_ADMIN_KEY")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BALLOT_CRYPTO_ADMIN_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("BALLOT_CRYPTO_ADMIN_KEY") })

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AdminKey != "from-dotenv" {
		t.Errorf("expected admin key from .env, got %q", cfg.AdminKey)
	}
}
