package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/tariffa/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	empty := writeFile(t, dir, "empty.env", "")

	convey.Convey("Given a config loader", t, func() {
		clearConfigEnv(empty)
		convey.Reset(func() { clearConfigEnv(empty) })

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.RateStore, convey.ShouldEqual, "memory")
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TARIFFA_ADDR", ":8080")
			_ = os.Setenv("TARIFFA_QUEUE_SIZE", "500")
			_ = os.Setenv("TARIFFA_WORKER_COUNT", "16")
			_ = os.Setenv("TARIFFA_RATE_CACHE_TTL", "30s")
			_ = os.Setenv("TARIFFA_POSTGRES_MIGRATE", "true")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
			convey.So(cfg.RateCacheTTL, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.PostgresMigrate, convey.ShouldBeTrue)
		})

		convey.Convey("When loading config with a YAML file", func() {
			_ = os.Setenv("TARIFFA_CONFIG", writeFile(t, dir, "config.yaml", `
addr: ":9090"
worker_count: 24
locale: it
rate_file: rates.yaml
quote_timeout: 2s
`))
			_ = os.Setenv("TARIFFA_WORKER_COUNT", "4")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.RateFile, convey.ShouldEqual, "rates.yaml")
			convey.So(cfg.QuoteTimeout, convey.ShouldEqual, 2*time.Second)
			// env wins over the file
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})

		convey.Convey("When a dotenv file sets values", func() {
			_ = os.Setenv("TARIFFA_DOTENV", writeFile(t, dir, "app.env", "TARIFFA_LOCALE=it\nTARIFFA_REDIS_ADDR=localhost:6379\n"))

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
		})

		convey.Convey("When the dotenv file named explicitly is missing", func() {
			_ = os.Setenv("TARIFFA_DOTENV", filepath.Join(dir, "missing.env"))

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, config.ErrDotenv), convey.ShouldBeTrue)
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("TARIFFA_CONFIG", filepath.Join(dir, "missing.yaml"))

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the result is invalid", func() {
			_ = os.Setenv("TARIFFA_RATE_STORE", "postgres")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

// clearConfigEnv drops every TARIFFA_ variable and points the dotenv loader at
// an empty file so a .env in the working directory cannot leak in.
func clearConfigEnv(dotenv string) {
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "TARIFFA_") {
			_ = os.Unsetenv(key)
		}
	}
	_ = os.Setenv("TARIFFA_DOTENV", dotenv)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
