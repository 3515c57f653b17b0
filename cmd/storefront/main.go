package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	storefront "github.com/goliatone/go-storefront"
	"github.com/goliatone/go-storefront/assets"
	"github.com/goliatone/go-storefront/assets/provider/s3store"
	"github.com/goliatone/go-storefront/catalog"
	"github.com/goliatone/go-storefront/provider/google"
	"github.com/goliatone/go-storefront/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"

	"github.com/golang-jwt/jwt/v5"
)

// AppConfig is env-driven; every knob has a development default so the server
// boots with nothing but GOOGLE_CLIENT_ID set.
type AppConfig struct {
	SigningKey        string
	ContextKey        string
	TokenExpiration   int
	RefreshExpiration int
	Issuer            string
	Audience          []string

	DSN            string
	ListenAddr     string
	GoogleClientID string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string
}

var _ storefront.Config = (*AppConfig)(nil)

func (c *AppConfig) GetSigningKey() string     { return c.SigningKey }
func (c *AppConfig) GetContextKey() string     { return c.ContextKey }
func (c *AppConfig) GetTokenExpiration() int   { return c.TokenExpiration }
func (c *AppConfig) GetRefreshExpiration() int { return c.RefreshExpiration }
func (c *AppConfig) GetIssuer() string         { return c.Issuer }
func (c *AppConfig) GetAudience() []string     { return c.Audience }

func loadConfig() *AppConfig {
	return &AppConfig{
		SigningKey:        envStr("STOREFRONT_SIGNING_KEY", "dev-signing-key-change-me"),
		ContextKey:        envStr("STOREFRONT_CONTEXT_KEY", "user"),
		TokenExpiration:   envInt("STOREFRONT_TOKEN_EXPIRATION_HOURS", 24),
		RefreshExpiration: envInt("STOREFRONT_REFRESH_EXPIRATION_HOURS", 24*30),
		Issuer:            envStr("STOREFRONT_ISSUER", "go-storefront"),
		Audience:          envList("STOREFRONT_AUDIENCE", "storefront-api"),
		DSN:               envStr("STOREFRONT_DSN", "file:storefront.db?cache=shared"),
		ListenAddr:        envStr("STOREFRONT_LISTEN_ADDR", ":8572"),
		GoogleClientID:    envStr("GOOGLE_CLIENT_ID", ""),
		S3Endpoint:        envStr("STOREFRONT_S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:       envStr("STOREFRONT_S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:       envStr("STOREFRONT_S3_SECRET_KEY", "minioadmin"),
		S3Bucket:          envStr("STOREFRONT_S3_BUCKET", "storefront"),
		S3UseSSL:          envBool("STOREFRONT_S3_USE_SSL", false),
		S3PublicURL:       envStr("STOREFRONT_S3_PUBLIC_URL", "http://localhost:9000/storefront/"),
	}
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("storefront"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := loadConfig()
	ctx := context.Background()

	appLogger := glogAdapter{lgr: lgr.GetLogger("app")}

	db, err := openDatabase(ctx, cfg, glogAdapter{lgr: lgr.GetLogger("persistence")})
	if err != nil {
		panic(err)
	}

	users := storefront.NewUsersRepository(db)
	repo := repository.NewManager(db)
	repo.MustValidate()

	verifier, err := google.NewVerifier(ctx, google.Config{ClientID: cfg.GoogleClientID})
	if err != nil {
		panic(err)
	}

	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		UseSSL:        cfg.S3UseSSL,
		PublicBaseURL: cfg.S3PublicURL,
	})
	if err != nil {
		panic(err)
	}

	coordinator := assets.NewCoordinator(store, glogAdapter{lgr: lgr.GetLogger("assets")})

	tokens := storefront.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetRefreshExpiration(),
		cfg.GetIssuer(),
		jwt.ClaimStrings(cfg.GetAudience()),
		appLogger,
	)

	guard := storefront.NewGuard()
	reconciler := storefront.NewReconciler(users, appLogger)
	roles := storefront.NewRoleManager(users, guard, appLogger)

	auther, err := storefront.NewHTTPAuthenticator(tokens, guard, cfg)
	if err != nil {
		panic(err)
	}
	auther.Logger = appLogger

	authController := storefront.NewAuthController(
		storefront.WithVerifier(verifier),
		storefront.WithReconciler(reconciler),
		storefront.WithTokens(tokens),
		storefront.WithRoles(roles),
		storefront.WithUsers(users),
		storefront.WithCoordinator(coordinator),
		storefront.WithAuther(auther),
		storefront.WithControllerLogger(appLogger),
	)

	catalogController := catalog.NewController(
		catalog.WithRepo(repo),
		catalog.WithCoordinator(coordinator),
		catalog.WithAuther(auther),
		catalog.WithLogger(appLogger),
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))

	authController.RegisterRoutes(srv.Router())
	catalogController.RegisterRoutes(srv.Router())

	appLogger.Info("listening on %s", cfg.ListenAddr)

	srv.Serve(cfg.ListenAddr)

	WaitExitSignal()
}

func openDatabase(ctx context.Context, cfg *AppConfig, logger storefront.Logger) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	migrationsFS, err := fs.Sub(storefront.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(migrationsFS); err != nil {
		return nil, fmt.Errorf("discover migrations: %w", err)
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if group.IsZero() {
		logger.Info("database schema up to date")
	} else {
		logger.Info("migrated to %s", group)
	}

	return db, nil
}

// glogAdapter maps the root package's printf logger onto glog.
type glogAdapter struct {
	lgr glog.Logger
}

func (a glogAdapter) Debug(format string, args ...any) { a.lgr.Debug(fmt.Sprintf(format, args...)) }
func (a glogAdapter) Info(format string, args ...any)  { a.lgr.Info(fmt.Sprintf(format, args...)) }
func (a glogAdapter) Warn(format string, args ...any)  { a.lgr.Warn(fmt.Sprintf(format, args...)) }
func (a glogAdapter) Error(format string, args ...any) { a.lgr.Error(fmt.Sprintf(format, args...)) }

func WaitExitSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envList(key, def string) []string {
	raw := envStr(key, def)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
