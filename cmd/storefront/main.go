package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"PartsShop/internal/catalog"
	"PartsShop/internal/config"
	"PartsShop/internal/session"
	"PartsShop/internal/storefront"
	"PartsShop/internal/upload"
	"PartsShop/pkg/kit"
)

func main() {
	service := "storefront"

	cfg, err := config.Load()
	if err != nil {
		log := kit.NewLogger(service, "info")
		log.Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.UsesDefaultSecret() {
		log.Warn("SESSION_SECRET is the development default; set it before exposing the admin panel")
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("open catalog store failed", zap.Error(err))
	}
	defer closeStore()

	admin, err := storefront.NewCredentials(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		log.Fatal("admin credentials", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.UploadDir(), 0o755); err != nil {
		log.Fatal("create upload dir failed", zap.Error(err), zap.String("dir", cfg.UploadDir()))
	}

	s := &storefront.Server{
		Catalog:    catalog.New(store, log),
		Sessions:   session.NewCookieCodec(cfg.SessionSecret, cfg.SecureCookie),
		Uploads:    upload.NewStore(cfg.UploadDir(), "/static/uploads", cfg.MaxUploadBytes),
		Admin:      admin,
		Render:     storefront.JSONRenderer{},
		Log:        log,
		Presets:    cfg.PresetCategories,
		SessionTTL: cfg.SessionTTL,
		StaticDir:  cfg.StaticDir,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:              log,
		Service:          service,
		Registry:         reg,
		MetricsEnabled:   cfg.MetricsEnabled,
		MetricsToken:     cfg.MetricsToken,
		LoginLimitPerMin: cfg.LoginRateLimit,
		TrustProxy:       cfg.TrustProxy,
	})

	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalog.Store, func(), error) {
	if !cfg.UsePostgres() {
		fs := catalog.NewFileStore(cfg.ProductsFile)
		log.Info("using file catalog", zap.String("path", fs.Path()))
		return fs, func() {}, nil
	}

	db, err := catalog.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	pg := catalog.NewPostgresStore(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	log.Info("using postgres catalog")
	return pg, func() { _ = db.Close() }, nil
}
