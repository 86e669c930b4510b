package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parcel-courier/internal/api"
	apimw "parcel-courier/internal/api/middleware"
	"parcel-courier/internal/config"
	"parcel-courier/internal/database"
	"parcel-courier/internal/logger"
	"parcel-courier/internal/modules/addresschange"
	"parcel-courier/internal/modules/pages"
	"parcel-courier/internal/modules/shipments"
	"parcel-courier/internal/modules/support"
	"parcel-courier/internal/modules/transit"
	"parcel-courier/internal/modules/user"
	"parcel-courier/internal/realtime"
	"parcel-courier/internal/storage"
	"parcel-courier/internal/store"
	"parcel-courier/internal/web"
	"parcel-courier/pkg/email"
	"parcel-courier/pkg/geocoding"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	// 2. --- Database Connection ---
	dbPool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		zl.Fatal("Unable to connect to the database", zap.Error(err))
	}
	defer dbPool.Close()
	if err := database.Migrate(ctx, dbPool); err != nil {
		zl.Fatal("Unable to apply the schema", zap.Error(err))
	}
	zl.Info("Successfully connected to the database")

	// 3. --- Infrastructure ---
	broker, err := newBroker(cfg.Broker, zl)
	if err != nil {
		zl.Fatal("Unable to connect to the broker", zap.Error(err))
	}
	defer broker.Close()

	shipmentBucket, supportBucket, err := newBuckets(ctx, cfg.Storage)
	if err != nil {
		zl.Fatal("Unable to set up object storage", zap.Error(err))
	}

	geocoder := geocoding.NewEnricher(
		geocoding.NewClient(cfg.Geocoding.BaseURL, cfg.Geocoding.Timeout),
		cfg.Geocoding.Concurrency,
		zl.Named("geocoding"),
	)

	notifier, err := newNotifier(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Unable to set up email notifications", zap.Error(err))
	}

	catalog, err := web.LoadCatalog()
	if err != nil {
		zl.Fatal("Unable to load translations", zap.Error(err))
	}
	renderer, err := web.NewRenderer(catalog)
	if err != nil {
		zl.Fatal("Unable to parse page templates", zap.Error(err))
	}

	// 4. --- Dependency Injection (Wiring everything up) ---
	// --- Shipments Module ---
	shipmentService := shipments.NewService(shipments.NewRepository(dbPool), shipmentBucket, geocoder, zl.Named("shipments"))

	// --- Transit Module ---
	transitService := transit.NewService(transit.NewRepository(dbPool), geocoder, zl.Named("transit"))

	// --- Address-Change Module ---
	addressService := addresschange.NewService(addresschange.NewRepository(dbPool), shipmentService, broker, zl.Named("addresschange"))
	addressSub, err := addressService.Start()
	if err != nil {
		zl.Fatal("Unable to subscribe to address-change events", zap.Error(err))
	}
	defer addressSub.Unsubscribe()

	hub := realtime.NewHub(zl.Named("hub"), cfg.Server.ClientOrigin)
	hubSub, err := broker.Subscribe(realtime.TopicAddressChangeRequest, realtime.All(hub.Forward))
	if err != nil {
		zl.Fatal("Unable to forward address-change events", zap.Error(err))
	}
	defer hubSub.Unsubscribe()

	// --- Support Module ---
	supportService := support.NewService(support.NewRepository(dbPool), supportBucket, notifier, zl.Named("support"))
	defer supportService.Wait()

	// --- User Module ---
	userService, err := user.NewService(cfg.Auth)
	if err != nil {
		zl.Fatal("Unable to set up admin login", zap.Error(err))
	}

	// --- Cache Refresher ---
	if cfg.Refresh.Schedule != "" {
		refresher := store.NewRefresher(zl.Named("refresher"), time.Minute,
			shipmentService, transitService, addressService, supportService)
		if err := refresher.Start(cfg.Refresh.Schedule); err != nil {
			zl.Fatal("Invalid refresh schedule", zap.String("schedule", cfg.Refresh.Schedule), zap.Error(err))
		}
		defer refresher.Stop()
	}

	// 5. --- Echo and Middleware ---
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(middleware.RequestID())
	e.Use(apimw.RequestLogger(zl.Named("http")))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("12M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Server.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(web.Localize(catalog))
	e.Use(apimw.LoadSession(cfg.Auth.JWTSecret, zl.Named("auth")))

	if cfg.Storage.Driver == "local" {
		e.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}

	// 6. --- Initialize Router ---
	api.SetupRoutes(e, api.Handlers{
		Pages:         pages.NewHandler(catalog, dbPool, cfg.Auth.CookieSecure, zl.Named("pages")),
		User:          user.NewHandler(userService, cfg.Auth.CookieSecure, zl.Named("user")),
		Shipments:     shipments.NewHandler(shipmentService, addressService, zl.Named("shipments")),
		Transit:       transit.NewHandler(transitService, zl.Named("transit")),
		AddressChange: addresschange.NewHandler(addressService, zl.Named("addresschange")),
		Support:       support.NewHandler(supportService, zl.Named("support")),
		Hub:           hub,
	})

	// 7. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Shutting down the server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	zl.Info("Server exiting")
}

func newBroker(cfg config.BrokerConfig, zl *zap.Logger) (realtime.Broker, error) {
	if cfg.URL == "" {
		zl.Info("Using the in-process broker")
		return realtime.NewLocalBroker(zl.Named("broker")), nil
	}
	return realtime.NewRabbitBroker(cfg.URL, zl.Named("broker"))
}

func newBuckets(ctx context.Context, cfg config.StorageConfig) (storage.Bucket, storage.Bucket, error) {
	if cfg.Driver == "s3" {
		client, err := storage.NewS3Client(ctx, cfg.Region)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewS3Bucket(client, cfg.ShipmentBucket, cfg.Region, cfg.PublicBaseURL),
			storage.NewS3Bucket(client, cfg.SupportBucket, cfg.Region, cfg.PublicBaseURL), nil
	}
	return storage.NewLocalBucket(cfg.LocalDir, cfg.ShipmentBucket, cfg.PublicBaseURL),
		storage.NewLocalBucket(cfg.LocalDir, cfg.SupportBucket, cfg.PublicBaseURL), nil
}

// newNotifier returns nil when no admin address is configured.
func newNotifier(ctx context.Context, cfg *config.Config, zl *zap.Logger) (support.Notifier, error) {
	if cfg.Email.AdminTo == "" {
		return nil, nil
	}
	sender, err := email.NewSESV2Sender(ctx, cfg.Email.Region, cfg.Email.From, zl.Named("email"))
	if err != nil {
		return nil, err
	}
	templates, err := email.NewTemplateManager()
	if err != nil {
		return nil, err
	}
	return email.NewSupportNotifier(sender, templates, cfg.Email.AdminTo, cfg.Server.ClientOrigin+"/customer-service"), nil
}
