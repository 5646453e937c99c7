package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ask-api/internal/auth"
	"ask-api/internal/config"
	"ask-api/internal/gemini"
	"ask-api/internal/middleware"
	"ask-api/internal/routers"
	"ask-api/internal/shared"
	"ask-api/internal/usage"

	firebase "firebase.google.com/go/v4"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/manifold-inc/manifold-sdk/lib/eflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Flags / ENV Variables
	geminiAPIKey := flag.String("gemini-api-key", "", "Generative language API key")
	geminiModel := flag.String("gemini-model", shared.DefaultGeminiModel, "Generative language model")
	geminiBaseURL := flag.String("gemini-base-url", shared.DefaultGeminiBaseURL, "Generative language base url")
	firebaseCreds := flag.String("firebase-creds", "", "Service account credential json")
	dailyLimit := flag.Int64("daily-limit", shared.DailyLimit, "Requests per user per UTC day")
	store := flag.String("store", config.StoreFirestore, "Usage store: firestore, redis, mysql or memory")
	redisAddr := flag.String("redis-addr", "", "Redis host:port")
	dsn := flag.String("dsn", "", "Mysql DSN")
	metricsAPIKey := flag.String("metrics-api-key", "", "Metrics api key")
	port := flag.String("port", "8080", "Listen port")
	debug := flag.Bool("debug", false, "Debug enabled")

	err := eflag.SetFlagsFromEnvironment()
	if err != nil {
		panic(err)
	}
	flag.Parse()

	var logger *zap.Logger
	if !*debug {
		logger, err = zap.NewProduction()
		if err != nil {
			panic("Failed init logger")
		}
	}
	if *debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic("Failed init logger")
		}
	}
	log := logger.Sugar()
	defer func() {
		_ = log.Sync()
	}()

	cfg := config.New(config.Options{
		GeminiAPIKey:  *geminiAPIKey,
		GeminiModel:   *geminiModel,
		GeminiBaseURL: *geminiBaseURL,
		FirebaseCreds: *firebaseCreds,
		DailyLimit:    *dailyLimit,
		StoreBackend:  *store,
		RedisAddr:     *redisAddr,
		DSN:           *dsn,
		MetricsAPIKey: *metricsAPIKey,
		Port:          *port,
		Debug:         *debug,
	})

	// Load Redis connection, optional unless it backs the usage store
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: "",
			DB:       0,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			panic(fmt.Sprintf("failed ping to redis db: %s", err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
	}

	var (
		verifier  auth.Verifier
		usageRepo usage.Store
	)
	if cfg.Ready() {
		bctx := context.Background()
		app, err := firebase.NewApp(bctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsJSON(cfg.FirebaseCreds))
		if err != nil {
			panic(fmt.Sprintf("failed initializing firebase app: %s", err))
		}
		fv, err := auth.NewFirebaseVerifier(bctx, app)
		if err != nil {
			panic(fmt.Sprintf("failed initializing firebase auth: %s", err))
		}
		verifier = fv
		if redisClient != nil {
			verifier = auth.NewCachedVerifier(fv, redisClient, shared.VerifiedTokenCacheTTL, log)
		}

		usageRepo, err = newUsageStore(bctx, cfg, app, redisClient, log)
		if err != nil {
			panic(err)
		}
	} else {
		log.Errorw("Server is not configured correctly, /ask will answer 500", "error", cfg.Problems())
		usageRepo = usage.NewMemoryStore()
	}

	limiter := usage.NewLimiter(usageRepo, cfg.DailyLimit)
	model := gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)

	e := echo.New()
	e.HideBanner = true
	e.GET(("/ping"), func(c echo.Context) error {
		return c.String(200, "")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.MetricsAPIKey == "" {
				return c.String(404, "Not Found")
			}
			apiKey, err := shared.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return c.String(401, "Missing or invalid API key")
			}

			if apiKey != cfg.MetricsAPIKey {
				return c.String(401, "Unauthorized API key")
			}
			return next(c)
		}
	})
	base := e.Group("")
	base.Use(emw.CORS())
	base.Use(middleware.NewRecoverMiddleware(log))
	base.Use(middleware.NewTrackMiddleware(log))

	umw := middleware.NewUserMiddleware(cfg, verifier)
	routers.RegisterAskRoutes(base, umw, limiter, model)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shared.DefaultShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}

func newUsageStore(ctx context.Context, cfg *config.Config, app *firebase.App, redisClient *redis.Client, log *zap.SugaredLogger) (usage.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed initializing firestore client: %w", err)
		}
		log.Infow("Usage store ready", "store", cfg.StoreBackend, "project_id", cfg.ProjectID)
		return usage.NewFirestoreStore(client), nil
	case config.StoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("store %s requires -redis-addr", cfg.StoreBackend)
		}
		log.Infow("Usage store ready", "store", cfg.StoreBackend)
		return usage.NewRedisStore(redisClient), nil
	case config.StoreSQL:
		db, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed initializing sqlClient: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed ping to sql db: %w", err)
		}
		log.Infow("Usage store ready", "store", cfg.StoreBackend)
		return usage.NewSQLStore(db), nil
	case config.StoreMemory:
		log.Warnw("Usage store is in memory, counts reset on restart", "store", cfg.StoreBackend)
		return usage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.StoreBackend)
	}
}
