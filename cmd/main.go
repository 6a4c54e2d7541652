/**
 * @description
 * This is the main entry point for the escrow-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the chain clock client, message brokers, repositories, the core
 * application service, and the HTTP server. It wires everything together and
 * starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client for rate limiting.
 * - internal/api, internal/app, internal/config, internal/ledger, internal/store: Internal packages for the service.
 * - pkg/chainclient: Client for the chain node's tip endpoint.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/paylock/escrow-service/internal/api"
	"github.com/paylock/escrow-service/internal/app"
	"github.com/paylock/escrow-service/internal/config"
	"github.com/paylock/escrow-service/internal/domain"
	"github.com/paylock/escrow-service/internal/ledger"
	"github.com/paylock/escrow-service/internal/store"
	"github.com/paylock/escrow-service/pkg/chainclient"
	"github.com/paylock/escrow-service/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting escrow-service\" port=%s", cfg.ServerPort)

	// Establish the persistence layer. Without a DATABASE_URL the service runs on
	// in-memory storage, which is only suitable for local development.
	var (
		repository    store.Repository
		custodyLedger ledger.Ledger
	)
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"database url missing; using in-memory storage\" env=DATABASE_URL")
		repository = store.NewMemoryRepository()
		custodyLedger = ledger.NewMemoryLedger(nil)
	} else {
		poolConfig, parseErr := pgxpool.ParseConfig(cfg.DatabaseURL)
		if parseErr != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", parseErr)
		}

		poolConfig.MaxConns = 100
		poolConfig.MinConns = 20
		poolConfig.MaxConnLifetime = 30 * time.Minute
		poolConfig.MaxConnIdleTime = 5 * time.Minute

		// Disable prepared statement caching to prevent conflicts
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

		dbpool, poolErr := pgxpool.NewWithConfig(context.Background(), poolConfig)
		if poolErr != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", poolErr)
		}
		defer dbpool.Close()
		log.Println("level=info component=bootstrap msg=\"database connected\"")

		repository = store.NewPostgresRepository(dbpool)
		custodyLedger = ledger.NewPostgresLedger(dbpool)
	}

	// Initialize the RabbitMQ producer to publish lifecycle events. The service
	// only publishes, so a missing broker degrades to a no-op fallback.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
		producer = eventProducer
	}

	// Initialize the logical clock. Without a chain node the service falls back
	// to a wall-clock-derived height, which is only suitable for local development.
	var clock app.Clock
	if strings.TrimSpace(cfg.ChainAPIBaseURL) == "" {
		log.Printf("level=warn component=bootstrap msg=\"chain api url missing; using local clock\" block_interval_s=%d", cfg.LocalClockBlockInterval)
		clock = chainclient.NewLocalClock(0, time.Duration(cfg.LocalClockBlockInterval)*time.Second)
	} else {
		clock = chainclient.NewClient(cfg.ChainAPIBaseURL, cfg.ChainAPIKey)
	}

	var redisClient *redis.Client
	if cfg.ConfirmRateLimitPerMin > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; confirm rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; confirm rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; confirm rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the core application service with its dependencies.
	escrowService := app.NewService(
		repository,
		custodyLedger,
		clock,
		producer,
		cfg.CustodyPrincipal,
		cfg.PlatformPrincipal,
		domain.FeePolicy{Numerator: cfg.FeeRateNumerator, Denominator: cfg.FeeRateDenominator},
		cfg.CoolingPeriodBlocks,
	)
	if redisClient != nil {
		escrowService.SetConfirmRateLimiter(
			app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
			cfg.ConfirmRateLimitPerMin,
		)
	}

	// Initialize the API handlers.
	transferHandlers := api.NewTransferHandlers(escrowService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/transfers", api.TransferRoutes(transferHandlers, cfg.JWTSecret))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
