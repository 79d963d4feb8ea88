package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spheresapp/sphere-server/internal/api"
	"github.com/spheresapp/sphere-server/internal/config"
	"github.com/spheresapp/sphere-server/internal/database"
	"github.com/spheresapp/sphere-server/internal/server"
	"github.com/spheresapp/sphere-server/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	// flags override environment, environment overrides .env
	godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("SPHERE_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", envOr("SPHERE_DSN", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&signingKey, "signing-key", os.Getenv("SPHERE_SIGNING_KEY"), "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	if len(allowedOrigins) == 0 {
		allowedOrigins = strings.Split(envOr("SPHERE_ALLOWED_ORIGINS", ""), ",")
	}
	// an unset env var or a trailing comma must not allow the "" origin
	allowedOrigins = slices.DeleteFunc(allowedOrigins, func(o string) bool { return o == "" })

	logger := log.New(os.Stderr, "[sphere] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgSphereRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.CreateSchema(); err != nil {
		logger.Fatal("create schema:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	gateway, err := server.NewGateway(logger, dbConn, statsUpdater)
	if err != nil {
		logger.Fatal("new gateway:", err)
	}

	srv := api.NewSphereApp(mux, logger, gateway, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go gateway.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down gateway...")
	if err := gateway.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("gateway shutdown:", err)
	}

	logger.Println("shutdown complete")
}
