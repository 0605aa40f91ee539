package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"checkin/internal/activity"
	"checkin/internal/api"
	"checkin/internal/auth"
	"checkin/internal/backend"
	"checkin/internal/config"
	"checkin/internal/httpmiddleware"
	"checkin/internal/queue"
	"checkin/internal/store"
	"checkin/internal/student"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	set, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer set.Close()

	accounts, err := auth.ParseAccounts(cfg.StaffAccounts)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		log.Println("warning: STAFF_ACCOUNTS is empty, password login disabled")
	}

	// Without redis there is nowhere to keep the cached stats.
	var stats *store.StatsCache
	if cfg.QueueBackend == "memory" {
		stats = store.NewStatsCache(nil, cfg.StatsCacheTTL)
	} else {
		stats = store.NewStatsCache(set.Redis.Client, cfg.StatsCacheTTL)
	}

	svc := student.NewService(set.Students, backend.Photos(cfg),
		student.WithNotifier(student.Notifiers(queue.NewNotifier(set.Queue), stats)))

	// The memory queue only exists in this process, so drain it here.
	if _, ok := set.Queue.(*queue.InMemory); ok {
		messages, err := set.Queue.Consume(ctx)
		if err != nil {
			return err
		}
		go activity.NewWorker(set.Activity, stats).Run(ctx, messages)
		log.Println("activity worker running in-process")
	}

	verifiers := []auth.Verifier{auth.JWTVerifier{Key: cfg.JWTSigningKey, Issuer: cfg.JWTIssuer}}
	if set.Auth != nil {
		verifiers = append(verifiers, auth.FirebaseVerifier{Client: set.Auth})
	}

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitBackend == "redis" {
		limiter = httpmiddleware.NewRedisWindow(set.Redis.Client, cfg.RateLimitPerMin)
	} else {
		limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	r := api.NewRouter(api.Deps{
		Students:  svc,
		Activity:  set.Activity,
		Stats:     stats,
		Accounts:  accounts,
		Verifiers: verifiers,
		Tokens: api.TokenConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: cfg.JWTSigningKey,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
		Limiter:  limiter,
		Location: cfg.Location(),
		Health:   set.Health,
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (store=%s, queue=%s)", cfg.HTTPPort, cfg.StoreBackend, cfg.QueueBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
