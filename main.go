package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripconsole/internal/auth"
	"tripconsole/internal/backend"
	"tripconsole/internal/blob"
	"tripconsole/internal/cache"
	intconfig "tripconsole/internal/config"
	"tripconsole/internal/db"
	router "tripconsole/internal/http"
	"tripconsole/internal/http/handlers"
	"tripconsole/internal/repositories"
	"tripconsole/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	conn := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := db.EnsureSchema(ctx, conn); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}
	cancel()

	if env.RedisAddr != "" {
		if err := cache.Init(env.RedisAddr, env.RedisPassword, env.RedisDB); err != nil {
			log.Printf("redis unavailable, caching disabled: %v", err)
		} else {
			defer cache.Close()
		}
	}

	blobs, err := newBlobStore(env)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	tokens := backend.NewSignedTokenSource(env.BackendSecret, env.BackendIssuer, env.BackendSubject, 0)
	client := backend.NewClient(env.BackendBaseURL, env.BackendTimeout, tokens)

	saveLogs := repositories.SaveLogRepository{DB: conn}
	presets := repositories.PresetRepository{DB: conn}
	console := &handlers.Console{
		Drawers:        services.NewDrawerRegistry(client, saveLogs, services.PresetService{Repo: presets}),
		Backend:        client,
		Probe:          client,
		Blobs:          blobs,
		UploadMaxBytes: env.UploadMaxBytes,
		Presets:        presets,
		Operators:      repositories.OperatorRepository{DB: conn},
		Tokens:         auth.NewIssuer(env.JWTSecret, env.JWTIssuer, env.JWTTTL),
		SaveLogs:       saveLogs,
	}

	// Router (Gin engine)
	r := router.NewRouter(env, console)
	handlers.SetRouter(r)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server running on http://localhost%s (blob=%s)", env.AppAddr, blobs.Driver())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	log.Println("Server stopped.")
}

func newBlobStore(env intconfig.Env) (blob.Store, error) {
	switch blob.Driver(env.BlobDriver) {
	case blob.DriverS3:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return blob.NewS3(ctx, blob.S3Config{
			Bucket:          env.S3Bucket,
			Region:          env.S3Region,
			Endpoint:        env.S3Endpoint,
			AccessKeyID:     env.S3AccessKeyID,
			SecretAccessKey: env.S3SecretAccessKey,
			PathStyle:       env.S3PathStyle,
			Prefix:          env.S3Prefix,
		})
	default:
		return blob.NewMemory(), nil
	}
}
