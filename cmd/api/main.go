package main

import (
	"context"
	"log"

	"github.com/richmenu-studio/richmenu-backend/config"
	"github.com/richmenu-studio/richmenu-backend/internal/auth"
	"github.com/richmenu-studio/richmenu-backend/internal/bootstrap"
	"github.com/richmenu-studio/richmenu-backend/internal/storage/images"
)

const serviceName = "richmenu-backend"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	dbOpts := bootstrap.DBOptions{
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	}

	pool, err := bootstrap.OpenDB(ctx, dbOpts)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	sqlDB, err := bootstrap.OpenSQL(ctx, dbOpts)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	deps := bootstrap.RouterDeps{
		ServiceName: serviceName,
		Cfg:         cfg,
		DB:          pool,
		SQLDB:       sqlDB,
		Redis:       rdb,
	}

	if cfg.Firebase.CredentialsPath != "" {
		authClient, err := auth.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		deps.AuthClient = authClient
	} else {
		log.Println("firebase auth disabled, accepting X-User-Id header")
	}

	if cfg.S3.Bucket != "" {
		store, err := images.NewStore(ctx, cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			log.Fatalf("image store: %v", err)
		}
		deps.Blobs = store
	} else {
		log.Println("image store disabled, menus carry inline base64 images")
	}

	r := bootstrap.BuildRouter(deps)

	log.Printf("%s listening on :%s", serviceName, cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
