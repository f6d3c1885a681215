package bootstrap

import (
	"database/sql"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/richmenu-studio/richmenu-backend/config"
	httpapi "github.com/richmenu-studio/richmenu-backend/internal/api/http"
	"github.com/richmenu-studio/richmenu-backend/internal/api/http/middleware"
	"github.com/richmenu-studio/richmenu-backend/internal/auth"
	"github.com/richmenu-studio/richmenu-backend/internal/channel"
	"github.com/richmenu-studio/richmenu-backend/internal/drafts"
	publishhttp "github.com/richmenu-studio/richmenu-backend/internal/publish/http"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/line"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/repository"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/service"
	"github.com/richmenu-studio/richmenu-backend/internal/storage/images"
	"github.com/richmenu-studio/richmenu-backend/internal/users"
)

type RouterDeps struct {
	ServiceName string
	Cfg         *config.Config
	DB          *pgxpool.Pool
	SQLDB       *sql.DB
	Redis       *redis.Client
	// AuthClient is nil when Firebase is not configured; requests then fall
	// back to the X-User-Id development header.
	AuthClient *fbauth.Client
	// Blobs is nil when no S3 bucket is configured; image upload routes are
	// not registered in that case.
	Blobs images.Blobs
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(corsConfig(dep.Cfg.Server.CORSOrigins)))
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Cfg.App.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	userRepo := users.NewRepo(dep.DB)
	if dep.AuthClient != nil {
		api.Use(auth.FirebaseAuthMiddleware(dep.AuthClient))
	}
	api.Use(auth.WithUser(userRepo))

	channelSvc := channel.NewService(channel.NewRepo(dep.DB), dep.Cfg.Line.TokenURL)
	channel.NewHandler(channelSvc).Register(api)

	draftRepo := drafts.NewRepo(dep.DB)
	drafts.NewHandler(draftRepo).Register(api)

	if dep.Blobs != nil {
		images.NewHandler(dep.Blobs).Register(api)
	}

	lineClient := line.NewClient(dep.Cfg.Line.APIBase, dep.Cfg.Line.DataBase, dep.Cfg.Line.RatePerMin)
	jobRepo := repository.NewJobRepository(dep.SQLDB)
	versionRepo := repository.NewVersionRepository(dep.SQLDB)
	progressRepo := repository.NewProgressRepository(dep.Redis)

	publisher := service.NewPublishService(lineClient, jobRepo, versionRepo, progressRepo)
	publishhttp.New(publisher, jobRepo, versionRepo, channelSvc, draftRepo).Register(api)

	return r
}

func corsConfig(origins string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-Id", "X-User-Id", "X-User-Name")
	if origins == "" || origins == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = strings.Split(origins, ",")
	return cfg
}
