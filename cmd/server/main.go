package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stickerlab/backend/internal/ai"
	"stickerlab/backend/internal/auth"
	"stickerlab/backend/internal/cache"
	"stickerlab/backend/internal/config"
	"stickerlab/backend/internal/database"
	"stickerlab/backend/internal/export"
	"stickerlab/backend/internal/games"
	"stickerlab/backend/internal/handler"
	"stickerlab/backend/internal/hub"
	"stickerlab/backend/internal/models"
	"stickerlab/backend/internal/store"
	"stickerlab/backend/internal/telemetry"
	"stickerlab/backend/web"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	// Swagger imports
	_ "stickerlab/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const serviceName = "stickerlab"

var configDir string

// @title           Sticker Lab API
// @version         1.0
// @description     Generate, share and export AI-made stickers.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	root := &cobra.Command{
		Use:           "stickerlab",
		Short:         "Sticker Lab web server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config", ".", "directory holding the .env file")
	root.AddCommand(serveCmd(), migrateCmd(), warmCacheCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configDir)
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			return database.Migrate(db)
		},
	}
}

func warmCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm-cache",
		Short: "Pre-render GIF exports of every Lottie sticker into Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configDir)
			if err != nil {
				return err
			}
			if cfg.RedisAddr == "" {
				return errors.New("REDIS_ADDR is not set")
			}
			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			ctx := cmd.Context()
			rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.DefaultTTL)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer rc.Close()

			return warmCache(ctx, store.NewGameStore(db), export.NewExporter(rc, cfg.ExportTimeout), cmd.OutOrStdout())
		},
	}
}

func warmCache(ctx context.Context, gs store.GameStore, exporter *export.Exporter, out io.Writer) error {
	all, err := gs.ListAllGames(ctx)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	var done, failed int
	for i := range all {
		game := &all[i]
		if game.ContentType != models.ContentTypeLottie {
			continue
		}
		if _, err := exporter.Export(ctx, game, export.FormatGIF); err != nil {
			log.Printf("warm-cache: %s: %v", game.ID, err)
			failed++
			continue
		}
		done++
	}
	fmt.Fprintf(out, "Rendered %d GIF exports, %d failed\n", done, failed)
	return nil
}

func serve(ctx context.Context) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	// A nil *RedisCache inside the interface would not compare equal to nil.
	var exportCache export.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.DefaultTTL)
		if err != nil {
			log.Printf("Warning: redis unavailable, exports will not be cached: %v", err)
		} else {
			defer rc.Close()
			exportCache = rc
		}
	}

	router := newRouter(cfg, db, exportCache)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Server is running on :%s\n", cfg.Port)
		fmt.Printf("Swagger UI is available at http://localhost:%s/swagger/index.html\n", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func newRouter(cfg *config.Config, db *gorm.DB, exportCache export.Cache) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	users := store.NewUserStore(db)
	gameStore := store.NewGameStore(db)
	generator := ai.NewOpenAIGenerator(ai.OpenAIConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	})
	feed := hub.NewHub()
	svc := games.NewService(users, gameStore, generator, feed)
	exporter := export.NewExporter(exportCache, cfg.ExportTimeout)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), telemetry.Middleware(nil))
	router.SetHTMLTemplate(web.Templates())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	handler.New(svc, users, exporter, feed, auth.NewMiddleware(cfg.JWTSecret, users), handler.Config{
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
	}).Register(router)

	return router
}
