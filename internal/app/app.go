// Package app wires the stop directory's components into a runnable HTTP
// application.
package app

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/banlingbo/comp9321/internal/config"
	"github.com/banlingbo/comp9321/internal/genai"
	"github.com/banlingbo/comp9321/internal/handler"
	"github.com/banlingbo/comp9321/internal/middleware"
	"github.com/banlingbo/comp9321/internal/service"
	"github.com/banlingbo/comp9321/internal/storage"
	"github.com/banlingbo/comp9321/internal/transit"
)

// requestDeadline bounds a single request end to end. The guide search
// issues O(n²) sequential upstream calls, so this is deliberately wide.
const requestDeadline = 120 * time.Second

// App holds the application-level dependencies.
type App struct {
	DB     *sqlx.DB
	Router *gin.Engine
	cfg    *config.Config
}

// New initializes the application: opens the SQLite store, applies the
// schema, wires all domain dependencies, and configures the HTTP engine
// with routes.
func New(cfg *config.Config) (*App, error) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	log.Printf("stop database ready at %s", cfg.DBPath)

	// --- Domain dependencies ---
	stopsRepo := storage.NewStopsRepository(db)

	transitClient := transit.NewCachedClient(
		transit.NewRESTClient(cfg.TransitBaseURL),
		transit.WithLogger(log.Printf),
	)
	generator := genai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL)

	stopsService := service.NewStopsService(transitClient, stopsRepo)
	profilesService := service.NewProfilesService(transitClient, generator)
	guideService := service.NewGuideService(transitClient, stopsRepo, generator, cfg.GuideDir)

	// --- HTTP engine ---
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.Deadline(requestDeadline))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := handler.New(stopsRepo, stopsService, profilesService, guideService)

	router.PUT("/stops", h.RegisterStops)
	router.GET("/stops/:id", h.GetStop)
	router.DELETE("/stops/:id", h.DeleteStop)
	router.PATCH("/stops/:id", h.PatchStop)
	router.GET("/operator-profiles/:id", h.OperatorProfiles)
	router.GET("/guide", h.Guide)

	return &App{
		DB:     db,
		Router: router,
		cfg:    cfg,
	}, nil
}

// Shutdown closes the database.
func (a *App) Shutdown() {
	if a.DB != nil {
		a.DB.Close()
		log.Println("stop database closed")
	}
}
