package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/figure-editor/backend/internal/api"
	"github.com/figure-editor/backend/internal/config"
	"github.com/figure-editor/backend/internal/imagemeta"
	"github.com/figure-editor/backend/internal/session"
	"github.com/figure-editor/backend/internal/storage"
	"github.com/figure-editor/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(filepath.Dir(exePath), config.FileName)
	if p := os.Getenv("FIGURE_EDITOR_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.Storage.Backend, cfg.GetDataDir())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	images, imageSource, err := openImages(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize image metadata: %v\n", err)
		os.Exit(1)
	}

	sessionMgr := session.NewManager(session.Options{
		Store:          storage.Documents{Store: store},
		Images:         images,
		MaxSessions:    cfg.Editor.MaxSessions,
		ImageBaseURL:   strings.TrimSuffix(cfg.Images.ServiceURL, "/"),
		MaxImagePixels: cfg.Images.MaxPixels,
		SelectionDelay: time.Duration(cfg.Editor.SelectionDelayMs) * time.Millisecond,
		UndoDelay:      time.Duration(cfg.Editor.UndoDelayMs) * time.Millisecond,
	})
	defer sessionMgr.Shutdown()

	// Deferred selection notifications and undo bursts fall due on this tick
	go func() {
		ticker := time.NewTicker(time.Duration(max(cfg.Editor.TickMilliseconds, 1)) * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.Tick()
		}
	}()

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(max(cfg.Editor.CleanupIntervalMinutes, 1)) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOldSessions(time.Duration(cfg.Editor.SessionTimeoutMinutes) * time.Minute)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasSuffix(path, "/events")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.Advanced.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Advanced.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/events")
			},
		}))
	}

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 1 && origins[0] == "" {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.SetupMiddleware(e)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:               store,
		SessionMgr:          sessionMgr,
		Version:             Version,
		AllowFigureDeletion: cfg.Security.AllowFigureDeletion,
		WebSocketWriteWait:  time.Duration(cfg.Advanced.WebSocketWriteWaitMs) * time.Millisecond,
	}))

	mode := "API only"
	if frontend, ok := web.Frontend(); ok {
		web.RegisterStaticRoutes(e, frontend)
		mode = "Embedded frontend"
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Figure Editor Server                            ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Storage:   %-46s║\n", cfg.Storage.Backend+" @ "+cfg.GetDataDir())
	fmt.Printf("║  Images:    %-46s║\n", imageSource)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}

// openImages picks the image metadata source: a local catalog file when one
// is configured, otherwise the image service.
func openImages(cfg *config.AppConfig) (imagemeta.Provider, string, error) {
	if cfg.Images.CatalogFile != "" {
		catalog, err := imagemeta.LoadCatalog(cfg.Images.CatalogFile)
		if err != nil {
			return nil, "", err
		}
		return catalog, cfg.Images.CatalogFile, nil
	}
	timeout := time.Duration(cfg.Images.TimeoutSeconds) * time.Second
	return imagemeta.NewHTTPProvider(cfg.Images.ServiceURL, timeout), cfg.Images.ServiceURL, nil
}
