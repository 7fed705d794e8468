package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puntoclub-labs/canje-service/internal/api"
	"github.com/puntoclub-labs/canje-service/internal/backend"
	"github.com/puntoclub-labs/canje-service/internal/cache"
	"github.com/puntoclub-labs/canje-service/internal/config"
	"github.com/puntoclub-labs/canje-service/internal/services"
	"github.com/sirupsen/logrus"
)

func main() {
	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Configurar logging
	logger := setupLogger(cfg)
	logger.Info("Starting canje-service...")

	// Configurar modo de Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Elegir el store de la caché de consultas: Redis si está configurado,
	// memoria del proceso si no
	var store cache.Store = cache.NewMemoriaStore()
	if cfg.RedisHabilitado() {
		redisStore, err := cache.ConnectRedis(cfg)
		if err != nil {
			logger.Warnf("Error connecting to Redis, falling back to in-memory cache: %v", err)
		} else {
			defer redisStore.Close()
			store = redisStore
			logger.Info("Query cache backed by Redis")
		}
	}
	consultas := cache.NewConsultas(store, cfg.Cache.TTL, logger)

	// Cliente HTTP del backend de fidelización
	cliente := backend.NewHTTPClient(&cfg.Backend, logger)

	// Inicializar servicios
	canjeService := services.NewCanjeService(cliente, consultas, logger, cfg.Transaccion.DetalleErrores)
	cuponService := services.NewCuponService(cliente, consultas, logger)

	// Inicializar API
	apiHandler := api.NewAPI(canjeService, cuponService, logger)

	// Configurar router
	router := setupRouter(apiHandler, cfg)

	// Crear servidor HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Canal para señales de terminación
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Iniciar servidor en goroutine
	go func() {
		logger.Infof("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	// Esperar señal de terminación
	<-quit
	logger.Info("Shutting down server...")

	// Contexto con timeout para shutdown graceful
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown graceful del servidor
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configura el logger según la configuración
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	// Configurar nivel de log
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Configurar formato
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// setupRouter configura el router principal
func setupRouter(apiHandler *api.API, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Middleware global
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Middleware de CORS para desarrollo
	if cfg.IsDevelopment() {
		router.Use(func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-API-Key")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}

			c.Next()
		})
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "canje-service",
			"version":   "1.0.0",
		})
	})

	// API v1
	v1 := router.Group("/v1")
	{
		// Historiales unificados
		v1.GET("/canjes", apiHandler.GetCanjes)
		v1.GET("/cupones", apiHandler.GetCupones)
		v1.GET("/tarjetas/:id/historial", apiHandler.GetHistorialTarjeta)

		// Transacción de canje en dos fases
		v1.POST("/canjes/validar", apiHandler.ValidarCanje)
		v1.POST("/canjes/confirmar", apiHandler.ConfirmarCanje)
		v1.POST("/canjes/cancelar", apiHandler.CancelarCanje)

		// Canje directo de códigos de puntos
		v1.POST("/canjes/puntos", apiHandler.CanjearPuntos)

		// Gestión de cupones
		v1.POST("/cupones/promocionales", apiHandler.CrearCuponPromocional)
		v1.POST("/cupones/puntos", apiHandler.CrearCuponPuntos)
		v1.PUT("/cupones/estado", apiHandler.ActualizarEstadoCupon)
	}

	return router
}
