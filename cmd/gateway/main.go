package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/sethvargo/go-envconfig"

	"github.com/dispatch-gateway/dispatch-gateway/api"
	"github.com/dispatch-gateway/dispatch-gateway/api/middlewares"
	"github.com/dispatch-gateway/dispatch-gateway/backend"
	"github.com/dispatch-gateway/dispatch-gateway/config"
	"github.com/dispatch-gateway/dispatch-gateway/gateway"
	l "github.com/dispatch-gateway/dispatch-gateway/logger"
	"github.com/dispatch-gateway/dispatch-gateway/otel"
)

func main() {
	var cfgTarget config.Config
	cfg, err := cfgTarget.Load(envconfig.OsLookuper())
	if err != nil {
		log.Printf("Config load error: %v", err)
		return
	}

	logger, err := l.NewLogger(cfg.Environment)
	if err != nil {
		log.Printf("Logger init error: %v", err)
		return
	}

	loggerMiddleware, err := middlewares.NewLoggerMiddleware(logger)
	if err != nil {
		logger.Error("Failed to initialize logger middleware", err)
		return
	}

	var telemetry otel.Telemetry
	if cfg.EnableTelemetry {
		telemetryImpl := &otel.TelemetryImpl{}
		if err := telemetryImpl.Init(cfg); err != nil {
			logger.Error("Telemetry init error", err)
			return
		}
		telemetry = telemetryImpl
	}

	telemetryMiddleware, err := middlewares.NewTelemetryMiddleware(cfg, telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry middleware", err)
		return
	}

	backendClient := backend.NewClient(cfg.Backend, logger)
	runtime := gateway.NewBackendRuntime(backendClient)

	registry := gateway.NewRegistry()
	gateway.RegisterBuiltins(registry, runtime, logger)

	// Fail fast before serving: every routed identifier must have a factory
	// and a backend-loadable agent. The two checks are deliberately separate
	// so operators can tell a misconfigured agent id apart from an
	// unreachable backend.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), cfg.Backend.RequestTimeout)
	defer startupCancel()
	for _, agentID := range cfg.Dispatch.AgentIDs {
		if _, err := registry.Resolve(agentID); err != nil {
			logger.Fatal("agent identifier has no registered executor", err, "agent_id", agentID)
		}
		if _, err := backendClient.LoadAgent(startupCtx, agentID); err != nil {
			if errors.Is(err, backend.ErrAgentNotFound) {
				logger.Fatal("backend runtime does not know this agent", err, "agent_id", agentID)
			}
			logger.Fatal("backend runtime unreachable during startup check", err, "agent_id", agentID)
		}
	}

	store := gateway.NewInMemoryTaskStore()
	router := api.NewRouter(cfg, logger, registry, store)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggerMiddleware.Middleware())
	if cfg.EnableTelemetry {
		engine.Use(telemetryMiddleware.Middleware())
	}

	if err := router.Mount(engine, cfg.Dispatch.AgentIDs); err != nil {
		logger.Fatal("failed to mount agent routes", err)
	}

	engine.GET("/health", router.HealthcheckHandler)
	if cfg.EnableTelemetry {
		engine.GET("/metrics", gin.WrapH(telemetry.Handler()))
	}
	engine.NoRoute(router.NotFoundHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Server.TLSCertPath != "" && cfg.Server.TLSKeyPath != "" {
		go func() {
			logger.Info("Starting Agent Dispatch Gateway with TLS",
				"port", cfg.Server.Port, "agents", cfg.Dispatch.AgentIDs)
			if err := server.ListenAndServeTLS(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath); err != nil && err != http.ErrServerClosed {
				logger.Error("ListenAndServeTLS error", err)
			}
		}()
	} else {
		go func() {
			logger.Info("Starting Agent Dispatch Gateway",
				"port", cfg.Server.Port, "agents", cfg.Dispatch.AgentIDs)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("ListenAndServe error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server Shutdown error", err)
	} else {
		logger.Info("Server gracefully stopped")
	}
}
