// In file: cmd/weather-assistant/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/dileep-u-k/weather-assistant/internal/assistant"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/logger"
	"github.com/dileep-u-k/weather-assistant/internal/metrics"
	"github.com/dileep-u-k/weather-assistant/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// main is the composition root: it loads configuration, builds every service,
// injects dependencies and starts the server.
func main() {
	bootLog := logger.NewStructured(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	loadDotEnv(bootLog)

	zl := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	defer func() { _ = zl.Sync() }()
	log := logger.NewZapAdapter(zl)

	buildInfo := GetBuildInfo()
	log.Info("Starting weather assistant", map[string]interface{}{"version": buildInfo.Version, "commit": buildInfo.GitCommit})

	// 1. LOAD CONFIGURATION
	cfg, err := LoadConfig(log)
	if err != nil {
		log.WithError(err).Error("Configuration error", nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. INITIALIZE SERVICES
	var profiler *llm.Profiler
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Error("Could not connect to Redis", map[string]interface{}{"addr": cfg.RedisAddr})
			os.Exit(1)
		}
		defer rdb.Close()
		profiler = llm.NewProfiler(rdb, log)
		log.Info("Usage profiling enabled", map[string]interface{}{"redis": cfg.RedisAddr})
	}

	clients, err := initializeLLMClients(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Could not create LLM clients", nil)
		os.Exit(1)
	}
	defer closeClients(clients, log)

	assistantOpts := []llm.AssistantOption{llm.WithLogger(log)}
	if profiler != nil {
		assistantOpts = append(assistantOpts, llm.WithUsageRecorder(profiler))
	}
	parser := llm.NewAssistant(clients[cfg.Extraction.Model], cfg.Extraction, assistantOpts...)
	summarizer := llm.NewAssistant(clients[cfg.Summary.Model], cfg.Summary, assistantOpts...)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Weather.UserAgent == weather.DefaultConfig().UserAgent {
		cfg.Weather.UserAgent = buildInfo.UserAgent()
	}
	weatherClient := weather.NewClient(cfg.Weather, weather.WithLogger(log))
	orchestrator := assistant.New(parser, weatherClient,
		assistant.WithSummarizer(summarizer),
		assistant.WithLocation(cfg.Location),
		assistant.WithMetrics(metrics.New(registry)),
		assistant.WithLogger(log),
	)

	var profiles ProfileReader
	if profiler != nil {
		profiles = profiler
	}
	handler := NewHandler(orchestrator, profiles, log)
	log.Info("All services initialized", map[string]interface{}{
		"model":         parser.Model(),
		"summary_model": summarizer.Model(),
		"timezone":      cfg.Location.String(),
	})

	// 3. START BACKGROUND PROCESSES
	if profiler != nil && cfg.HealthCheckInterval > 0 {
		go startHealthChecker(ctx, cfg.HealthCheckInterval, clients, profiler, log)
	}

	// 4. SETUP AND RUN THE WEB SERVER
	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := newRouter(handler, registry, log)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(ctx, srv, log)
}

// newRouter wires the HTTP routes.
func newRouter(h *Handler, gatherer prometheus.Gatherer, log logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/ask", h.HandleAsk)
		v1.GET("/models/:model/profile", h.HandleProfile)
	}
	engine.GET("/healthz", h.HandleHealth)
	engine.GET("/version", h.HandleVersion)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return engine
}

// initializeLLMClients creates one client per configured model.
func initializeLLMClients(ctx context.Context, cfg *AppConfig) (map[string]llm.LLMClient, error) {
	clients := make(map[string]llm.LLMClient)
	var httpOpts []llm.ClientOption
	if cfg.LLMTimeout > 0 {
		httpOpts = append(httpOpts, llm.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}))
	}
	for _, modelID := range []string{cfg.Extraction.Model, cfg.Summary.Model} {
		if _, ok := clients[modelID]; ok {
			continue
		}
		provider, err := providerFor(modelID)
		if err != nil {
			return nil, err
		}
		apiKey := cfg.APIKeys[provider]

		var client llm.LLMClient
		switch provider {
		case providerOpenAI:
			client, err = llm.NewOpenAIClient(apiKey, httpOpts...)
		case providerAnthropic:
			client, err = llm.NewAnthropicClient(apiKey, httpOpts...)
		case providerGemini:
			client, err = llm.NewGeminiClient(ctx, apiKey)
		case providerMistral:
			client, err = llm.NewMistralClient(apiKey, httpOpts...)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create client for %s: %w", modelID, err)
		}
		clients[modelID] = client
	}
	return clients, nil
}

// closeClients releases clients that hold connections, such as the Gemini SDK client.
func closeClients(clients map[string]llm.LLMClient, log logger.Logger) {
	for modelID, client := range clients {
		closer, ok := client.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("Failed to close LLM client", map[string]interface{}{"model": modelID})
		}
	}
}

// startHealthChecker periodically sends a tiny prompt to each model and records
// the outcome in the usage profile.
func startHealthChecker(ctx context.Context, interval time.Duration, clients map[string]llm.LLMClient, recorder llm.UsageRecorder, log logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Health checker started", map[string]interface{}{"interval": interval.String()})
	for {
		checkModels(ctx, clients, recorder, log)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func checkModels(ctx context.Context, clients map[string]llm.LLMClient, recorder llm.UsageRecorder, log logger.Logger) {
	for modelID, client := range clients {
		checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		start := time.Now()
		result, err := client.Generate(checkCtx,
			[]llm.Message{{Role: llm.RoleUser, Content: "Reply with the single word OK."}},
			&llm.GenerationConfig{Model: modelID, MaxTokens: 5},
			nil,
		)
		cancel()

		if err != nil {
			recorder.RecordFailure(ctx, modelID)
			log.WithError(err).Warn("Health check failed", map[string]interface{}{"model": modelID})
			continue
		}
		recorder.RecordSuccess(ctx, modelID, time.Since(start), result.Usage)
		log.Debug("Health check passed", map[string]interface{}{"model": modelID})
	}
}

// runServerWithGracefulShutdown serves until ctx is cancelled, then drains connections.
func runServerWithGracefulShutdown(ctx context.Context, srv *http.Server, log logger.Logger) {
	go func() {
		log.Info("Listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Listen error", nil)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed", nil)
		return
	}
	log.Info("Server exited gracefully", nil)
}
