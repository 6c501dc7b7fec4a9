package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/connect-four-arena/api"
	"github.com/wricardo/connect-four-arena/game/bot"
	"github.com/wricardo/connect-four-arena/game/config"
	"github.com/wricardo/connect-four-arena/game/service"
	"github.com/wricardo/connect-four-arena/game/session"
	"github.com/wricardo/connect-four-arena/metrics"
	"github.com/wricardo/connect-four-arena/repositories/stats"
	"github.com/wricardo/connect-four-arena/transport/mcp"
	"github.com/wricardo/connect-four-arena/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

// app wires the game service to its transports and optional Redis stats
type app struct {
	settings *config.Settings
	logger   *zap.Logger
	registry *prometheus.Registry
	redis    *redis.Client
	service  *service.Service
	hub      *websocket.Hub
}

func newApp(settings *config.Settings, logger *zap.Logger) (*app, error) {
	a := &app{
		settings: settings,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.registry)

	store := session.NewStore(&session.Config{
		Logger: logger.Named("session"),
		Bot: &bot.Config{
			Depth:    settings.BotDepth,
			ThinkMin: settings.BotThinkMin.Std(),
			ThinkMax: settings.BotThinkMax.Std(),
			Logger:   logger.Named("bot"),
		},
	})

	a.hub = websocket.NewHub(logger.Named("websocket"), m)

	cfg := &service.Config{
		Store:          store,
		Notifier:       a.hub,
		Metrics:        m,
		Logger:         logger.Named("service"),
		FallbackDelay:  settings.FallbackDelay.Std(),
		SweepInterval:  settings.SweepInterval.Std(),
		AbandonTimeout: settings.AbandonTimeout.Std(),
		Retention:      settings.Retention.Std(),
		PoolSize:       settings.PoolSize,
	}

	if settings.RedisAddr != "" {
		repo, err := a.connectStats()
		if err != nil {
			// games still run; stats endpoints report unavailable
			logger.Warn("stats persistence disabled", zap.String("redis_addr", settings.RedisAddr), zap.Error(err))
		} else {
			cfg.Recorder = repo
		}
	}

	svc, err := service.NewGameService(cfg)
	if err != nil {
		a.close()
		return nil, errors.Wrap(err, "failed to create game service")
	}
	a.service = svc
	a.hub.SetHandler(svc)

	return a, nil
}

func (a *app) connectStats() (*stats.RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     a.settings.RedisAddr,
		Password: a.settings.RedisPassword,
		DB:       a.settings.RedisDB,
	})

	repo, err := stats.NewRedis(&stats.Config{
		RedisClient: client,
		Logger:      a.logger.Named("stats"),
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	a.redis = client
	return repo, nil
}

// start runs the hub and the sweeper until ctx is done
func (a *app) start(ctx context.Context) {
	go a.hub.Run(ctx)
	go a.service.Run(ctx)
}

// handler mounts the API at root and the MCP endpoint at /mcp
func (a *app) handler(mcpClient *mcp.Client) http.Handler {
	apiServer := api.NewServer(a.service, a.hub,
		api.WithLogger(a.logger.Named("api")),
		api.WithGatherer(a.registry),
	)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	if mcpClient != nil {
		mux.Handle("/mcp", mcpHandler(mcpClient, a.logger))
	}
	return mux
}

func (a *app) close() {
	if a.service != nil {
		a.service.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}

// mcpHandler serves single JSON-RPC messages over HTTP POST
func mcpHandler(client *mcp.Client, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)
		if response == nil {
			// notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		data, err := json.Marshal(response)
		if err != nil {
			logger.Error("failed to marshal mcp response", zap.Error(err))
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

// runServe runs the HTTP server until the context is cancelled, optionally
// mirrored through an ngrok tunnel
func runServe(ctx context.Context, cmd *cli.Command) error {
	settings, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(settings, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.start(ctx)

	addr := settings.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", loopbackAddr(addr)))
	handler := a.handler(mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("version", Version),
			zap.Bool("stats", a.redis != nil))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "HTTP server failed")
			cancel()
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler, logger)
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler, logger *zap.Logger) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	logger.Info("ngrok tunnel established", zap.String("url", tun.URL()))

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
}

// runMCP serves MCP over stdio. It proxies to --api-url when that answers
// and otherwise starts an internal API on a loopback port.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	settings, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	baseURL := cmd.String("api-url")
	if !apiAvailable(baseURL) {
		logger.Info("no API server answering, starting internal server", zap.String("api_url", baseURL))

		a, err := newApp(settings, logger)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		a.start(ctx)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return errors.Wrap(err, "failed to listen for internal server")
		}

		internal := &http.Server{Handler: a.handler(nil)}
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer internal.Close()

		baseURL = "http://" + listener.Addr().String()
	}

	logger.Info("MCP stdio server ready", zap.String("api_url", baseURL))

	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return errors.Wrap(err, "MCP stdio server error")
	}
	return nil
}

func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// loopbackAddr turns a wildcard listen address into one the process can dial
func loopbackAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
