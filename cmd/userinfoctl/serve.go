package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/goliatone/go-userinfo/components/userinfo"
	"github.com/goliatone/go-userinfo/components/userinfo/commands"
	"github.com/goliatone/go-userinfo/components/userinfo/gorouter"
	"github.com/goliatone/go-userinfo/components/userinfo/httpapi"
	"github.com/goliatone/go-userinfo/components/userinfo/queries"
	"github.com/goliatone/go-userinfo/pkg/activity"
	"github.com/goliatone/go-userinfo/pkg/activity/usersink"
	"github.com/goliatone/go-userinfo/pkg/goadmin"
	"github.com/goliatone/go-userinfo/pkg/logging"
	"github.com/goliatone/go-userinfo/pkg/search"
	"github.com/goliatone/go-userinfo/pkg/splunk"
	userinfopkg "github.com/goliatone/go-userinfo/pkg/userinfo"
)

type serveCmd struct {
	Config    string `type:"path" help:"Widget configuration file (YAML or JSON)."`
	EnvFile   string `default:".env" type:"path" help:"Optional dotenv file loaded before reading the environment."`
	Addr      string `default:":9876" help:"Listen address."`
	Transport string `default:"fiber" enum:"fiber,http" help:"HTTP stack: go-router on fiber, or net/http."`
	BasePath  string `default:"/admin" help:"Mount point for the user info routes."`
	Activity  bool   `help:"Record widget renders as activity entries in the log."`
}

func (cmd *serveCmd) Run(ctx context.Context) error {
	if err := godotenv.Load(cmd.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("userinfoctl: load %s: %w", cmd.EnvFile, err)
	}
	logger, err := logging.New(logging.FromEnv())
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	logger.Info("configuration loaded",
		zap.String("source", cfg.Source),
		zap.String("search_id", cfg.SearchID),
		zap.Bool("splunk", cfg.Splunk.Enabled()))

	runner, err := newRunner(cfg, logger)
	if err != nil {
		return err
	}
	manager := search.NewManager(cfg.SearchID,
		search.WithRunner(runner),
		search.WithQuery(cfg.Query),
		search.WithLogger(logger))
	defer manager.Close()

	registry, err := userinfo.NewRegistry()
	if err != nil {
		return err
	}
	if err := registry.Register(manager.ID(), manager); err != nil {
		return err
	}
	provider, err := registry.Resolve(cfg.SearchID)
	if err != nil {
		return err
	}

	var activityHooks activity.Hooks
	if cmd.Activity {
		activityHooks = append(activityHooks, usersink.Hook{Sink: logSink{logger: logger}})
	}
	activityCfg := activity.Config{Enabled: cmd.Activity}

	broadcast := userinfo.NewBroadcastHook()
	opts := userinfopkg.OptionsFromConfig(cfg, provider)
	opts.Telemetry = userinfo.LogTelemetry(logger)
	opts.Logger = logger
	opts.Hook = broadcast

	// the admin attaches its activity hook to the widget it builds
	admin, err := goadmin.New(goadmin.Config{
		EnableUserInfo: true,
		WidgetOptions:  &opts,
		BasePath:       cmd.BasePath,
		MenuBuilder:    logMenuBuilder{logger: logger},
		ActivityHooks:  activityHooks,
		ActivityConfig: activityCfg,
	})
	if err != nil {
		return err
	}
	widget := admin.Widget()
	if err := admin.Bootstrap(ctx); err != nil {
		return err
	}
	defer admin.Shutdown() //nolint:errcheck

	renderer, err := userinfo.NewTemplateRenderer()
	if err != nil {
		return err
	}
	controller := userinfo.NewController(userinfo.ControllerOptions{
		Source:    widget,
		Renderer:  renderer,
		StreamURL: cmd.BasePath + "/userinfo/ws",
	})
	executor := &httpapi.CommandExecutor{
		RerunCommander:  commands.NewRerunSearchCommand(manager, userinfo.LogTelemetry(logger)),
		SnapshotQuerier: queries.NewSnapshotQuery(widget),
	}

	if err := manager.Rerun(ctx); err != nil {
		return err
	}
	logger.Info("user info page ready", zap.String("url", "http://localhost"+cmd.Addr+cmd.BasePath+"/userinfo"))

	if cmd.Transport == "http" {
		return cmd.serveHTTP(ctx, logger, controller, executor, broadcast)
	}
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: controller,
		API:        executor,
		Broadcast:  broadcast,
		BasePath:   cmd.BasePath,
	}); err != nil {
		return err
	}
	return server.Serve(cmd.Addr)
}

func (cmd *serveCmd) loadConfig() (userinfo.Config, error) {
	if cmd.Config == "" {
		cfg := userinfo.DefaultConfig()
		cfg.Splunk = splunkFromEnv()
		return cfg, cfg.Validate(nil)
	}
	return userinfo.LoadConfigFile(cmd.Config, userinfo.NewJSONSchemaValidator())
}

// splunkFromEnv reads SPLUNK_* variables when no configuration file is given.
func splunkFromEnv() userinfo.SplunkConfig {
	return userinfo.SplunkConfig{
		BaseURL:      os.Getenv("SPLUNK_BASE_URL"),
		Token:        os.Getenv("SPLUNK_TOKEN"),
		Username:     os.Getenv("SPLUNK_USERNAME"),
		Password:     os.Getenv("SPLUNK_PASSWORD"),
		App:          os.Getenv("SPLUNK_APP"),
		Owner:        os.Getenv("SPLUNK_OWNER"),
		PollInterval: os.Getenv("SPLUNK_POLL_INTERVAL"),
	}
}

func newRunner(cfg userinfo.Config, logger *zap.Logger) (search.Runner, error) {
	if !cfg.Splunk.Enabled() {
		logger.Warn("splunk not configured, serving demo rows")
		return search.NewStaticRunner(demoResults()), nil
	}
	interval, err := cfg.Splunk.Interval()
	if err != nil {
		return nil, err
	}
	client, err := splunk.NewHTTPClient(splunk.HTTPConfig{
		BaseURL:  cfg.Splunk.BaseURL,
		Token:    cfg.Splunk.Token,
		Username: cfg.Splunk.Username,
		Password: cfg.Splunk.Password,
		App:      cfg.Splunk.App,
		Owner:    cfg.Splunk.Owner,
	})
	if err != nil {
		return nil, err
	}
	return splunk.NewRunner(client, interval, logger), nil
}

func (cmd *serveCmd) serveHTTP(ctx context.Context, logger *zap.Logger, controller *userinfo.Controller, executor httpapi.Executor, broadcast *userinfo.BroadcastHook) error {
	api := &httpapi.Handlers{Executor: executor}
	base := cmd.BasePath + "/userinfo"
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := controller.RenderTemplate(r.Context(), userinfo.ViewerContext{Locale: r.URL.Query().Get("locale")}, &buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("GET "+base+"/_snapshot", api.HandleSnapshot)
	mux.HandleFunc("POST "+base+"/rerun", api.HandleRerun)
	mux.HandleFunc("GET "+base+"/ws", broadcast.ServeWebSocket)
	mux.HandleFunc("GET "+base+"/events", broadcast.ServeSSE)

	server := &http.Server{Addr: cmd.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type logMenuBuilder struct {
	logger *zap.Logger
}

func (b logMenuBuilder) EnsureMenuItem(_ context.Context, menuCode string, item goadmin.MenuItem) error {
	b.logger.Info("menu item ensured",
		zap.String("menu", menuCode),
		zap.String("label", item.Label),
		zap.String("route", item.Route))
	return nil
}

type logSink struct {
	logger *zap.Logger
}

func (s logSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.logger.Info("activity",
		zap.String("verb", record.Verb),
		zap.String("object_type", record.ObjectType),
		zap.String("object_id", record.ObjectID),
		zap.String("channel", record.Channel),
		zap.Any("data", record.Data))
	return nil
}
