package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	alarmapp "noc-console/internal/alarms/application"
	alarms "noc-console/internal/alarms/domain"
	alarmhttp "noc-console/internal/alarms/interfaces/http"
	alarmnotify "noc-console/internal/alarms/notify"
	"noc-console/internal/alarms/sla"
	"noc-console/internal/alarms/storm"
	"noc-console/internal/config"
	"noc-console/internal/feed"
	feedmock "noc-console/internal/feed/mock"
	feedpostgres "noc-console/internal/feed/postgres"
	feedredis "noc-console/internal/feed/redisstream"
	feedrest "noc-console/internal/feed/rest"
	"noc-console/internal/logger"
	"noc-console/internal/observability/metrics"
	"noc-console/internal/timemode"
	timemodehttp "noc-console/internal/timemode/interfaces/http"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", getenvDefault("NOC_CONFIG", "config.yaml"), "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "noc-console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	metrics.Init()

	broker := alarmhttp.NewSSEBroker()
	notifiers := []alarmapp.Notifier{broker}
	if cfg.Notify.WebhookURL != "" {
		channel, err := alarmnotify.NewWebhookChannel(cfg.Notify.WebhookURL)
		if err != nil {
			log.Fatal("webhook channel", zap.Error(err))
		}
		tpl, err := alarmnotify.NewTemplate("")
		if err != nil {
			log.Fatal("notification template", zap.Error(err))
		}
		opts := []alarmnotify.Option{}
		if cfg.Notify.MinSeverity != "" {
			opts = append(opts, alarmnotify.WithMinSeverity(alarms.Severity(cfg.Notify.MinSeverity)))
		}
		if cfg.Notify.DedupeWindowMinute > 0 {
			opts = append(opts, alarmnotify.WithDedupeWindow(time.Duration(cfg.Notify.DedupeWindowMinute)*time.Minute))
		}
		notifiers = append(notifiers, alarmnotify.NewNotifier(channel, tpl, log, opts...))
	}

	store := alarmapp.NewStore(log, alarmapp.WithNotifier(alarmnotify.NewMultiNotifier(notifiers...)))

	source, err := buildFeedSource(cfg, log)
	if err != nil {
		log.Fatal("feed source", zap.Error(err))
	}

	var history feed.HistoricalSource
	if cfg.Archive.Enabled {
		db, err := sql.Open("pgx", cfg.Archive.DSN)
		if err != nil {
			log.Fatal("archive open", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(context.Background()); err != nil {
			log.Fatal("archive ping", zap.Error(err))
		}
		history = feedpostgres.NewArchive(db)
	}

	controller := timemode.NewController(cfg.Refresh.Interval(), log)
	refresher := timemode.NewRefresher(controller, store, source, log)

	policy := sla.Policy{
		Critical: time.Duration(cfg.SLA.CriticalMinutes) * time.Minute,
		Major:    time.Duration(cfg.SLA.MajorMinutes) * time.Minute,
		Default:  time.Duration(cfg.SLA.DefaultMinutes) * time.Minute,
	}
	detector := storm.NewDetector(cfg.Storm.Threshold, cfg.Storm.Window())

	alarmHandler, err := alarmhttp.NewHandler(store, controller, policy, detector, systemClock{})
	if err != nil {
		log.Fatal("alarm handler", zap.Error(err))
	}
	modeHandler, err := timemodehttp.NewHandler(controller, history, log)
	if err != nil {
		log.Fatal("timemode handler", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/alarms", alarmHandler)
	mux.Handle("/api/v1/alarms/", alarmHandler)
	mux.Handle("/api/v1/alarms/stream", alarmhttp.NewStreamHandler(broker))
	mux.Handle("/api/v1/timemode", modeHandler)
	mux.Handle("/api/v1/timemode/", modeHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go refresher.Start(ctx)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, log)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("feed", cfg.Feed.Kind))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("http server", zap.Error(err))
	}
}

func buildFeedSource(cfg *config.Config, log *zap.Logger) (feed.Source, error) {
	switch cfg.Feed.Kind {
	case "mock":
		return feedmock.NewGenerator(feedmock.Options{
			Count:          cfg.Feed.Mock.Count,
			ForcedCritical: cfg.Feed.Mock.ForcedCritical,
			ForcedMajor:    cfg.Feed.Mock.ForcedMajor,
			Seed:           cfg.Feed.Mock.Seed,
		}), nil
	case "rest":
		timeout := time.Duration(cfg.Feed.REST.TimeoutSeconds) * time.Second
		return feedrest.NewClient(cfg.Feed.REST.BaseURL, timeout, log), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Feed.Redis.Addr,
			Password: cfg.Feed.Redis.Password,
			DB:       cfg.Feed.Redis.DB,
		})
		return feedredis.NewSource(client, cfg.Feed.Redis.Stream, cfg.Feed.Redis.MaxBatch, log), nil
	default:
		return nil, fmt.Errorf("unknown feed kind %q", cfg.Feed.Kind)
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", resp.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
