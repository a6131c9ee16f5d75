package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart_greenhouse/internal/device"
	"smart_greenhouse/internal/handlers"
	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/metrics"
	"smart_greenhouse/internal/mqtt"
	"smart_greenhouse/internal/realtime"
	"smart_greenhouse/internal/repository"
	"smart_greenhouse/internal/repository/db"
	"smart_greenhouse/internal/server"
	"smart_greenhouse/internal/service"
	"smart_greenhouse/internal/timeseries"

	"github.com/spf13/viper"
)

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	hub := realtime.NewHub(log)
	m := metrics.New()
	mirror := timeseries.NewMirror(
		viper.GetString("influx.url"),
		viper.GetString("influx.token"),
		viper.GetString("influx.org"),
		viper.GetString("influx.bucket"),
		log,
	)
	defer mirror.Close()

	var predictor service.HealthPredictor
	if url := viper.GetString("predictor.url"); url != "" {
		predictor = service.NewHTTPPredictor(url, log)
	}

	services := service.NewService(service.Deps{
		Repos:        repos,
		DeviceClient: device.NewHTTPClient(),
		Hub:          hub,
		Metrics:      m,
		Mirror:       mirror,
		Predictor:    predictor,
		SigningKey:   viper.GetString("auth.signing_key"),
		Log:          log,
	})
	apiHandler := handlers.NewHandler(services, hub, m, log)

	// background loops: operation sweeper and device monitor
	sweeper := service.NewSweeper(repos.PumpOps, log)
	go sweeper.Run(ctx, viper.GetDuration("sweep_interval"))

	monitor := service.NewDeviceMonitor(repos.Devices, log)
	go monitor.Run(ctx, viper.GetDuration("device_monitor.interval"))

	// optional MQTT ingest bridge
	startMQTT(ctx, services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "greenhouse.db")
		dbPath = "greenhouse.db"
	}
	return db.InitDB(dbPath)
}

// startMQTT connects the broker bridge when configured; a missing broker is
// not fatal, devices can still POST over HTTP.
func startMQTT(ctx context.Context, services *service.Service, log *logger.Logger) {
	host := viper.GetString("mqtt.host")
	if host == "" {
		return
	}
	go func() {
		ing, err := mqtt.Connect(ctx, mqtt.Config{
			Host:     host,
			Port:     viper.GetInt("mqtt.port"),
			User:     viper.GetString("mqtt.user"),
			Password: viper.GetString("mqtt.password"),
			ClientID: viper.GetString("mqtt.client_id"),
		}, services.Ingestion, log)
		if err != nil {
			log.Errorw("mqtt bridge unavailable", "err", err)
			return
		}
		if err := ing.Run(ctx); err != nil {
			log.Errorw("mqtt bridge stopped", "err", err)
		}
	}()
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
