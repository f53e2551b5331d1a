// Command fskstreamd drives an SX127x FSK streaming transmitter: it runs the
// operator console on a serial port, pumps payload bytes into the radio FIFO,
// logs every transmission to sqlite, and serves a read-only status API.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/banshee-data/fskstream/internal/api"
	"github.com/banshee-data/fskstream/internal/config"
	"github.com/banshee-data/fskstream/internal/db"
	"github.com/banshee-data/fskstream/internal/display"
	"github.com/banshee-data/fskstream/internal/notify"
	"github.com/banshee-data/fskstream/internal/radio"
	"github.com/banshee-data/fskstream/internal/radio/sx127x"
	"github.com/banshee-data/fskstream/internal/serialio"
	"github.com/banshee-data/fskstream/internal/txctl"
	"github.com/banshee-data/fskstream/internal/version"
)

var (
	configPath  = pflag.String("config", "", "Path to YAML configuration file")
	mockMode    = pflag.Bool("mock", false, "Run against a mock radio with the console on stdin/stdout")
	listen      = pflag.String("listen", "", "HTTP listen address (overrides config)")
	serialPort  = pflag.String("serial-port", "", "Console serial port (overrides config)")
	dbPath      = pflag.String("db", "", "Transmission history database path (overrides config)")
	showVersion = pflag.Bool("version", false, "Print version and exit")
)

// stdioPort runs the console on the process's own stdin/stdout for --mock.
type stdioPort struct{}

func (stdioPort) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioPort) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioPort) Close() error                { return os.Stdin.Close() }

func main() {
	pflag.Parse()

	if *showVersion {
		fmt.Println("fskstreamd", version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load configuration", "err", err)
	}
	if *listen != "" {
		cfg.HTTP.Listen = *listen
	}
	if *serialPort != "" {
		cfg.Serial.Port = *serialPort
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}

	logger := newLogger(cfg.Log)
	logger.Info("starting fskstreamd", "version", version.String(), "mock", *mockMode)

	port, channel, disp, err := buildHardware(cfg, logger)
	if err != nil {
		logger.Fatal("failed to bring up hardware", "err", err)
	}
	defer port.Close()

	history, err := db.New(cfg.DB.Path, logger)
	if err != nil {
		logger.Fatal("failed to open transmission history", "path", cfg.DB.Path, "err", err)
	}
	defer history.Close()

	recorders := txctl.MultiRecorder{history}
	if cfg.MQTT.Broker != "" {
		pub, err := notify.New(cfg.MQTT.Broker, cfg.MQTT.TopicPrefix, cfg.MQTT.ClientID, logger)
		if err != nil {
			logger.Fatal("failed to connect to mqtt broker", "broker", cfg.MQTT.Broker, "err", err)
		}
		defer pub.Close()
		recorders = append(recorders, pub)
	}

	loop := txctl.New(txctl.Config{
		Radio:    channel,
		Display:  disp,
		Port:     port,
		FSK:      cfg.FSK(),
		Recorder: recorders,
		Log:      logger,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Init(); err != nil {
		logger.Error("radio initialization failed", "err", err)
		loop.Halt(ctx)
		os.Exit(1)
	}

	// Scheduler goroutine. Closing the port on shutdown unblocks a console
	// read in progress.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("scheduler stopped", "err", err)
			stop()
		}
		logger.Info("scheduler terminated")
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		port.Close()
	}()

	// HTTP server goroutine.
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		srv := api.NewServer(loop, history, logger)
		srv.AttachAdminRoutes(mux)
		mux.Handle("/api/", http.StripPrefix("/api", srv.ServeMux()))

		server := &http.Server{
			Addr:    cfg.HTTP.Listen,
			Handler: api.LoggingMiddleware(logger, mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("failed to start http server", "err", err)
			}
		}()
		logger.Info("http server listening", "addr", cfg.HTTP.Listen)

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
		logger.Info("http server stopped")
	}()

	wg.Wait()
	logger.Info("graceful shutdown complete")
}

// buildHardware opens the console port, the radio, and the display, real or
// mock per the --mock flag.
func buildHardware(cfg *config.Config, logger *log.Logger) (io.ReadWriteCloser, radio.Channel, display.Display, error) {
	if *mockMode {
		mock := radio.NewMockChannel()
		mock.ChunkSize = 32
		mock.RaiseOnStart = true
		return stdioPort{}, mock, &display.LogDisplay{Log: logger}, nil
	}

	port, err := serialio.Open(cfg.Serial.Port, cfg.Serial.Options)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open console port %s: %w", cfg.Serial.Port, err)
	}

	if _, err := host.Init(); err != nil {
		port.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	spiPort, err := spireg.Open(cfg.Radio.SPIPort)
	if err != nil {
		port.Close()
		return nil, nil, nil, fmt.Errorf("failed to open SPI port %q: %w", cfg.Radio.SPIPort, err)
	}
	dio1 := gpioreg.ByName(cfg.Radio.DIO1Pin)
	if dio1 == nil {
		port.Close()
		return nil, nil, nil, fmt.Errorf("unknown DIO1 pin %q", cfg.Radio.DIO1Pin)
	}

	channel, err := sx127x.New(spiPort, dio1, logger)
	if err != nil {
		port.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize SX127x: %w", err)
	}

	var disp display.Display = &display.LogDisplay{Log: logger}
	if cfg.Radio.Display {
		bus, err := i2creg.Open(cfg.Radio.I2CBus)
		if err != nil {
			port.Close()
			return nil, nil, nil, fmt.Errorf("failed to open I2C bus %q: %w", cfg.Radio.I2CBus, err)
		}
		disp, err = display.NewOLED(bus)
		if err != nil {
			port.Close()
			return nil, nil, nil, fmt.Errorf("failed to initialize OLED: %w", err)
		}
	}

	return port, channel, disp, nil
}

// newLogger builds the process logger, teeing to a rotated file when one is
// configured.
func newLogger(cfg config.LogConfig) *log.Logger {
	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		})
	}

	level := log.InfoLevel
	if cfg.Level != "" {
		if parsed, err := log.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}
