// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "print-bridge/docs"
	"print-bridge/internal/config"
	"print-bridge/internal/escpos"
	"print-bridge/internal/formatter"
	"print-bridge/internal/handler"
	"print-bridge/internal/printer"
	"print-bridge/internal/protocol"
	"print-bridge/internal/routes"
	"print-bridge/internal/service"
	"print-bridge/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	// Printing
	printerManager *printer.Manager
	formatter      *formatter.Formatter

	// Services
	printService     *service.PrintService
	discoveryService *service.DiscoveryService

	// Events
	eventBus  *handler.EventBus
	wsHandler *handler.WebSocketHandler
}

// @title Print Bridge API
// @version 1.0.0
// @description Local ESC/POS bridge that turns order, sale and image jobs into receipts

// @contact.name Print Bridge Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:12345
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, cfg.App.Name)
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	app.initializePrinter()
	app.initializeEvents()
	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializePrinter builds the transport, the serialized manager and the formatter.
// A bad printer section leaves the service up and answering 503 on print.
func (app *Application) initializePrinter() {
	transport, err := protocol.CreateProtocol(&app.config.Printer, app.logger)
	if err != nil {
		app.logger.Warn("Printer transport not configured, print jobs will be rejected",
			zap.String("connection_type", app.config.Printer.ConnectionType),
			zap.Error(err),
		)
	}

	app.printerManager = printer.NewManager(transport, &app.config.Printer, app.logger)

	text := escpos.NewTextEncoder(app.config.Printer.Codepages)
	app.formatter = formatter.NewFormatter(app.logger, text, formatter.OptionsFromConfig(&app.config.Printer))

	app.logger.Info("Printer initialized",
		zap.String("printer", app.printerManager.Describe()),
		zap.String("codepage", text.Name()),
	)
}

// initializeEvents starts the job event bus and the websocket fan-out
func (app *Application) initializeEvents() {
	app.eventBus = handler.NewEventBus(app.logger)
	go app.eventBus.Start()

	app.printerManager.OnEvent(app.eventBus.PrinterEvent)

	app.wsHandler = handler.NewWebSocketHandler(app.eventBus, app.config.Security.AllowedOrigins, app.logger)
	app.wsHandler.Start()
}

// initializeServices creates service instances
func (app *Application) initializeServices() {
	app.printService = service.NewPrintService(
		app.formatter,
		app.printerManager,
		app.eventBus,
		&app.config.Printer,
		app.logger,
	)

	app.discoveryService = service.NewDiscoveryService(&app.config.Discovery, app.logger)

	app.logger.Info("Services initialized successfully",
		zap.Strings("scanners", app.discoveryService.AvailableScanners()),
	)
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.printService,
		app.discoveryService,
		app.wsHandler,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()

	return nil
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Waits for an in-flight job before releasing the device
	if err := app.printerManager.Close(ctx); err != nil {
		app.logger.Error("Printer close error", zap.Error(err))
	} else {
		app.logger.Info("Printer released")
	}

	app.eventBus.Stop()
	select {
	case <-app.wsHandler.Done():
	case <-ctx.Done():
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
