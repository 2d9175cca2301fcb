package root

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/stiffy-wanderers/internal/api/http"
	"github.com/i474232898/stiffy-wanderers/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the refresh scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, cleanup, err := openApp(context.Background())
			if err != nil {
				return err
			}
			defer cleanup()

			// Scheduler that periodically refreshes location and weather.
			sched := scheduler.New(a.Refresher, cfg.RefreshInterval, cfg.HTTPTimeout*3, cfg.Location)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			app := fiber.New(fiber.Config{
				AppName:               "stiffy-wanderers",
				DisableStartupMessage: true,
				ReadTimeout:           10 * time.Second,
				WriteTimeout:          cfg.HTTPTimeout * 4,
				ErrorHandler: func(c *fiber.Ctx, err error) error {
					// Centralized error response
					code := fiber.StatusInternalServerError
					var e *fiber.Error
					if errors.As(err, &e) {
						code = e.Code
					}
					return c.Status(code).JSON(fiber.Map{
						"error":   true,
						"message": err.Error(),
					})
				},
			})

			app.Use(logger.New())
			app.Use(recover.New())

			httpapi.RegisterRoutes(app, httpapi.Deps{
				Engine:    a.Engine,
				Refresher: a.Refresher,
				Device:    a.Device,
				Weather:   a.Weather,
				Overlays:  a.Overlays,
			})

			go func() {
				log.Printf("INFO: listening on :%s", cfg.Port)
				if err := app.Listen(":" + cfg.Port); err != nil {
					log.Printf("fiber server stopped: %v", err)
				}
			}()

			// Wait for termination signal
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Printf("error during shutdown: %v", err)
			}
			return nil
		},
	}

	return cmd
}
