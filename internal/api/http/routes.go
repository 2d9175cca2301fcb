package httpapi

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/stiffy-wanderers/internal/location"
	"github.com/i474232898/stiffy-wanderers/internal/presentation"
	"github.com/i474232898/stiffy-wanderers/internal/progress"
	"github.com/i474232898/stiffy-wanderers/internal/refresh"
	"github.com/i474232898/stiffy-wanderers/internal/weather"
)

var validate = validator.New()

// Deps are the components the HTTP surface drives.
type Deps struct {
	Engine    *progress.Engine
	Refresher *refresh.Refresher
	Device    *location.DeviceProvider
	Weather   *weather.Service
	Overlays  *presentation.Coordinator
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "stiffy-wanderers",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/progress", func(c *fiber.Ctx) error {
		st, err := d.Engine.Status(c.UserContext())
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{
			"progress": st,
			"overlay":  d.Overlays.Current(st.Value),
		})
	})

	v1.Post("/actions/:action", func(c *fiber.Ctx) error {
		a, err := progress.ParseAction(c.Params("action"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		out, err := d.Engine.PressAction(c.UserContext(), a)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{
			"action":  a,
			"outcome": out,
			"overlay": d.Overlays.Current(out.Value),
		})
	})

	v1.Post("/location", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		if err := req.validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if req.Denied {
			d.Device.Deny()
		} else if err := d.Device.Report(req.coordinate()); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return runRefresh(c, d)
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		return runRefresh(c, d)
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		return c.JSON(d.Weather.Report(c.UserContext()))
	})

	v1.Get("/overlay", func(c *fiber.Ctx) error {
		return c.JSON(d.Overlays.Current(d.Engine.Value()))
	})

	v1.Post("/overlay/:kind/dismiss", func(c *fiber.Ctx) error {
		o, err := presentation.ParseOverlay(c.Params("kind"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		dismissed := d.Overlays.Dismiss(o)
		return c.JSON(fiber.Map{
			"dismissed": dismissed,
			"overlay":   d.Overlays.Current(d.Engine.Value()),
		})
	})

	v1.Post("/reset", func(c *fiber.Ctx) error {
		if err := d.Engine.Reset(c.UserContext()); err != nil {
			return storeError(err)
		}
		st, err := d.Engine.Status(c.UserContext())
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"progress": st})
	})
}

func runRefresh(c *fiber.Ctx, d Deps) error {
	res, err := d.Refresher.Refresh(c.UserContext())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fiber.NewError(fiber.StatusGatewayTimeout, "refresh cancelled")
		}
		return storeError(err)
	}
	return c.JSON(fiber.Map{
		"refresh": res,
		"weather": d.Weather.Report(c.UserContext()),
		"overlay": d.Overlays.Current(res.Outcome.Value),
	})
}

// storeError maps engine failures onto HTTP errors.
func storeError(err error) error {
	if errors.Is(err, progress.ErrStore) {
		log.Printf("ERROR: api: %v", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "progress could not be saved; try again")
	}
	log.Printf("ERROR: api: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "internal error")
}

// locationRequest is either a device fix or a permission denial.
type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required_without=Denied,omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required_without=Denied,omitempty,gte=-180,lte=180"`
	Denied    bool     `json:"denied"`
}

func (r locationRequest) validate() error {
	return validate.Struct(r)
}

func (r locationRequest) coordinate() location.Coordinate {
	return location.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
}
