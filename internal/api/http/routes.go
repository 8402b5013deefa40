package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/aqimet/aqipipe/internal/dashboard"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *dashboard.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/aqi/current", func(c *fiber.Ctx) error {
		status, err := service.Current(c.Context())
		if err != nil {
			if errors.Is(err, dashboard.ErrUnavailable) {
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read current air quality")
		}
		return c.JSON(status)
	})

	v1.Get("/aqi/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Hours%12 != 0 {
			return fiber.NewError(fiber.StatusBadRequest, "hours must be a multiple of 12")
		}

		view, err := service.Forecast(c.Context(), req.Hours)
		if err != nil {
			if errors.Is(err, dashboard.ErrUnavailable) {
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to produce forecast")
		}
		return c.JSON(view)
	})

	v1.Get("/aqi/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := service.History(c.Context(), req.Days)
		if err != nil {
			if errors.Is(err, dashboard.ErrUnavailable) {
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read history")
		}
		return c.JSON(fiber.Map{
			"days":   req.Days,
			"points": points,
		})
	})
}

// forecastQuery holds the forecast endpoint parameters. The horizon is
// limited to the 12-hour slider stops the dashboard offers.
type forecastQuery struct {
	Hours int `validate:"required,min=12,max=72"`
}

func (f *forecastQuery) bind(c *fiber.Ctx) error {
	s := c.Query("hours", "24")
	hours, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("hours must be an integer")
	}
	f.Hours = hours
	return nil
}

// historyQuery holds the history endpoint parameters.
type historyQuery struct {
	Days int `validate:"required,min=1,max=30"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	s := c.Query("days", "7")
	days, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("days must be an integer")
	}
	h.Days = days
	return nil
}
