package httpapi

import (
	"errors"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/weather"
)

var validate = validator.New()

// NewApp builds the Fiber app with the shared error handler and middleware.
func NewApp(appName string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		// Body values are handed to the store, which keeps them past the request.
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		// No WriteTimeout: the event stream stays open.
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

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Closing done ends
// open event streams so shutdown is not held up by them; nil never closes.
func RegisterRoutes(app *fiber.App, s *store.WeatherStore, done <-chan struct{}) {
	v1 := app.Group("/api/v1")

	v1.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(newStateView(s))
	})

	v1.Post("/weather", func(c *fiber.Ctx) error {
		var req fetchRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		// Failures are reported in the state's error field, not as an HTTP error.
		s.FetchWeather(c.UserContext(), req.Query)
		return c.JSON(newStateView(s))
	})

	v1.Post("/favorites/toggle", func(c *fiber.Ctx) error {
		var req favoriteRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		member := s.ToggleFavorite(req.Location)
		return c.JSON(fiber.Map{
			"location":   req.Location,
			"isFavorite": member,
			"favorites":  s.State().Favorites,
		})
	})

	v1.Get("/favorites/:location", func(c *fiber.Ctx) error {
		loc, err := url.PathUnescape(c.Params("location"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid location")
		}
		return c.JSON(fiber.Map{
			"location":   loc,
			"isFavorite": s.IsFavorite(loc),
		})
	})

	v1.Put("/units", func(c *fiber.Ctx) error {
		var req unitsRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		if err := s.ChangeUnits(weather.Units(req.Units)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(newStateView(s))
	})

	v1.Get("/events", eventsHandler(s, done))
}

// fetchRequest is the body of POST /weather.
type fetchRequest struct {
	Query string `json:"query" form:"query" validate:"required"`
}

// favoriteRequest is the body of POST /favorites/toggle.
type favoriteRequest struct {
	Location string `json:"location" form:"location" validate:"required"`
}

// unitsRequest is the body of PUT /units.
type unitsRequest struct {
	Units string `json:"units" form:"units" validate:"required,oneof=metric imperial"`
}

func bindAndValidate(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// stateView is the session state plus the derived display values.
type stateView struct {
	store.State
	Temperature *float64 `json:"temperature"`
	FeelsLike   *float64 `json:"feelsLike"`
	WindSpeed   *string  `json:"windSpeed"`
}

func newStateView(s *store.WeatherStore) stateView {
	return viewOf(s.State())
}

// viewOf derives display values from a state copy, so the view is consistent
// even if the store changes concurrently.
func viewOf(st store.State) stateView {
	v := stateView{State: st}
	if st.CurrentWeather == nil {
		return v
	}

	temp := st.CurrentWeather.Temperature(st.Units)
	feels := st.CurrentWeather.FeelsLike(st.Units)
	wind := st.CurrentWeather.WindSpeed(st.Units)
	v.Temperature = &temp
	v.FeelsLike = &feels
	v.WindSpeed = &wind
	return v
}
