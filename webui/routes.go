package webui

import (
	"crypto/subtle"
	"errors"
	"strconv"

	"github.com/dave-gray101/v2keyauth"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/google/uuid"
	"github.com/mudler/xlog"

	"github.com/yanami/soulmaker/core/sse"
	"github.com/yanami/soulmaker/core/tracker"
)

func (app *App) registerRoutes(webapp *fiber.App) {

	if len(app.config.ApiKeys) > 0 {
		kaConfig, err := GetKeyAuthConfig(app.config.ApiKeys)
		if err != nil || kaConfig == nil {
			panic(err)
		}
		webapp.Use(v2keyauth.New(*kaConfig))
	}

	webapp.Post("/api/track", app.Track())
	webapp.Get("/api/journal", app.Journal())

	webapp.Get("/api/bili/rank", app.BiliRank())
	webapp.Get("/api/bili/random", app.BiliRandom())
	webapp.Get("/api/bili/search", app.BiliSearch())
	webapp.Get("/api/bili/partition", app.BiliPartition())

	webapp.Get("/sse", func(c *fiber.Ctx) error {
		m := app.config.SSEManager
		if m == nil {
			return errorJSONMessage(c, fiber.StatusNotFound, "streaming disabled")
		}
		m.Handle(c, sse.NewClient(uuid.New().String()))
		return nil
	})
}

// Track runs the behavior loop on the posted state document.
func (app *App) Track() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		iterations := app.config.MaxIterations
		if v := c.Query("iterations"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return errorJSONMessage(c, fiber.StatusBadRequest, "iterations must be a positive integer")
			}
			iterations = n
		}

		record, err := app.config.Tracker.RunJSON(c.Context(), c.Body(), iterations)
		if err != nil {
			xlog.Error("Track request failed", "error", err)
			status := fiber.StatusInternalServerError
			switch {
			case errors.Is(err, tracker.ErrInvalidState):
				status = fiber.StatusBadRequest
			case errors.Is(err, tracker.ErrUpstream):
				status = fiber.StatusBadGateway
			}
			// partial progress is diagnostic only, Complete stays false
			return c.Status(status).JSON(fiber.Map{
				"error":   err.Error(),
				"partial": record,
			})
		}

		return c.JSON(record)
	}
}

func (app *App) Journal() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"records": app.config.Journal.All(),
		})
	}
}

func (app *App) BiliRank() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		rid := c.QueryInt("rid", 0)
		videos, err := app.config.Bilibili.Ranking(c.Context(), rid, c.Query("type", "all"))
		if err != nil {
			return errorJSONMessage(c, fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{"videos": videos})
	}
}

func (app *App) BiliRandom() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		video, err := app.config.Bilibili.RandomPopular(c.Context())
		if err != nil {
			return errorJSONMessage(c, fiber.StatusBadGateway, err.Error())
		}
		if video == nil {
			return errorJSONMessage(c, fiber.StatusNotFound, "popular list is empty")
		}
		return c.JSON(video)
	}
}

func (app *App) BiliSearch() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		keyword := c.Query("keyword")
		if keyword == "" {
			return errorJSONMessage(c, fiber.StatusBadRequest, "keyword is required")
		}
		videos, err := app.config.Bilibili.Search(c.Context(), keyword, c.QueryInt("page", 1))
		if err != nil {
			return errorJSONMessage(c, fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{"videos": videos})
	}
}

func (app *App) BiliPartition() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		rid := c.QueryInt("rid", -1)
		if rid < 0 {
			return errorJSONMessage(c, fiber.StatusBadRequest, "rid is required")
		}
		videos, err := app.config.Bilibili.Partition(c.Context(), rid, c.QueryInt("page", 1), c.QueryInt("ps", 20))
		if err != nil {
			return errorJSONMessage(c, fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{"videos": videos})
	}
}

func errorJSONMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func GetKeyAuthConfig(apiKeys []string) (*v2keyauth.Config, error) {
	customLookup, err := v2keyauth.MultipleKeySourceLookup([]string{"header:Authorization", "header:x-api-key"}, keyauth.ConfigDefault.AuthScheme)
	if err != nil {
		return nil, err
	}

	return &v2keyauth.Config{
		CustomKeyLookup: customLookup,
		Next:            func(c *fiber.Ctx) bool { return false },
		Validator:       getApiKeyValidationFunction(apiKeys),
		ErrorHandler:    getApiKeyErrorHandler(apiKeys),
		AuthScheme:      "Bearer",
	}, nil
}

func getApiKeyErrorHandler(apiKeys []string) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if errors.Is(err, v2keyauth.ErrMissingOrMalformedAPIKey) {
			if len(apiKeys) == 0 {
				return ctx.Next() // if no keys are set up, any error we get here is not an error.
			}
			ctx.Set("WWW-Authenticate", "Bearer")
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func getApiKeyValidationFunction(apiKeys []string) func(*fiber.Ctx, string) (bool, error) {
	return func(ctx *fiber.Ctx, apiKey string) (bool, error) {
		if len(apiKeys) == 0 {
			return true, nil // If no keys are setup, accept everything
		}
		for _, validKey := range apiKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				return true, nil
			}
		}
		return false, v2keyauth.ErrMissingOrMalformedAPIKey
	}
}
