package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinvault/coinvault/internal/economy"
)

// RegisterCurrencyRoutes wires currency metadata and ranking endpoints.
func RegisterCurrencyRoutes(r fiber.Router, h *economy.Handler) {
	r.Get("/currencies", h.Currencies)
	r.Get("/currencies/:currencyID/leaderboard", h.Leaderboard)
	r.Get("/currencies/:currencyID/rank/:accountID", h.Rank)
}
