package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinvault/coinvault/internal/economy"
)

// RegisterBalanceRoutes wires account balance endpoints. Reads register on
// the plain API group; mutations go through the audited group.
func RegisterBalanceRoutes(reads fiber.Router, mutations fiber.Router, h *economy.Handler) {
	reads.Get("/accounts/:accountID/balances", h.Balances)
	reads.Get("/accounts/:accountID/balances/:currencyID", h.Balance)

	mutations.Post("/accounts/:accountID/balances/:currencyID/give", h.Give)
	mutations.Post("/accounts/:accountID/balances/:currencyID/take", h.Take)
	mutations.Post("/accounts/:accountID/balances/:currencyID/try-take", h.TryTake)
	mutations.Put("/accounts/:accountID/balances/:currencyID", h.Set)
	mutations.Post("/accounts/:accountID/invalidate", h.Invalidate)
}
