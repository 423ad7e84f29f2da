package economy

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/balance"
	"github.com/coinvault/coinvault/internal/currency"
	"github.com/coinvault/coinvault/internal/money"
	"github.com/coinvault/coinvault/internal/notification"
)

const defaultLeaderboardLimit = 10

// Handler exposes the economy HTTP endpoints.
type Handler struct {
	service  *Service
	local    *balance.LocalTier
	registry *currency.Registry
}

// NewHandler builds an economy HTTP handler.
func NewHandler(service *Service, local *balance.LocalTier, registry *currency.Registry) *Handler {
	return &Handler{service: service, local: local, registry: registry}
}

type amountRequest struct {
	// Amount accepts a plain decimal or a suffixed form such as "1.5k".
	Amount string `json:"amount"`
}

type transactionResponse struct {
	AccountID  string `json:"account_id"`
	CurrencyID string `json:"currency_id"`
	OldBalance string `json:"old_balance"`
	NewBalance string `json:"new_balance"`
	Change     string `json:"change"`
}

func (h *Handler) accountParam(c *fiber.Ctx) (uuid.UUID, error) {
	account, err := uuid.Parse(c.Params("accountID"))
	if err != nil {
		return uuid.Nil, fiber.NewError(http.StatusBadRequest, "invalid account id")
	}
	return account, nil
}

func (h *Handler) amountBody(c *fiber.Ctx) (decimal.Decimal, error) {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return decimal.Decimal{}, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := money.ParseSuffixed(req.Amount)
	if err != nil {
		return decimal.Decimal{}, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return amount, nil
}

func (h *Handler) balancePayload(currencyID string, bal decimal.Decimal) fiber.Map {
	display := money.Display(bal)
	payload := fiber.Map{
		"currency_id": currencyID,
		"balance":     display.StringFixed(money.StorageScale),
		"compact":     money.FormatSuffixed(display),
	}
	if cur, ok := h.registry.Lookup(currencyID); ok {
		payload["formatted"] = cur.Format(display)
	}
	return payload
}

// Balances returns every currency balance held by the account.
func (h *Handler) Balances(c *fiber.Ctx) error {
	account, err := h.accountParam(c)
	if err != nil {
		return err
	}

	balances, err := h.service.Balances(c.UserContext(), account)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}

	payload := make([]fiber.Map, 0, len(balances))
	for currencyID, bal := range balances {
		payload = append(payload, h.balancePayload(currencyID, bal))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id": account.String(),
		"balances":   payload,
	})
}

// Balance returns the account's balance for one currency.
func (h *Handler) Balance(c *fiber.Ctx) error {
	account, err := h.accountParam(c)
	if err != nil {
		return err
	}

	currencyID := c.Params("currencyID")
	bal, err := h.service.Balance(c.UserContext(), account, currencyID)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}

	payload := h.balancePayload(currencyID, bal)
	payload["account_id"] = account.String()
	return c.Status(http.StatusOK).JSON(payload)
}

func (h *Handler) mutate(c *fiber.Ctx, apply func(decimal.Decimal) (transactionResponse, error)) error {
	amount, err := h.amountBody(c)
	if err != nil {
		return err
	}
	resp, err := apply(amount)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func toResponse(tx notification.Transaction) transactionResponse {
	return transactionResponse{
		AccountID:  tx.Account.String(),
		CurrencyID: tx.CurrencyID,
		OldBalance: tx.OldBalance.StringFixed(money.StorageScale),
		NewBalance: tx.NewBalance.StringFixed(money.StorageScale),
		Change:     tx.Change.StringFixed(money.StorageScale),
	}
}

// Give credits the account.
func (h *Handler) Give(c *fiber.Ctx) error {
	account, err := h.accountParam(c)
	if err != nil {
		return err
	}
	currencyID := c.Params("currencyID")
	return h.mutate(c, func(amount decimal.Decimal) (transactionResponse, error) {
		tx, err := h.service.Give(c.UserContext(), account, currencyID, amount)
		return toResponse(tx), err
	})
}

// Take debits the account unconditionally.
func (h *Handler) Take(c *fiber.Ctx) error {
	account, err := h.accountParam(c)
	if err != nil {
		return err
	}
	currencyID := c.Params("currencyID")
	return h.mutate(c, func(amount decimal.Decimal) (transactionResponse, error) {
		tx, err := h.service.Take(c.UserContext(), account, currencyID, amount)
		return toResponse(tx), err
	})
}

// TryTake debits the account only when the balance covers the amount.
func (h *Handler) TryTake(c *fiber.Ctx) error {
	account, err := h.accountParam(c)
	if err != nil {
		return err
	}
	currencyID := c.Params("currencyID")

	amount, err := h.amountBody(c)
	if err != nil {
		return err
	}
	ok, err := h.service.TryTake(c.UserContext(), account, currencyID, amount)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"taken": ok})
}

// Set overwrites the account's balance.
func (h *Handler) Set(c *fiber.Ctx) error {
	account, err := h.accountParam(c)
	if err != nil {
		return err
	}
	currencyID := c.Params("currencyID")
	return h.mutate(c, func(amount decimal.Decimal) (transactionResponse, error) {
		tx, err := h.service.Set(c.UserContext(), account, currencyID, amount)
		return toResponse(tx), err
	})
}

// Invalidate drops the account's in-process cache entry after an external
// correction that bypassed the cache tiers.
func (h *Handler) Invalidate(c *fiber.Ctx) error {
	account, err := h.accountParam(c)
	if err != nil {
		return err
	}
	h.local.Invalidate(account)
	return c.SendStatus(http.StatusNoContent)
}

// Currencies lists the registered currency definitions.
func (h *Handler) Currencies(c *fiber.Ctx) error {
	defs := h.registry.All()
	payload := make([]fiber.Map, 0, len(defs))
	for _, def := range defs {
		payload = append(payload, fiber.Map{
			"id":     def.ID,
			"prefix": def.Prefix,
			"suffix": def.Suffix,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"currencies": payload})
}

// Leaderboard returns the top holders of a currency.
func (h *Handler) Leaderboard(c *fiber.Ctx) error {
	currencyID := c.Params("currencyID")
	limit := defaultLeaderboardLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return fiber.NewError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	entries, err := h.service.Leaderboard(c.UserContext(), currencyID, limit)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}

	payload := make([]fiber.Map, 0, len(entries))
	for i, entry := range entries {
		payload = append(payload, fiber.Map{
			"position":   i + 1,
			"account_id": entry.Account.String(),
			"balance":    money.Display(entry.Balance).StringFixed(money.StorageScale),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"currency_id": currencyID,
		"entries":     payload,
	})
}

// Rank returns the account's 1-based leaderboard position, or -1 when the
// account holds no balance for the currency.
func (h *Handler) Rank(c *fiber.Ctx) error {
	account, err := h.accountParam(c)
	if err != nil {
		return err
	}
	currencyID := c.Params("currencyID")

	rank, err := h.service.Rank(c.UserContext(), account, currencyID)
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id":  account.String(),
		"currency_id": currencyID,
		"rank":        rank,
	})
}
