package handlers

import (
	"net/http"
	"strconv"

	"ticket-ledger/config"
	"ticket-ledger/security"
	"ticket-ledger/services"
	"ticket-ledger/utils"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type AdminHandler struct {
	app    *pocketbase.PocketBase
	ledger *services.LedgerService
	redis  *redis.Client
	cfg    *config.Config
}

func NewAdminHandler(app *pocketbase.PocketBase, ledger *services.LedgerService, redisClient *redis.Client, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		app:    app,
		ledger: ledger,
		redis:  redisClient,
		cfg:    cfg,
	}
}

// GetLedgerDashboard - Point-in-time ledger summary for operators
func (h *AdminHandler) GetLedgerDashboard(e *core.RequestEvent) error {
	if !security.IsAdmin(e, h.cfg.AdminTokenHash) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	stats := h.ledger.Stats()

	redisStatus := "healthy"
	if err := utils.RedisHealthCheck(h.redis); err != nil {
		redisStatus = err.Error()
	}

	return e.JSON(http.StatusOK, map[string]any{
		"stats": stats,
		"redis": redisStatus,
	})
}

// GetLedgerLog - Recent audit records, newest first, optional kind filter
func (h *AdminHandler) GetLedgerLog(e *core.RequestEvent) error {
	if !security.IsAdmin(e, h.cfg.AdminTokenHash) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	limit := 100
	if v := e.Request.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	query := h.app.DB().
		Select("ref", "kind", "event_id", "ticket_id", "actor", "counterparty", "amount", "created").
		From(services.LedgerLogCollection).
		OrderBy("created DESC").
		Limit(int64(limit))

	if kind := e.Request.URL.Query().Get("kind"); kind != "" {
		query.AndWhere(dbx.HashExp{"kind": kind})
	}

	var rows []dbx.NullStringMap
	if err := query.All(&rows); err != nil {
		return apis.NewBadRequestError("Failed to read ledger log", err)
	}

	entries := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		entry := map[string]any{}
		for column, value := range row {
			if value.Valid {
				entry[column] = value.String
			}
		}
		entries = append(entries, entry)
	}

	return e.JSON(http.StatusOK, entries)
}
