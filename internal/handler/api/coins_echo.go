package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"Coinverge/internal/domain/models"
	domrepo "Coinverge/internal/domain/repository"
	"Coinverge/internal/usecase"
	xhttp "Coinverge/pkg/http"
	xlogger "Coinverge/pkg/logger"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// CoinsEchoHandler serves coin search, coin details and upstream health.
type CoinsEchoHandler struct {
	logger   *xlogger.Logger
	coins    domrepo.CoinSource
	sessions *usecase.SearchSessions
	health   *usecase.HealthMonitor
}

func NewCoinsEchoHandler(logger *xlogger.Logger, coins domrepo.CoinSource, sessions *usecase.SearchSessions, health *usecase.HealthMonitor) *CoinsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &CoinsEchoHandler{logger: logger, coins: coins, sessions: sessions, health: health}
}

func (h *CoinsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/coins/search", h.Search)
	g.GET("/coins/:id", h.Details)
	g.GET("/health", h.Health)
}

func (h *CoinsEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	session := c.Request().Header.Get(xhttp.SearchSessionHeader)
	coins, err := h.sessions.Search(c.Request().Context(), session, req.Query)
	if err != nil {
		appErr := toAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("coin search failed", xlogger.String("query", req.Query), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	if coins == nil {
		coins = []models.CoinSummary{}
	}
	return xhttp.SuccessResponse(c, coins)
}

func (h *CoinsEchoHandler) Details(c echo.Context) error {
	req := &models.CoinRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	detail, ok := h.coins.GetCoinDetails(c.Request().Context(), req.ID)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("Coin not found").WithParam("id", req.ID))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, detail)
}

func (h *CoinsEchoHandler) Health(c echo.Context) error {
	status := h.health.Check(c.Request().Context())
	res := HealthResponse{Status: "healthy", CheckedAt: status.CheckedAt}
	if !status.Healthy {
		res.Status = "unhealthy"
		res.Error = status.Error
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, res)
	}
	return xhttp.SuccessResponse(c, res)
}
