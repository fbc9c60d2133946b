package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"Coinverge/internal/domain/models"
	"Coinverge/internal/usecase"
	xhttp "Coinverge/pkg/http"
	xlogger "Coinverge/pkg/logger"
)

// WatchlistResponse carries an owner's stored coin ids.
type WatchlistResponse struct {
	Owner   string   `json:"owner"`
	CoinIDs []string `json:"coin_ids"`
}

// CleanResponse reports the result of a local sweep.
type CleanResponse struct {
	Owner   string   `json:"owner"`
	CoinIDs []string `json:"coin_ids"`
	Removed []string `json:"removed"`
}

// WatchlistEchoHandler exposes watchlist mutations and the reconciled portfolio.
type WatchlistEchoHandler struct {
	logger    *xlogger.Logger
	watchlist *usecase.WatchlistService
}

func NewWatchlistEchoHandler(logger *xlogger.Logger, watchlist *usecase.WatchlistService) *WatchlistEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &WatchlistEchoHandler{logger: logger, watchlist: watchlist}
}

func (h *WatchlistEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/watchlists/:owner")
	g.GET("", h.Get)
	g.DELETE("", h.Clear)
	g.POST("/coins", h.AddCoins)
	g.DELETE("/coins/:id", h.RemoveCoin)
	g.POST("/clean", h.Clean)
	g.GET("/portfolio", h.Portfolio)
}

func (h *WatchlistEchoHandler) Get(c echo.Context) error {
	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ids, err := h.watchlist.IDs(c.Request().Context(), req.Owner)
	if err != nil {
		return h.fail(c, "load watchlist failed", req.Owner, err)
	}
	return xhttp.SuccessResponse(c, WatchlistResponse{Owner: req.Owner, CoinIDs: ids})
}

func (h *WatchlistEchoHandler) AddCoins(c echo.Context) error {
	req := &models.AddCoinsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ids, err := h.watchlist.AddMany(c.Request().Context(), req.Owner, req.IDs)
	if err != nil {
		return h.fail(c, "add coins failed", req.Owner, err)
	}
	return xhttp.SuccessResponse(c, WatchlistResponse{Owner: req.Owner, CoinIDs: ids})
}

func (h *WatchlistEchoHandler) RemoveCoin(c echo.Context) error {
	req := &models.RemoveCoinRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ids, err := h.watchlist.Remove(c.Request().Context(), req.Owner, req.ID)
	if err != nil {
		return h.fail(c, "remove coin failed", req.Owner, err)
	}
	return xhttp.SuccessResponse(c, WatchlistResponse{Owner: req.Owner, CoinIDs: ids})
}

func (h *WatchlistEchoHandler) Clear(c echo.Context) error {
	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.watchlist.Clear(c.Request().Context(), req.Owner); err != nil {
		return h.fail(c, "clear watchlist failed", req.Owner, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *WatchlistEchoHandler) Clean(c echo.Context) error {
	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	kept, removed, err := h.watchlist.Clean(c.Request().Context(), req.Owner)
	if err != nil {
		return h.fail(c, "clean watchlist failed", req.Owner, err)
	}
	return xhttp.SuccessResponse(c, CleanResponse{Owner: req.Owner, CoinIDs: kept, Removed: removed})
}

func (h *WatchlistEchoHandler) Portfolio(c echo.Context) error {
	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.watchlist.Refresh(c.Request().Context(), req.Owner)
	if err != nil {
		return h.fail(c, "refresh portfolio failed", req.Owner, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, p)
}

func (h *WatchlistEchoHandler) fail(c echo.Context, msg, owner string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(msg, xlogger.String("owner", owner), xlogger.Error(err))
	} else {
		h.logger.Warn(msg, xlogger.String("owner", owner), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
