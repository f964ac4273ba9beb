package api

import (
	models "MarketDash/internal/domain/models"
	domrepo "MarketDash/internal/domain/repository"
	"MarketDash/internal/usecase"
	xhttp "MarketDash/pkg/http"
	xlogger "MarketDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

const viewCacheControl = "private, max-age=15"

// DashboardHandler serves the read-only dashboard views.
type DashboardHandler struct {
	logger *xlogger.Logger
	uc     *usecase.DashboardUseCase
}

func NewDashboardHandler(logger *xlogger.Logger, uc *usecase.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{logger: logger, uc: uc}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/overview", h.Overview)
	g.GET("/movers", h.Movers)
	g.GET("/heatmap", h.Heatmap)
	g.GET("/most-active", h.MostActive)
	g.GET("/quotes", h.Quotes)
	g.GET("/top-stocks", h.TopStocks)
}

func (h *DashboardHandler) fail(c echo.Context, view string, err error) error {
	appErr := toAppError(err)
	h.logger.Error("dashboard view failed",
		xlogger.String("view", view),
		xlogger.Int("status", appErr.Status),
		xlogger.Error(err),
	)
	return xhttp.AppErrorResponse(c, appErr)
}

func (h *DashboardHandler) Overview(c echo.Context) error {
	req := &models.OverviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Overview(c.Request().Context(), domrepo.Period(req.Period))
	if err != nil {
		return h.fail(c, "overview", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, viewCacheControl)
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Movers(c echo.Context) error {
	res, err := h.uc.Movers(c.Request().Context())
	if err != nil {
		return h.fail(c, "movers", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, viewCacheControl)
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Heatmap(c echo.Context) error {
	res, err := h.uc.Heatmap(c.Request().Context())
	if err != nil {
		return h.fail(c, "heatmap", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, viewCacheControl)
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) MostActive(c echo.Context) error {
	res, err := h.uc.MostActive(c.Request().Context())
	if err != nil {
		return h.fail(c, "most_active", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, viewCacheControl)
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Quotes(c echo.Context) error {
	req := &models.QuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Quotes(c.Request().Context(), req.Refresh)
	if err != nil {
		return h.fail(c, "quotes", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) TopStocks(c echo.Context) error {
	req := &models.TopStocksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.TopStocks(c.Request().Context(), req.Limit)
	if err != nil {
		return h.fail(c, "top_stocks", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, viewCacheControl)
	return xhttp.SuccessResponse(c, res)
}
