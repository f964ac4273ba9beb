package api

import (
	models "MarketDash/internal/domain/models"
	"MarketDash/internal/usecase"
	xhttp "MarketDash/pkg/http"
	xlogger "MarketDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HeaderSessionID carries the dashboard session id.
const HeaderSessionID = xhttp.HeaderSessionID

type analysisResponse struct {
	SessionID string `json:"session_id"`
	models.AnalysisView
}

// AnalysisHandler serves the analyse action and its session state.
type AnalysisHandler struct {
	logger  *xlogger.Logger
	uc      *usecase.AnalysisUseCase
	limiter echo.MiddlewareFunc
}

// NewAnalysisHandler wires the handler; limiter may be nil.
func NewAnalysisHandler(logger *xlogger.Logger, uc *usecase.AnalysisUseCase, limiter echo.MiddlewareFunc) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, uc: uc, limiter: limiter}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, h.limiter)
	}
	g.POST("/analysis/:symbol", h.Analyse, mw...)
	g.GET("/analysis/:symbol/status", h.Status)
	g.GET("/analysis/:symbol/history", h.History)
	g.GET("/session/:id", h.Session)
}

func (h *AnalysisHandler) Analyse(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Session == "" {
		req.Session = c.QueryParam("session")
	}
	if req.Session == "" {
		req.Session = c.Request().Header.Get(HeaderSessionID)
	}

	view, sid, err := h.uc.Analyse(c.Request().Context(), req.Session, req.Symbol, req.Models)
	c.Response().Header().Set(HeaderSessionID, sid)
	if err != nil {
		appErr := toAppError(err)
		h.logger.Error("analysis failed",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("session", sid),
			xlogger.Int("status", appErr.Status),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, analysisResponse{SessionID: sid, AnalysisView: view})
}

func (h *AnalysisHandler) Status(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Status(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Warn("forecast status failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) History(c echo.Context) error {
	req := &models.ArchiveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.uc.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AnalysisHandler) Session(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Session(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}
