package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type quoteQuery struct {
	Symbol string `param:"symbol" validate:"required,max=32,symbol"`
	Period string `query:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}

func serve(t *testing.T, method, target string, h echo.HandlerFunc) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	e := echo.New()
	e.Add(method, "/q/:symbol", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var res APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, res
}

func TestReadAndValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		code   int
		period string
	}{
		{"default period", "/q/TCS", http.StatusOK, "1y"},
		{"explicit period", "/q/M&M?period=5y", http.StatusOK, "5y"},
		{"index symbol", "/q/%5ENSEI", http.StatusOK, "1y"},
		{"bad period", "/q/TCS?period=7y", http.StatusBadRequest, ""},
		{"bad symbol", "/q/TC$S", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		var got quoteQuery
		rec, res := serve(t, http.MethodGet, tt.target, func(c echo.Context) error {
			if verr := ReadAndValidateRequest(c, &got); verr != nil {
				return BadRequestResponse(c, verr)
			}
			return SuccessResponse(c, got)
		})
		if rec.Code != tt.code || res.Status != tt.code {
			t.Fatalf("%s: status = %d/%d, want %d", tt.name, rec.Code, res.Status, tt.code)
		}
		if tt.code == http.StatusOK && got.Period != tt.period {
			t.Fatalf("%s: period = %q", tt.name, got.Period)
		}
	}
}

func TestAppErrorResponse(t *testing.T) {
	rec, res := serve(t, http.MethodGet, "/q/TCS", func(c echo.Context) error {
		return AppErrorResponse(c, UpstreamError("market backend unavailable").WithParam("endpoint", "movers"))
	})
	if rec.Code != http.StatusBadGateway || res.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("status = %d message = %q", rec.Code, res.Message)
	}

	rec, _ = serve(t, http.MethodGet, "/q/TCS", func(c echo.Context) error {
		return AppErrorResponse(c, errors.New("plain"))
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("plain error status = %d", rec.Code)
	}
}

type routeFunc func(e *echo.Echo)

func (f routeFunc) RegisterRoutes(e *echo.Echo) { f(e) }

func TestServerErrorEnvelope(t *testing.T) {
	s := NewServer([]Handler{routeFunc(func(e *echo.Echo) {
		e.POST("/bind", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "malformed body") })
		e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })
		e.GET("/gone", func(c echo.Context) error { return NotFoundError("no such session") })
	})}, WithCORS(false), WithMetricsPath(""))

	tests := []struct {
		method, target string
		code           int
		errCode        string
	}{
		{http.MethodGet, "/nope", http.StatusNotFound, "ERR_HTTP"},
		{http.MethodPost, "/bind", http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{http.MethodGet, "/gone", http.StatusNotFound, "ERR_NOT_FOUND"},
		{http.MethodGet, "/boom", http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.echo.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		var res struct {
			Status int             `json:"status"`
			Data   json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("%s: decode %q: %v", tt.target, rec.Body.String(), err)
		}
		if rec.Code != tt.code || res.Status != tt.code {
			t.Fatalf("%s %s: status = %d/%d, want %d (%s)", tt.method, tt.target, rec.Code, res.Status, tt.code, rec.Body.String())
		}
		if tt.errCode == "" {
			continue
		}
		var errs []AppError
		if json.Unmarshal(res.Data, &errs) != nil || len(errs) != 1 || errs[0].Code != tt.errCode {
			t.Fatalf("%s: body = %s, want code %s", tt.target, rec.Body.String(), tt.errCode)
		}
	}
}
