package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type routes func(e *echo.Echo)

func (r routes) RegisterRoutes(e *echo.Echo) { r(e) }

type lookupRequest struct {
	Name  string `query:"name" validate:"required,max=5"`
	Limit int    `query:"limit" default:"10" validate:"gte=1,lte=20"`
}

func newTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	h := routes(func(e *echo.Echo) {
		e.GET("/ok", func(c echo.Context) error {
			return SuccessResponse(c, map[string]string{"hello": "world"})
		})
		e.GET("/missing", func(c echo.Context) error {
			return AppErrorResponse(c, NotFoundError("Coin not found"))
		})
		e.GET("/panic", func(c echo.Context) error {
			panic("boom")
		})
		e.GET("/lookup", func(c echo.Context) error {
			var req lookupRequest
			if errs := ReadAndValidateRequest(c, &req); errs != nil {
				return BadRequestResponse(c, errs)
			}
			return SuccessResponse(c, req)
		})
	})
	return NewServer([]Handler{h}, WithMetrics("/metrics", reg, reg)), reg
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body APIResponse
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServerEnvelopeCarriesStatus(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := do(t, s, http.MethodGet, "/ok")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusOK, body.Status)
	require.Equal(t, "OK", body.Message)

	rec, body = do(t, s, http.MethodGet, "/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, http.StatusNotFound, body.Status)
	require.Contains(t, rec.Body.String(), "Coin not found")
}

func TestServerRecoversPanics(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := do(t, s, http.MethodGet, "/panic")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, http.StatusInternalServerError, body.Status)
}

func TestReadAndValidateRequest(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := do(t, s, http.MethodGet, "/lookup?name=btc")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 10, body.Data.(map[string]interface{})["Limit"])

	rec, _ = do(t, s, http.MethodGet, "/lookup")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "ERR_REQUIRED")
	require.Contains(t, rec.Body.String(), `"field":"name"`)

	rec, _ = do(t, s, http.MethodGet, "/lookup?name=btc&limit=50")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "ERR_LTE")
}

func TestServerMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/ok")

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/ok",status="200"} 1`)
}

func TestServerCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	require.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), SearchSessionHeader)
}
