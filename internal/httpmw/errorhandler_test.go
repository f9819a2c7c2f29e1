package httpmw

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/waterwise/irrigo/internal/apperr"
)

func serveErr(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	e.GET("/", func(c echo.Context) error { return err })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	rec := serveErr(t, apperr.ValidationError("bad mode"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperr.ErrCodeValidation, body["error"]["code"])
}

func TestErrorHandlerRendersEchoHTTPError(t *testing.T) {
	rec := serveErr(t, echo.NewHTTPError(http.StatusTooManyRequests, "slow down"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error"]["code"])
}

func TestErrorHandlerDefaultsUnknownErrorsTo500(t *testing.T) {
	rec := serveErr(t, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperr.ErrCodeInternalServer, body["error"]["code"])
}
