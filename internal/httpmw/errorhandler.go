package httpmw

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/waterwise/irrigo/internal/apperr"
)

// ErrorHandler is the centralized echo.HTTPErrorHandler for the control
// API. The core itself never writes to the response bus on error
// except via the best-effort error field spec.md section 7 describes;
// this handler is what turns that into HTTP.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		errCode := apperr.ErrCodeInternalServer
		message := "internal server error"

		switch e := err.(type) {
		case *apperr.AppError:
			code, errCode, message = e.HTTPStatus, e.Code, e.Message
			if code >= 500 {
				logger.Error("application error", zap.String("code", errCode), zap.Error(e.Err))
			}
		case *echo.HTTPError:
			code = e.Code
			if msg, ok := e.Message.(string); ok {
				message = msg
			}
			errCode = mapStatusToCode(code)
		default:
			logger.Error("unhandled error", zap.Error(err))
		}

		_ = c.JSON(code, map[string]interface{}{
			"error": map[string]interface{}{"code": errCode, "message": message},
		})
	}
}

func mapStatusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperr.ErrCodeBadRequest
	case http.StatusUnauthorized:
		return apperr.ErrCodeUnauthorized
	case http.StatusNotFound:
		return apperr.ErrCodeNotFound
	case http.StatusTooManyRequests:
		return "RATE_LIMIT_EXCEEDED"
	case http.StatusServiceUnavailable:
		return apperr.ErrCodeUnavailable
	default:
		return apperr.ErrCodeInternalServer
	}
}
