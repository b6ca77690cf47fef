package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/service"
	"github.com/iliyamo/auth-service/internal/validation"
)

// Client-facing messages.  Raw causes stay in the server log.
const (
	msgInvalidCredentials = "Email or password does not match!"
	msgEmailExists        = "Email already exists!"
	msgUnauthorized       = "Unauthorized"
	msgInternal           = "Internal server error"
)

// ErrorItem is one entry of the uniform error body.
type ErrorItem struct {
	Type     string `json:"type"`
	Value    string `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Errors []ErrorItem `json:"errors"`
}

// errorType names an error by its status the way clients already expect,
// e.g. 400 -> "BadRequestError".
func errorType(code int) string {
	text := strings.ReplaceAll(http.StatusText(code), " ", "")
	if text == "" {
		text = "Http"
	}
	if strings.HasSuffix(text, "Error") {
		return text
	}
	return text + "Error"
}

func single(code int, msg string) (int, ErrorBody) {
	return code, ErrorBody{Errors: []ErrorItem{{Type: errorType(code), Msg: msg}}}
}

// classify maps an error onto a status code and body.
func classify(err error) (int, ErrorBody) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		items := make([]ErrorItem, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			items = append(items, ErrorItem{Type: f.Type, Value: f.Value, Msg: f.Msg, Path: f.Path, Location: f.Location})
		}
		return http.StatusBadRequest, ErrorBody{Errors: items}
	}

	var he *echo.HTTPError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return single(http.StatusBadRequest, msgInvalidCredentials)
	case errors.Is(err, service.ErrEmailExists):
		return single(http.StatusBadRequest, msgEmailExists)
	case errors.Is(err, service.ErrUnauthorized):
		return single(http.StatusUnauthorized, msgUnauthorized)
	case errors.As(err, &he):
		if he.Code >= http.StatusInternalServerError {
			return single(he.Code, msgInternal)
		}
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return single(he.Code, msg)
	default:
		return single(http.StatusInternalServerError, msgInternal)
	}
}

// ErrorHandler is the echo.HTTPErrorHandler for the service.  Every error
// is rendered as {"errors":[...]}; 5xx causes are logged, never returned.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, body := classify(err)
		req := c.Request()
		if code >= http.StatusInternalServerError {
			log.ErrorContext(req.Context(), "request failed",
				"method", req.Method, "path", req.URL.Path, "status", code, "error", err)
		} else {
			log.DebugContext(req.Context(), "request rejected",
				"method", req.Method, "path", req.URL.Path, "status", code, "error", err)
		}
		if req.Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.ErrorContext(req.Context(), "write error response", "error", err)
		}
	}
}
