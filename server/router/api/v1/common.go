package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	errs "github.com/finchbot/finch/server/internal/errors"
)

// nowFunc is swappable so tests can pin response timestamps.
var nowFunc = time.Now

var codeStatus = map[errs.ErrorCode]int{
	errs.ErrCodeInvalidParameters:  http.StatusBadRequest,
	errs.ErrCodeNotFound:           http.StatusNotFound,
	errs.ErrCodeConfigurationError: http.StatusServiceUnavailable,
	errs.ErrCodeExecutionError:     http.StatusInternalServerError,
	errs.ErrCodeContextError:       http.StatusConflict,
}

// respondError maps a retrieval error onto an HTTP status and the typed
// error body. Unclassified errors surface as execution_error.
func respondError(c echo.Context, err error) error {
	rerr, ok := err.(*errs.RetrievalError)
	if !ok {
		rerr = errs.ExecutionError("internal error", err)
	}
	status, ok := codeStatus[rerr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, rerr.Payload())
}

// relativeAge renders a millisecond-epoch age as a coarse human string
// at day, hour, or minute granularity.
func relativeAge(nowMs, createdMs int64) string {
	ageMs := nowMs - createdMs
	if ageMs < 0 {
		ageMs = 0
	}
	age := time.Duration(ageMs) * time.Millisecond

	switch {
	case age >= 24*time.Hour:
		days := int(age.Hours() / 24)
		return fmt.Sprintf("%d %s ago", days, pluralize("day", days))
	case age >= time.Hour:
		hours := int(age.Hours())
		return fmt.Sprintf("%d %s ago", hours, pluralize("hour", hours))
	case age >= time.Minute:
		minutes := int(age.Minutes())
		return fmt.Sprintf("%d %s ago", minutes, pluralize("minute", minutes))
	default:
		return "just now"
	}
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
