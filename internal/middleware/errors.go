package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const problemTypeBase = "https://tripsaver.app/errors/"

// problemDetails mirrors handler.ProblemDetails; middleware cannot import handler
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func problem(c echo.Context, status int, slug, detail string) error {
	return c.JSON(status, problemDetails{
		Type:     problemTypeBase + slug,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

func unauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, "unauthorized", detail)
}

func rateLimitError(c echo.Context, detail string) error {
	return problem(c, http.StatusTooManyRequests, "rate-limit", detail)
}

// anonError is the bare {error} body the anon-key routes answer with
func anonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}
