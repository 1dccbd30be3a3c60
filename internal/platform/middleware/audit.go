package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mamacare/clinic/internal/platform/auth"
)

const apiPrefix = "/api/v1/"

// Audit logs which staff member touched which record. It must run after
// auth.Middleware so the caller is on the request context.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if !strings.HasPrefix(path, apiPrefix) {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			staff, _ := auth.StaffFromContext(c.Request().Context())
			rid, _ := c.Get(RequestIDKey).(string)

			logger.Info().
				Str("type", "record_access").
				Str("request_id", rid).
				Str("staff_id", staff.ID).
				Str("resource", resourceOf(path)).
				Str("record_id", recordIDOf(path)).
				Str("patient_id", patientIDOf(c)).
				Str("action", actionOf(c.Request().Method)).
				Int("status", status).
				Str("remote_ip", c.RealIP()).
				Msg("record access")

			return err
		}
	}
}

func actionOf(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceOf returns the first path segment after /api/v1/, e.g. "patients".
func resourceOf(path string) string {
	seg := strings.SplitN(strings.TrimPrefix(path, apiPrefix), "/", 2)
	if seg[0] == "" {
		return "unknown"
	}
	return seg[0]
}

func recordIDOf(path string) string {
	seg := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")
	for _, s := range seg[1:] {
		if _, err := uuid.Parse(s); err == nil {
			return s
		}
	}
	return ""
}

// patientIDOf finds the patient a request concerns: the id in a
// /patients/:id path or a patient_id query parameter.
func patientIDOf(c echo.Context) string {
	path := c.Request().URL.Path
	for _, prefix := range []string{apiPrefix + "patients/", apiPrefix + "billing/patients/"} {
		if strings.HasPrefix(path, prefix) {
			id := strings.SplitN(strings.TrimPrefix(path, prefix), "/", 2)[0]
			if _, err := uuid.Parse(id); err == nil {
				return id
			}
		}
	}
	return c.QueryParam("patient_id")
}
