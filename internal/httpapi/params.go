package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/rbac"
)

const dateLayout = "2006-01-02"

// actorFrom is only reached behind RequireAuth.
func actorFrom(r *http.Request) rbac.Actor {
	a, _ := rbac.ActorFrom(r.Context())
	return a
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.Newf(apperror.KindValidation, "%s must be a non-negative integer", key).
			WithDetails(map[string]any{key: raw})
	}
	return n, nil
}

// queryDate accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func queryDate(r *http.Request, key string, endOfDay bool) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, apperror.Newf(apperror.KindValidation, "%s must be a date", key).
			WithDetails(map[string]any{key: raw})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
