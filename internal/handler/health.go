package handler

import (
    "context"
    "net/http"
    "sort"
    "time"

    "github.com/labstack/echo/v4"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Health returns a handler for GET /healthz used by load balancers and
// monitoring.  Every check runs with a one second budget; any failure
// turns the response into a 503 naming the failing dependency.
func Health(checks map[string]Check) echo.HandlerFunc {
    names := make([]string, 0, len(checks))
    for name := range checks {
        names = append(names, name)
    }
    sort.Strings(names)

    return func(c echo.Context) error {
        status := http.StatusOK
        results := make(map[string]string, len(checks))
        for _, name := range names {
            ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
            err := checks[name](ctx)
            cancel()
            if err != nil {
                status = http.StatusServiceUnavailable
                results[name] = "down"
                c.Logger().Warnf("healthz: %s: %v", name, err)
                continue
            }
            results[name] = "ok"
        }
        overall := "ok"
        if status != http.StatusOK {
            overall = "degraded"
        }
        return c.JSON(status, echo.Map{"status": overall, "checks": results})
    }
}
