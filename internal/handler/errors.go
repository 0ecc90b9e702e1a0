package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/ledger"
    "github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/repository"
)

// Error kinds returned in the "error" field of every failure body.
const (
    KindCapacityExceeded   = "CapacityExceeded"
    KindInvalidRelease     = "InvalidRelease"
    KindNotFound           = "NotFound"
    KindStorageUnavailable = "StorageUnavailable"
    KindInvalidRequest     = "InvalidRequest"
    KindBookingNotActive   = "BookingNotActive"
    KindInternal           = "Internal"
)

// writeError maps err to a status and a { error, message } body.  Only
// validation failures echo the error text, which is ours; storage and
// unexpected errors get a fixed message and are logged instead.
func writeError(c echo.Context, err error) error {
    status, kind, msg := http.StatusInternalServerError, KindInternal, "unexpected error"
    switch {
    case errors.Is(err, ledger.ErrInvalidRequest):
        status, kind, msg = http.StatusBadRequest, KindInvalidRequest, err.Error()
    case errors.Is(err, ledger.ErrCapacityExceeded):
        status, kind, msg = http.StatusConflict, KindCapacityExceeded, "not enough seats available"
    case errors.Is(err, ledger.ErrInvalidRelease):
        status, kind, msg = http.StatusBadRequest, KindInvalidRelease, "cannot release more seats than are booked"
    case errors.Is(err, ledger.ErrNotFound):
        status, kind, msg = http.StatusNotFound, KindNotFound, "travel unit not found"
    case errors.Is(err, repository.ErrBookingNotFound):
        status, kind, msg = http.StatusNotFound, KindNotFound, "booking not found"
    case errors.Is(err, repository.ErrBookingNotActive):
        status, kind, msg = http.StatusConflict, KindBookingNotActive, "booking is already cancelled"
    case errors.Is(err, ledger.ErrStorageUnavailable):
        status, kind, msg = http.StatusServiceUnavailable, KindStorageUnavailable, "storage temporarily unavailable, retry later"
    }
    if status >= http.StatusInternalServerError {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    }
    return c.JSON(status, echo.Map{"error": kind, "message": msg})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": KindInvalidRequest, "message": msg})
}
