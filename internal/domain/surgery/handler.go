package surgery

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebook/carebook/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/operations")

	g.POST("/book", h.Book, auth.RequireRole("patient", "pharma"))
	g.GET("/my-operations", h.MyOperations)
	g.GET("/doctor-operations", h.DoctorOperations, auth.RequireRole("doctor"))
	g.GET("/by-specialty/:specialty", h.BySpecialty)

	g.PUT("/:id/confirm", h.Confirm, auth.RequireRole("doctor"))
	g.PUT("/:id/cancel", h.Cancel)
}

type bookRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	Specialty string    `json:"specialty"`
	Date      string    `json:"date"`
	Notes     *string   `json:"notes"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	op, svcErr := h.svc.Book(c.Request().Context(), userID, BookingRequest{
		DoctorID:  req.DoctorID,
		Specialty: req.Specialty,
		Date:      date,
		Notes:     req.Notes,
	})
	if svcErr != nil {
		switch {
		case errors.Is(svcErr, ErrPastDate), errors.Is(svcErr, ErrMissingSpecialty):
			return echo.NewHTTPError(http.StatusBadRequest, svcErr.Error())
		case errors.Is(svcErr, ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, svcErr.Error())
		}
		return svcErr
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":   "Operation booked successfully",
		"operation": op,
	})
}

func (h *Handler) MyOperations(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ops, err := h.svc.MyOperations(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ops)
}

func (h *Handler) DoctorOperations(c echo.Context) error {
	doctorID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ops, err := h.svc.DoctorOperations(c.Request().Context(), doctorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ops)
}

func (h *Handler) BySpecialty(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ops, err := h.svc.BySpecialty(ctx, c.Param("specialty"), userID, auth.RoleFromContext(ctx))
	if err != nil {
		if errors.Is(err, ErrMissingSpecialty) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, ops)
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doctorID, err := currentUserID(c)
	if err != nil {
		return err
	}
	op, err := h.svc.Confirm(c.Request().Context(), id, doctorID)
	if err != nil {
		return mapLifecycleErr(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Operation confirmed",
		"operation": op,
	})
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	op, err := h.svc.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return mapLifecycleErr(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Operation cancelled",
		"operation": op,
	})
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	return id, nil
}

func mapLifecycleErr(err error) error {
	switch {
	case errors.Is(err, ErrOperationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
