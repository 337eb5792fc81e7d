package scheduling

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
	g := api.Group("/appointments")

	g.POST("/book", h.Book, auth.RequireRole("patient", "pharma"))
	g.GET("/available-slots", h.AvailableSlots)
	g.GET("/my-appointments", h.MyAppointments)
	g.GET("/doctor-appointments", h.DoctorAppointments, auth.RequireRole("doctor"))

	g.PUT("/:id/confirm", h.Confirm, auth.RequireRole("doctor"))
	g.PUT("/:id/cancel", h.Cancel)
	g.PUT("/:id/mark-visited", h.MarkVisited, auth.RequireRole("doctor"))
}

type bookRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	TimeSlot string    `json:"time_slot"`
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

	appt, svcErr := h.svc.Book(c.Request().Context(), userID, BookingRequest{
		DoctorID: req.DoctorID,
		Date:     date,
		TimeSlot: req.TimeSlot,
	})
	if svcErr != nil {
		switch {
		case errors.Is(svcErr, ErrInvalidSlot), errors.Is(svcErr, ErrPastDate):
			return echo.NewHTTPError(http.StatusBadRequest, svcErr.Error())
		case errors.Is(svcErr, ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, svcErr.Error())
		case errors.Is(svcErr, ErrSlotTaken):
			return echo.NewHTTPError(http.StatusConflict, svcErr.Error())
		}
		return svcErr
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":     "Appointment booked successfully",
		"appointment": appt,
	})
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	avail, err := h.svc.AvailableSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, avail)
}

func (h *Handler) MyAppointments(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	appts, err := h.svc.MyAppointments(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appts)
}

func (h *Handler) DoctorAppointments(c echo.Context) error {
	doctorID, err := currentUserID(c)
	if err != nil {
		return err
	}
	appts, err := h.svc.DoctorAppointments(c.Request().Context(), doctorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appts)
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
	appt, err := h.svc.Confirm(c.Request().Context(), id, doctorID)
	if err != nil {
		return mapLifecycleErr(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Appointment confirmed",
		"appointment": appt,
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
	appt, err := h.svc.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return mapLifecycleErr(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Appointment cancelled",
		"appointment": appt,
	})
}

type markVisitedRequest struct {
	FollowUpDate string `json:"followup_date"`
}

func (h *Handler) MarkVisited(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doctorID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req markVisitedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var followUp *time.Time
	if req.FollowUpDate != "" {
		d, err := time.Parse("2006-01-02", req.FollowUpDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "followup_date must be YYYY-MM-DD")
		}
		followUp = &d
	}
	appt, err := h.svc.MarkVisited(c.Request().Context(), id, doctorID, followUp)
	if err != nil {
		return mapLifecycleErr(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Appointment marked as visited",
		"appointment": appt,
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
	case errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
