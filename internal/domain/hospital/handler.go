package hospital

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/hospitals")

	// Public surface: registration and the booking-page payment info.
	g.POST("/register", h.Register)
	g.GET("/payment-info", h.GetPaymentInfo)
	g.GET("/approved", h.ListApproved)

	g.GET("", h.List, auth.RequireRole("admin"))
	g.GET("/:id", h.Get)

	admin := g.Group("", auth.RequireRole("admin"))
	admin.PUT("/:id/approve", h.Approve)
	admin.PUT("/:id/reject", h.Reject)
	admin.PUT("/:id/whatsapp-settings", h.UpdateWhatsAppSettings)
	admin.GET("/:id/whatsapp-status", h.WhatsAppStatus)
	admin.POST("/:id/whatsapp-init", h.InitWhatsApp)
	admin.POST("/:id/whatsapp-close", h.CloseWhatsApp)
}

func (h *Handler) Register(c echo.Context) error {
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Register(c.Request().Context(), &hosp); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "hospital with this email already registered")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, hosp)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := c.QueryParam("status")
	items, total, err := h.svc.List(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListApproved(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListApproved(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.Approve(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "hospital approved",
		"hospital": hosp,
	})
}

func (h *Handler) Reject(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.Reject(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "hospital rejected",
		"hospital": hosp,
	})
}

func (h *Handler) GetPaymentInfo(c echo.Context) error {
	var hospitalID *uuid.UUID
	if hid := c.QueryParam("hospital_id"); hid != "" {
		id, err := uuid.Parse(hid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
		}
		hospitalID = &id
	}
	info, err := h.svc.GetPaymentInfo(c.Request().Context(), hospitalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) UpdateWhatsAppSettings(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var settings WhatsAppSettings
	if err := c.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hosp, err := h.svc.UpdateWhatsAppSettings(c.Request().Context(), id, settings)
	if err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":                        "whatsapp settings updated",
		"whatsapp_enabled":               hosp.WhatsAppEnabled,
		"whatsapp_confirmation_template": hosp.WhatsAppConfirmationTemplate,
		"whatsapp_followup_template":     hosp.WhatsAppFollowUpTemplate,
		"whatsapp_reminder_template":     hosp.WhatsAppReminderTemplate,
	})
}

func (h *Handler) WhatsAppStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	report, err := h.svc.WhatsAppStatus(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) InitWhatsApp(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	state, err := h.svc.InitWhatsApp(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "whatsapp session initialization started, scan the QR code to pair",
		"status":  state.Status,
	})
}

func (h *Handler) CloseWhatsApp(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.CloseWhatsApp(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "whatsapp session closed",
		"hospital_id": id,
	})
}
