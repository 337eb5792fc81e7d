package billing

import (
	"errors"
	"net/http"

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
	g := api.Group("/payments")

	g.POST("/create", h.Create)
	g.POST("/verify/:id", h.Verify)
	g.PUT("/complete/:id", h.Complete, auth.RequireRole("doctor"))
	g.GET("/my-payments", h.MyPayments)
}

// RegisterPublicRoutes mounts the endpoints the unauthenticated booking
// page uses.
func (h *Handler) RegisterPublicRoutes(api *echo.Group) {
	api.POST("/payments/generate-qr", h.GenerateQR)
}

type createRequest struct {
	AppointmentID *uuid.UUID `json:"appointment_id"`
	OperationID   *uuid.UUID `json:"operation_id"`
	Amount        string     `json:"amount"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var userHospitalID *uuid.UUID
	if hid, err := uuid.Parse(auth.HospitalIDFromContext(c.Request().Context())); err == nil {
		userHospitalID = &hid
	}

	pr, svcErr := h.svc.Create(c.Request().Context(), userID, userHospitalID, CreateRequest{
		AppointmentID: req.AppointmentID,
		OperationID:   req.OperationID,
		Amount:        req.Amount,
	})
	if svcErr != nil {
		switch {
		case errors.Is(svcErr, ErrBookingRequired), errors.Is(svcErr, ErrNoHospital):
			return echo.NewHTTPError(http.StatusBadRequest, svcErr.Error())
		case errors.Is(svcErr, ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, svcErr.Error())
		case errors.Is(svcErr, ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, svcErr.Error())
		}
		return svcErr
	}
	return c.JSON(http.StatusCreated, pr)
}

func (h *Handler) Verify(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Verify(c.Request().Context(), id, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"payment_id":     p.ID,
		"status":         p.Status,
		"transaction_id": p.TransactionID,
		"amount":         p.Amount,
	})
}

type completeRequest struct {
	UPITransactionID string `json:"upi_transaction_id"`
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, svcErr := h.svc.Complete(c.Request().Context(), id, req.UPITransactionID)
	if svcErr != nil {
		switch {
		case errors.Is(svcErr, ErrPaymentNotFound):
			return echo.NewHTTPError(http.StatusNotFound, svcErr.Error())
		case errors.Is(svcErr, ErrAlreadyCompleted):
			return echo.NewHTTPError(http.StatusBadRequest, svcErr.Error())
		}
		return svcErr
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Payment marked as completed",
		"payment": p,
	})
}

func (h *Handler) MyPayments(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	payments, err := h.svc.MyPayments(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

type qrRequest struct {
	UPIID         string `json:"upi_id"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transaction_id"`
}

func (h *Handler) GenerateQR(c echo.Context) error {
	var req qrRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UPIID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "upi_id is required")
	}
	qr, _ := h.svc.GenerateQR(req.UPIID, req.Amount, req.TransactionID)
	amount := req.Amount
	if amount == "" {
		amount = DefaultAmount
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"qr_code": qr,
		"upi_id":  req.UPIID,
		"amount":  amount,
	})
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	return id, nil
}
