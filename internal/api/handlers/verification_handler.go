package handlers

import (
	"fmt"
	"net/http"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type VerificationHandler struct {
	otp OTPService
	log logger.Logger
}

func NewVerificationHandler(otp OTPService, log logger.Logger) *VerificationHandler {
	return &VerificationHandler{otp: otp, log: log}
}

func (h *VerificationHandler) SendOTP(c echo.Context) error {
	var req SendOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.otp.SendOTP(c.Request().Context(), req.Mobile); err != nil {
		return err
	}
	return respond(c, http.StatusAccepted, map[string]bool{"sent": true})
}

func (h *VerificationHandler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ok, err := h.otp.VerifyOTP(c.Request().Context(), req.Mobile, req.Code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: invalid or expired code", domain.ErrBadRequest)
	}
	return respond(c, http.StatusOK, map[string]bool{"verified": true})
}
