// ABOUTME: HTTP handlers for registration, login, password reset and device unlinking
// ABOUTME: Request bodies use the camelCase field names of the mobile client

package api

import (
	"net/http"
	"time"

	"github.com/Vladimir-28/FitLife/internal/account"
	"github.com/Vladimir-28/FitLife/internal/store"
)

// UserResponse is the public view of an account. It never carries
// password or reset data.
type UserResponse struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	DeviceID *string `json:"deviceId"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

// ForgotPasswordResponse is returned by forgot-password. Token and
// ExpiresAt are only present when reset tokens are exposed.
type ForgotPasswordResponse struct {
	Message   string     `json:"message"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	DeviceID *string `json:"deviceId"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	DeviceID *string `json:"deviceId"`
}

// ResetRequest is the JSON body for the forgot, verify and reset endpoints.
type ResetRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// UnlinkDeviceRequest is the JSON body for POST /auth/unlink-device.
type UnlinkDeviceRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const forgotPasswordMessage = "Si el email está registrado, recibirás instrucciones para restablecer tu contraseña"

func toUserResponse(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, DeviceID: u.DeviceID}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// handleRegister handles POST /auth/register.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Name == nil || req.Email == nil || req.Password == nil {
		sendJSONError(w, http.StatusBadRequest, account.MsgMissingFields)
		return
	}

	session, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Name:     *req.Name,
		Email:    *req.Email,
		Password: *req.Password,
		DeviceID: deref(req.DeviceID),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "Usuario registrado correctamente",
		User:    toUserResponse(session.User),
		Token:   session.Token,
	})
}

// handleLogin handles POST /auth/login.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), account.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		DeviceID: deref(req.DeviceID),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login exitoso",
		User:    toUserResponse(session.User),
		Token:   session.Token,
	})
}

// handleForgotPassword handles POST /auth/forgot-password. The response is
// identical for registered, unknown and missing emails.
func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		req = ResetRequest{}
	}

	result, err := h.accounts.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := ForgotPasswordResponse{Message: forgotPasswordMessage}
	if result.Token != "" {
		resp.Token = result.Token
		resp.ExpiresAt = &result.ExpiresAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVerifyResetToken handles POST /auth/verify-reset-token.
func (h *Handler) handleVerifyResetToken(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.VerifyResetToken(r.Context(), req.Email, req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Token válido", "valid": true})
}

// handleResetPassword handles POST /auth/reset-password.
func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Contraseña actualizada correctamente"})
}

// handleUnlinkDevice handles POST /auth/unlink-device.
func (h *Handler) handleUnlinkDevice(w http.ResponseWriter, r *http.Request) {
	var req UnlinkDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.UnlinkDevice(r.Context(), req.Email, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Dispositivo desvinculado correctamente"})
}
