package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/museumtech/exhibition-manager/internal/config"
	"github.com/museumtech/exhibition-manager/internal/repository"
	"github.com/museumtech/exhibition-manager/internal/utils"
)

// AuthHandler bundles dependencies for the admin auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AdminRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Admins: a}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

type authResp struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    userPart `json:"user"`
}

// Register creates an admin account and returns a token immediately so
// the console can log the new admin straight in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email and password are required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Admins.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"message": "User already exists with this email."})
		}
		log.Printf("register: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration."})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, req.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		log.Printf("register: issue token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during registration."})
	}

	return c.JSON(http.StatusCreated, authResp{
		Message: "User registered successfully.",
		Token:   access.Token,
		User:    userPart{ID: id, Email: req.Email},
	})
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password produce the same response on purpose.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email and password are required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials."})
		}
		log.Printf("login: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during login."})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials."})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		log.Printf("login: issue token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during login."})
	}

	return c.JSON(http.StatusOK, authResp{
		Message: "Logged in successfully.",
		Token:   access.Token,
		User:    userPart{ID: u.ID, Email: u.Email},
	})
}

// Logout is a stateless acknowledgment. Tokens are not tracked server-side
// and remain valid until natural expiry; the client clears its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully. Please clear your token client-side."})
}
