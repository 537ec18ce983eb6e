package controller

import (
	"net/http"

	"coderelay/internal/user/service"
	pkgerrors "coderelay/pkg/errors"
	"coderelay/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// AuthController handles auth-related HTTP endpoints.
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController creates a new AuthController.
func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// SignupRequest defines signup payload.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupUser is the user view returned on signup.
type SignupUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginUser is the user view returned on login.
type LoginUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignupResponse is returned with 201 on signup.
type SignupResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    SignupUser `json:"user"`
}

// LoginResponse is returned with 200 on login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// Signup handles user registration.
func (h *AuthController) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, pkgerrors.BadRequest("Invalid request body"))
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.ErrorMessage(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, SignupResponse{
		Message: "Signup successful",
		Token:   result.Token,
		User: SignupUser{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
		},
	})
}

// Login handles user login.
func (h *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, pkgerrors.BadRequest("Invalid request body"))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		response.ErrorMessage(c, err)
		return
	}

	response.JSON(c, http.StatusOK, LoginResponse{
		Token: result.Token,
		User: LoginUser{
			Name:  result.User.Name,
			Email: result.User.Email,
		},
	})
}
