package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"stickerlab/backend/internal/auth"
	"stickerlab/backend/internal/models"
	"stickerlab/backend/internal/store"
	"stickerlab/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// region --- DTOs ---

// SignupInput defines the structure for user registration.
type SignupInput struct {
	Name     string `json:"name" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"secret123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"secret123"`
}

// SignupResponse is returned after a successful registration.
type SignupResponse struct {
	Success bool         `json:"success" example:"true"`
	User    UserResponse `json:"user"`
	Message string       `json:"message" example:"Account created successfully"`
	Token   string       `json:"token"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Success bool         `json:"success" example:"true"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// MeResponse describes the session user.
type MeResponse struct {
	Success bool         `json:"success" example:"true"`
	User    UserResponse `json:"user"`
}

// endregion

// Signup godoc
// @Summary      Register a new user
// @Description  Creates an account and starts a session. Users created implicitly by an earlier sticker are claimed by setting their password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body SignupInput true "Registration Info"
// @Success      200  {object}  SignupResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	if len(input.Password) < minPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters long"})
		return
	}

	ctx := c.Request.Context()
	existing, err := h.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("signup: lookup %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}
	if existing != nil && existing.PasswordHash != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	hash := string(hashedPassword)
	name := strings.TrimSpace(input.Name)

	var user *models.User
	if existing != nil {
		update := store.UserUpdate{PasswordHash: &hash}
		if name != "" {
			update.Name = &name
		}
		user, err = h.users.UpdateUser(ctx, existing.ID, update)
	} else {
		user, err = h.users.CreateUser(ctx, store.UserInput{Email: email, Name: name, PasswordHash: &hash})
		// A concurrent request may have registered the email in between.
		if err == nil && (user.PasswordHash == nil || *user.PasswordHash != hash) {
			if user.PasswordHash != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
				return
			}
			update := store.UserUpdate{PasswordHash: &hash}
			if name != "" {
				update.Name = &name
			}
			user, err = h.users.UpdateUser(ctx, user.ID, update)
		}
	}
	if err != nil {
		log.Printf("signup: save %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := h.startSession(c, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, SignupResponse{
		Success: true,
		User:    newUserResponse(*user),
		Message: "Account created successfully",
		Token:   token,
	})
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates with email and password, returns a token and sets the session cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  LoginResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("login: lookup %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}
	if user == nil || user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.startSession(c, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token, User: newUserResponse(*user)})
}

// Logout godoc
// @Summary      Log out
// @Description  Clears the session cookie.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Me godoc
// @Summary      Get current user's info
// @Description  Returns the user behind the current session.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MeResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	session, _ := auth.SessionFrom(c)

	var (
		user *models.User
		err  error
	)
	if session.UserID != "" {
		user, err = h.users.GetUserByID(c.Request.Context(), session.UserID)
	} else {
		user, err = h.users.GetUserByEmail(c.Request.Context(), session.Email)
	}
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("me: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{Success: true, User: newUserResponse(*user)})
}

// startSession issues a token for user and stores it in the session cookie.
func (h *Handler) startSession(c *gin.Context, user *models.User) (string, error) {
	token, err := jwt.GenerateToken(h.cfg.JWTSecret, user.ID, user.Email, h.cfg.SessionTTL)
	if err != nil {
		log.Printf("session: sign token: %v", err)
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(h.cfg.SessionTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	return token, nil
}
