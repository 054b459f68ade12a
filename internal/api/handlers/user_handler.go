package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/whisperbox/whisperbox-be/internal/apperr"
	"github.com/whisperbox/whisperbox-be/internal/auth"
	"github.com/whisperbox/whisperbox-be/internal/models"
	"github.com/whisperbox/whisperbox-be/internal/services"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service  services.UserServiceProvider
	tokens   *auth.Manager
	baseURL  string
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.Manager, baseURL string) *UserHandler {
	v := validator.New()
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return &UserHandler{
		service:  service,
		tokens:   tokens,
		baseURL:  strings.TrimRight(baseURL, "/"),
		validate: v,
	}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=50"`
}

// VerifyPayload defines the structure for code-verification requests.
type VerifyPayload struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,number"`
}

// ResendPayload defines the structure for resend-code requests.
type ResendPayload struct {
	Email string `json:"email" validate:"required,email"`
}

// SignInPayload defines the structure for sign-in requests. The identifier
// matches either the username or the email.
type SignInPayload struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

type meResponse struct {
	Success    bool        `json:"success"`
	User       models.User `json:"user"`
	ProfileURL string      `json:"profileUrl"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeBody(r, &payload); err != nil {
		respond(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respond(w, http.StatusBadRequest, false, validationMessage(err))
		return
	}

	_, err := h.service.Register(payload.Username, payload.Email, payload.Password)
	if err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		}
		respondError(w, err, map[error]string{
			apperr.ErrUsernameTaken:        "Username is already taken",
			apperr.ErrEmailAlreadyVerified: "An account with this email already exists and is verified",
			apperr.ErrDeliveryFailed:       "Failed to send verification email",
		})
		return
	}

	respond(w, http.StatusCreated, true, "User registered successfully. Please verify your email")
}

// VerifyCode handles email-ownership verification.
func (h *UserHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var payload VerifyPayload
	if err := decodeBody(r, &payload); err != nil {
		respond(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respond(w, http.StatusBadRequest, false, validationMessage(err))
		return
	}

	if err := h.service.VerifyCode(payload.Username, payload.Code); err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to verify user")
		}
		respondError(w, err, map[error]string{
			apperr.ErrNotFound:     "User not found",
			apperr.ErrCodeExpired:  "Verification code has expired, please sign up again to get a new code",
			apperr.ErrCodeMismatch: "Incorrect verification code",
			apperr.ErrValidation:   "Invalid username",
		})
		return
	}

	respond(w, http.StatusOK, true, "Account verified successfully")
}

// ResendCode issues a fresh verification code for an unverified account.
func (h *UserHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var payload ResendPayload
	if err := decodeBody(r, &payload); err != nil {
		respond(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respond(w, http.StatusBadRequest, false, validationMessage(err))
		return
	}

	if err := h.service.ResendCode(payload.Email); err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("email", payload.Email).Msg("Failed to resend verification code")
		}
		respondError(w, err, map[error]string{
			apperr.ErrNotFound:             "User not found",
			apperr.ErrEmailAlreadyVerified: "Account is already verified",
			apperr.ErrDeliveryFailed:       "Failed to send verification email",
		})
		return
	}

	respond(w, http.StatusOK, true, "Verification code sent")
}

// SignIn handles credential authentication and session issuance.
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var payload SignInPayload
	if err := decodeBody(r, &payload); err != nil {
		respond(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respond(w, http.StatusBadRequest, false, validationMessage(err))
		return
	}

	user, err := h.service.Authenticate(payload.Identifier, payload.Password)
	if err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("identifier", payload.Identifier).Msg("Failed to authenticate user")
		} else {
			log.Warn().Str("identifier", payload.Identifier).Msg("Failed authentication attempt")
		}
		respondError(w, err, map[error]string{
			apperr.ErrInvalidCredentials: "Invalid credentials",
			apperr.ErrNotVerified:        "Please verify your account before signing in",
		})
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate session token")
		respond(w, http.StatusInternalServerError, false, "Internal server error")
		return
	}
	h.tokens.SetSessionCookie(w, token)

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   token,
		User:    &user,
	})
}

// SignOut clears the session cookie.
func (h *UserHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.tokens.ClearSessionCookie(w)
	respond(w, http.StatusOK, true, "Signed out successfully")
}

// GetMe retrieves the currently authenticated user and their shareable
// profile link.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		respond(w, http.StatusInternalServerError, false, "Internal server error")
		return
	}

	user, err := h.service.GetUserByID(claims.UserID)
	if err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load user")
		}
		respondError(w, err, map[error]string{
			apperr.ErrNotFound: "User not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Success:    true,
		User:       user,
		ProfileURL: h.baseURL + "/u/" + user.Username,
	})
}
