package services

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/whisperbox/whisperbox-be/internal/apperr"
	"github.com/whisperbox/whisperbox-be/internal/database"
	"github.com/whisperbox/whisperbox-be/internal/mailer"
	"github.com/whisperbox/whisperbox-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// How long a verification code stays valid.
const verifyCodeTTL = time.Hour

// UserServiceProvider defines the interface for user account services.
type UserServiceProvider interface {
	Register(username, email, password string) (models.User, error)
	VerifyCode(username, code string) error
	ResendCode(email string) error
	Authenticate(identifier, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
}

// UserService provides business logic for registration, email verification
// and credential authentication.
type UserService struct {
	db   *database.Store
	mail mailer.Mailer
}

// NewUserService creates a new UserService.
func NewUserService(db *database.Store, mail mailer.Mailer) *UserService {
	return &UserService{db: db, mail: mail}
}

// Register creates a new unverified account, or refreshes the password and
// verification code of an existing unverified account with the same email.
// A verification code is issued and mailed on every success path; a mail
// delivery failure is surfaced but does not roll back the stored record.
func (s *UserService) Register(username, email, password string) (models.User, error) {
	var existingID string
	err := s.db.QueryRow("SELECT id FROM users WHERE username = ?", username).Scan(&existingID)
	if err == nil {
		return models.User{}, apperr.ErrUsernameTaken
	}
	if err != sql.ErrNoRows {
		return models.User{}, fmt.Errorf("failed to look up username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := s.getUserBy("email", email)
	switch {
	case err == nil:
		if existing.IsVerified {
			return models.User{}, apperr.ErrEmailAlreadyVerified
		}
		// Unverified re-registration acts as a resend: take the new
		// password and issue a fresh code on the existing record.
		_, err = s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), existing.ID)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to update password: %w", err)
		}
	case err == sql.ErrNoRows:
		existing = models.User{
			ID:                  uuid.New().String(),
			Username:            username,
			Email:               email,
			IsVerified:          false,
			IsAcceptingMessages: true,
			CreatedAt:           time.Now().UTC(),
		}

		stmt, err := s.db.Prepare(`INSERT INTO users
			(id, username, email, password_hash, is_verified, is_accepting_messages, created_at)
			VALUES (?, ?, ?, ?, 0, 1, ?)`)
		if err != nil {
			return models.User{}, err
		}
		defer stmt.Close()

		if _, err = stmt.Exec(existing.ID, existing.Username, existing.Email, string(hashedPassword), existing.CreatedAt); err != nil {
			if database.IsUniqueConstraintErr(err) {
				return models.User{}, apperr.ErrUsernameTaken
			}
			return models.User{}, fmt.Errorf("failed to create user: %w", err)
		}
	default:
		return models.User{}, fmt.Errorf("failed to look up email: %w", err)
	}

	if err := s.issueCode(&existing); err != nil {
		return models.User{}, err
	}

	existing.PasswordHash = ""
	return existing, nil
}

// issueCode generates a fresh 6-digit code, persists it with a one-hour
// expiry and hands it to the mail collaborator. The code stays stored even
// when delivery fails.
func (s *UserService) issueCode(user *models.User) error {
	code, err := generateVerifyCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}
	expiry := time.Now().UTC().Add(verifyCodeTTL)

	_, err = s.db.Exec("UPDATE users SET verify_code = ?, verify_code_expiry = ? WHERE id = ?",
		code, expiry, user.ID)
	if err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	user.VerifyCode = &code
	user.VerifyCodeExpiry = &expiry

	if err := s.mail.SendVerificationCode(user.Email, user.Username, code); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrDeliveryFailed, err)
	}
	return nil
}

// generateVerifyCode returns a uniformly random 6-digit numeric code.
func generateVerifyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// VerifyCode checks a submitted code for the given username. Expiry is
// checked before the comparison, so an expired code reports expiry even when
// it also does not match.
func (s *UserService) VerifyCode(username, code string) error {
	decoded, err := url.QueryUnescape(username)
	if err != nil {
		return apperr.ErrValidation
	}

	user, err := s.getUserBy("username", decoded)
	if err == sql.ErrNoRows {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if user.VerifyCodeExpiry == nil || !time.Now().Before(*user.VerifyCodeExpiry) {
		return apperr.ErrCodeExpired
	}
	if user.VerifyCode == nil || *user.VerifyCode != code {
		return apperr.ErrCodeMismatch
	}

	_, err = s.db.Exec("UPDATE users SET is_verified = 1, verify_code = NULL, verify_code_expiry = NULL WHERE id = ?", user.ID)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

// ResendCode issues a fresh verification code for an existing unverified
// account, decoupled from registration.
func (s *UserService) ResendCode(email string) error {
	user, err := s.getUserBy("email", email)
	if err == sql.ErrNoRows {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.IsVerified {
		return apperr.ErrEmailAlreadyVerified
	}
	return s.issueCode(&user)
}

// Authenticate verifies credentials against either the username or the email.
// Usernames cannot contain '@' and emails always do, so the two namespaces
// never overlap and the single OR query is deterministic.
func (s *UserService) Authenticate(identifier, password string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(`SELECT id, username, email, password_hash, is_verified, is_accepting_messages, created_at
		FROM users WHERE username = ? OR email = ? LIMIT 1`, identifier, identifier)
	var passwordHash sql.NullString
	err := row.Scan(&user.ID, &user.Username, &user.Email, &passwordHash,
		&user.IsVerified, &user.IsAcceptingMessages, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	// Accounts created through a non-credential provenance have no hash and
	// cannot sign in with a password.
	if !passwordHash.Valid || passwordHash.String == "" {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash.String), []byte(password)) != nil {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return models.User{}, apperr.ErrNotVerified
	}

	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	user, err := s.getUserBy("id", id)
	if err == sql.ErrNoRows {
		return models.User{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// getUserBy loads a full user record by a single column. The column name is
// always a compile-time constant, never caller input.
func (s *UserService) getUserBy(column, value string) (models.User, error) {
	var user models.User
	var passwordHash sql.NullString

	query := fmt.Sprintf(`SELECT id, username, email, password_hash, verify_code, verify_code_expiry,
		is_verified, is_accepting_messages, created_at FROM users WHERE %s = ?`, column)
	row := s.db.QueryRow(query, value)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &passwordHash,
		&user.VerifyCode, &user.VerifyCodeExpiry, &user.IsVerified,
		&user.IsAcceptingMessages, &user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	if passwordHash.Valid {
		user.PasswordHash = passwordHash.String
	}
	return user, nil
}
