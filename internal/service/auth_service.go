package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"stockflow-backend/internal/mailer"
	"stockflow-backend/internal/model"
	"stockflow-backend/internal/repository"
	"stockflow-backend/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidResetLink   = errors.New("invalid or expired reset link")
)

type AuthService interface {
	Register(email, password, fullName string) (*model.User, error)
	Login(email, password string) (*LoginResponse, error)
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	// ForgotPassword issues a reset token and mails a reset link. It
	// reports success for unknown emails so the endpoint can't be used to
	// probe which accounts exist.
	ForgotPassword(email string) error
	ResetPassword(userID uuid.UUID, token, newPassword string) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type TokenValidationResponse struct {
	User model.UserResponse `json:"user"`
}

type authService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.TokenRepository
	mail        mailer.Mailer
	frontendURL string
	log         *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, mail mailer.Mailer, frontendURL string, log *zap.Logger) AuthService {
	return &authService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		mail:        mail,
		frontendURL: frontendURL,
		log:         log,
	}
}

func (s *authService) Register(email, password, fullName string) (*model.User, error) {
	if existing, _ := s.userRepo.FindByEmail(email); existing != nil {
		return nil, ErrEmailTaken
	}

	user := &model.User{
		Email:    email,
		FullName: fullName,
		IsActive: true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: rotating the token version invalidates every
	// previously issued JWT.
	user.TokenVersion = uuid.New().String()
	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.New("failed to update session")
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, errors.New("session expired (logged in on another device)")
	}

	return &TokenValidationResponse{User: user.ToResponse()}, nil
}

func (s *authService) ForgotPassword(email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		// Unknown email still looks like success to the caller
		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	resetToken := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(resetToken), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// Only the newest token stays valid
	if err := s.tokenRepo.Replace(&model.ResetToken{
		UserID:    user.ID,
		TokenHash: string(hash),
	}); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/reset?token=%s&id=%s", s.frontendURL, resetToken, user.ID)
	if err := s.mail.SendHTML(email, "Password Reset Request", resetEmailHTML(resetLink)); err != nil {
		s.log.Error("reset email failed", zap.String("to", email), zap.Error(err))
		return err
	}

	return nil
}

func (s *authService) ResetPassword(userID uuid.UUID, token, newPassword string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return ErrInvalidResetLink
	}

	tokenDoc, err := s.tokenRepo.FindByUser(user.ID)
	if err != nil {
		return ErrInvalidResetLink
	}

	if tokenDoc.Expired() {
		s.tokenRepo.Delete(tokenDoc)
		return ErrInvalidResetLink
	}

	if bcrypt.CompareHashAndPassword([]byte(tokenDoc.TokenHash), []byte(token)) != nil {
		return ErrInvalidResetLink
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash new password")
	}

	if err := s.userRepo.UpdatePassword(user.ID, string(hashed)); err != nil {
		return err
	}

	return s.tokenRepo.Delete(tokenDoc)
}

func resetEmailHTML(resetLink string) string {
	return fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
          <h2 style="color: #007bff;">Password Reset Request</h2>
          <p style="color: #333;">You requested for a password reset.</p>
          <p style="color: #333;">Click the button below to reset your password:</p>
          <p style="text-align: center;">
            <a href="%s" style="background-color: #007bff; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a>
          </p>
          <p style="color: #333;">If you didn't request this reset, you can ignore this email.</p>
        </div>`, resetLink)
}
