package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims extends JWT standard claims with operator fields.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int                `json:"operator_id"`
	Role       model.OperatorRole `json:"role"`
}

// AuthService handles operator authentication and JWT issuing.
type AuthService struct {
	cfg          *config.Config
	operatorRepo *repository.OperatorRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, operatorRepo *repository.OperatorRepository) *AuthService {
	return &AuthService{cfg: cfg, operatorRepo: operatorRepo}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies credentials and returns the operator with a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Operator, string, error) {
	op, err := s.operatorRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := s.CheckPassword(op.PasswordHash, password); err != nil {
		return nil, "", err
	}
	token, err := s.GenerateToken(op.ID, op.Role)
	if err != nil {
		return nil, "", err
	}
	return op, token, nil
}

// CreateOperator hashes the password and stores a new operator.
func (s *AuthService) CreateOperator(ctx context.Context, op *model.Operator, password string) error {
	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	op.PasswordHash = hash
	return s.operatorRepo.Create(ctx, op)
}

// GetOperator retrieves an operator by ID.
func (s *AuthService) GetOperator(ctx context.Context, id int) (*model.Operator, error) {
	return s.operatorRepo.GetByID(ctx, id)
}

// GenerateToken creates a JWT for an operator.
func (s *AuthService) GenerateToken(operatorID int, role model.OperatorRole) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(operatorID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		OperatorID: operatorID,
		Role:       role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
