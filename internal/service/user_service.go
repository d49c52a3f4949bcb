package service

import (
	"context"
	"strings"
	"time"

	"billiard-pos/internal/models"
	"billiard-pos/internal/store"
	"billiard-pos/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles staff accounts and JWT credentials.
type UserService struct {
	store    *store.Store
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store *store.Store, secret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   util.GetLogger(),
	}
}

// AuthClaims is the JWT payload issued on login.
type AuthClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest authenticates a staff member
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest provisions a staff account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=4"`
	Role     string `json:"role" binding:"required,oneof=admin staff kitchen"`
}

// Login verifies credentials and issues a signed token. Legacy rows that
// still store the password in plaintext are upgraded to bcrypt on the
// first successful login.
func (us *UserService) Login(ctx context.Context, req *LoginRequest) (string, *models.User, error) {
	u, err := us.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, &models.AuthError{Msg: "invalid credentials"}
	}

	ok := false
	if strings.HasPrefix(u.PasswordHash, "$2") {
		ok = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) == nil
	} else if u.PasswordHash == req.Password {
		ok = true
		if hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost); err == nil {
			if err := us.store.UpdatePasswordHash(ctx, u.ID, string(hash)); err != nil {
				us.logger.Warn("Failed to upgrade legacy password hash",
					zap.Int64("user_id", u.ID),
					zap.Error(err))
			}
		}
	}
	if !ok {
		return "", nil, &models.AuthError{Msg: "invalid credentials"}
	}

	token, err := us.issueToken(u)
	if err != nil {
		return "", nil, err
	}

	us.logger.Info("User logged in",
		zap.Int64("user_id", u.ID),
		zap.String("role", u.Role))
	return token, u, nil
}

func (us *UserService) issueToken(u *models.User) (string, error) {
	now := time.Now()
	claims := &AuthClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(us.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(us.secret)
}

// ParseToken validates a token and resolves the auth context.
func (us *UserService) ParseToken(tokenString string) (*models.AuthContext, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &models.AuthError{Msg: "unexpected signing method"}
		}
		return us.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, &models.AuthError{Msg: "session expired"}
	}
	return &models.AuthContext{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// List returns all accounts, passwords omitted.
func (us *UserService) List(ctx context.Context) ([]models.User, error) {
	return us.store.ListUsers(ctx)
}

// Create provisions an account with a bcrypt-hashed password.
func (us *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if len(req.Username) < 3 {
		return nil, models.Validationf("username must have at least 3 characters")
	}
	if len(req.Password) < 4 {
		return nil, models.Validationf("password must have at least 4 characters")
	}
	switch req.Role {
	case models.RoleAdmin, models.RoleStaff, models.RoleKitchen:
	default:
		return nil, models.Validationf("unknown role %q", req.Role)
	}

	existing, err := us.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.Conflictf("username %q is already taken", req.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := us.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	us.logger.Info("User created",
		zap.Int64("user_id", u.ID),
		zap.String("role", u.Role))
	return u, nil
}

// AuditTrail lists the most recent forensic change-log entries for the
// admin view.
func (us *UserService) AuditTrail(ctx context.Context) ([]models.AuditEntry, error) {
	return us.store.ListAuditLog(ctx)
}

// Delete removes an account. An admin cannot delete their own session's
// account.
func (us *UserService) Delete(ctx context.Context, id, callerID int64) error {
	if id == callerID {
		return models.Validationf("cannot delete the currently logged-in account")
	}
	if err := us.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	us.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}
