package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"owner_portal/internal/domain"
)

const tokenIssuer = "owner-portal"

// AuthService issues and verifies portal tokens and mediates account reads.
// Passwords are verified against bcrypt hashes only; there is no plaintext
// comparison path.
type AuthService struct {
	users  domain.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(users domain.UserRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Login verifies credentials and returns the user with a signed token.
// Unknown email and wrong password are indistinguishable to the caller.
func (a *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	u, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	tok, err := a.issueToken(u)
	if err != nil {
		return domain.User{}, "", err
	}
	return u, tok, nil
}

func (a *AuthService) issueToken(u domain.User) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"iss":   tokenIssuer,
		"sub":   strconv.FormatInt(u.ID, 10),
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(a.ttl).Unix(),
		"jti":   uuid.New().String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses and validates a bearer token, returning the user id.
func (a *AuthService) Verify(tokenStr string) (int64, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(func() time.Time { return a.now() }))
	if err != nil || !tok.Valid {
		return 0, domain.ErrInvalidCredentials
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.ErrInvalidCredentials
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, domain.ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidCredentials
	}
	return id, nil
}

func (a *AuthService) UserByID(ctx context.Context, id int64) (domain.User, error) {
	return a.users.UserByID(ctx, id)
}

func (a *AuthService) RegisterDeviceToken(ctx context.Context, userID int64, token, platform string) error {
	if token == "" {
		return newValidationError("token is required")
	}
	return a.users.SaveDeviceToken(ctx, domain.DeviceToken{UserID: userID, Token: token, Platform: platform})
}

// HashPassword is used by account provisioning tooling and tests.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
