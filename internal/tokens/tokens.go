package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yanote/notes/backend/go-services/internal/config"
	"github.com/yanote/notes/backend/go-services/internal/models"
	"github.com/yanote/notes/backend/go-services/pkg/middleware"
)

var ErrNoExpiry = errors.New("access token has no exp claim")

// GenerateAccessToken creates a signed HS256 access token for the user.
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.Sub,
		"uid":   u.ID,
		"name":  u.Name,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// Verifier checks access tokens issued by GenerateAccessToken.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, ErrNoExpiry
	}
	return mapToken(claims), nil
}

// ExpiresAt returns the exp claim of a token this Verifier accepts.
func (v *Verifier) ExpiresAt(ctx context.Context, raw string) (time.Time, error) {
	tok, err := v.Verify(ctx, raw)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := tok.(mapToken).GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

type mapToken jwt.MapClaims

func (t mapToken) Claims(v interface{}) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (t mapToken) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.MapClaims(t).GetExpirationTime()
}
