package usecase

import (
	"settlement-core/internal/domain/user"
	"settlement-core/internal/pkg/config"
	"settlement-core/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errs.New("invalid or expired token")

// TokenValidator checks an access token and extracts the caller identity.
type TokenValidator interface {
	ValidateToken(token string) (uuid.UUID, user.Role, error)
}

type jwtTokenValidator struct {
	secret []byte
}

func NewTokenValidator(cfg config.JWTConfig) TokenValidator {
	return &jwtTokenValidator{secret: []byte(cfg.Secret)}
}

func (v *jwtTokenValidator) ValidateToken(tokenString string) (uuid.UUID, user.Role, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return uuid.Nil, "", errs.Mark(err, ErrInvalidToken)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", errs.Mark(err, ErrInvalidToken)
	}

	roleClaim, _ := claims["role"].(string)
	role := user.Role(roleClaim)
	if !role.IsValid() {
		return uuid.Nil, "", ErrInvalidToken
	}

	return userID, role, nil
}
