package service

import (
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	pkgerrors "coderelay/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	jwt.RegisteredClaims
}

func (s *AuthService) generateToken(userID int64) (string, time.Time, error) {
	if len(s.config.JWTSecret) == 0 {
		return "", time.Time{}, pkgerrors.New(pkgerrors.TokenGenerationFailed)
	}

	now := s.now()
	expiresAt := now.Add(s.config.TokenTTL)
	tokenID, err := newTokenID()
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(err, pkgerrors.TokenGenerationFailed)
	}
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.config.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(fmt.Errorf("sign token failed: %w", err), pkgerrors.TokenGenerationFailed)
	}
	return raw, expiresAt, nil
}

func (s *AuthService) parseToken(raw string) (*tokenClaims, error) {
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}

	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.config.JWTSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgerrors.New(pkgerrors.TokenExpired)
		}
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if !parsed.Valid {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if claims.Issuer != s.config.JWTIssuer {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return claims, nil
}

func userIDFromClaims(claims *tokenClaims) (int64, error) {
	if claims == nil || claims.Subject == "" {
		return 0, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return userID, nil
}

func newTokenID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token id failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
