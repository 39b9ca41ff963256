package services

import (
	"errors"
	"time"

	"wayfarer/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	DisplayName  string `json:"display_name"`
	PhotoURL     string `json:"photo_url"`
	LanguageCode string `json:"language_code"`
	jwt.RegisteredClaims
}

type Authentication struct {
	secret string
}

func NewAuthentication(secret string) (*Authentication, error) {
	if secret == "" {
		return nil, errors.New("empty jwt secret")
	}
	return &Authentication{secret}, nil
}

func (authentication *Authentication) CreateToken(user *models.UserFromAuth) (string, error) {
	claims := CustomClaims{
		DisplayName:  user.DisplayName,
		PhotoURL:     user.PhotoURL,
		LanguageCode: user.LanguageCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authentication.secret))
}

func (authentication *Authentication) Validate(token string) (*models.UserFromAuth, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return []byte(authentication.secret), nil
	}
	jwtToken, err := jwt.ParseWithClaims(token, &CustomClaims{}, keyFunc)
	if err != nil {
		return nil, err
	}

	claims, ok := jwtToken.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return &models.UserFromAuth{
		ID:           claims.Subject,
		DisplayName:  claims.DisplayName,
		PhotoURL:     claims.PhotoURL,
		LanguageCode: claims.LanguageCode,
	}, nil
}
