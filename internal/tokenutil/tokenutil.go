package tokenutil

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")

type JwtCustomClaims struct {
	Subject string `json:"sub_name"`
	jwt.RegisteredClaims
}

// CreateAccessToken 签发 HS256 令牌，jti 使用随机 UUID
func CreateAccessToken(subject, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &JwtCustomClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func IsAuthorized(requestToken, secret string) (bool, error) {
	if _, err := parse(requestToken, secret); err != nil {
		return false, err
	}
	return true, nil
}

func ExtractSubjectFromToken(requestToken, secret string) (string, error) {
	claims, err := parse(requestToken, secret)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func parse(requestToken, secret string) (*JwtCustomClaims, error) {
	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(requestToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashAccessKey 生成写入配置的 ACCESS_KEY_HASH
func HashAccessKey(accessKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(accessKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckAccessKey(hash, accessKey string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(accessKey)) == nil
}
