package helpers

import (
	"errors"
	"strings"
	"time"

	"console/internal/configuration"
	"console/internal/models"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NewAccessToken mints a full access token for the emulator's accounts.
func NewAccessToken(jwtSecret string, accountID uuid.UUID, email string) (string, error) {
	claims := models.AccountClaims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    configuration.AppName,
			Subject:   email,
			Audience:  jwt.ClaimStrings{configuration.AudienceAccessToken},
			IssuedAt:  &jwt.NumericDate{Time: time.Now()},
			ExpiresAt: &jwt.NumericDate{Time: time.Now().Add(time.Minute * configuration.AccessTokenExpiry)},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ParseAccessToken parses and validates a bearer token: signature and expiry.
func ParseAccessToken(jwtSecret string, tokenString string) (models.AccountClaims, error) {
	if !strings.HasPrefix(tokenString, "Bearer ") {
		return models.AccountClaims{}, errors.New("invalid token")
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	claims := &models.AccountClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(jwtSecret), nil
		},
	)
	if err != nil {
		return models.AccountClaims{}, errors.New("invalid token")
	}

	return *claims, nil
}

// TokenSubject extracts the subject identity from an access token without
// verifying it. The console is not in possession of the signing secret; the
// subject is only used for display and for the backup-codes export header.
func TokenSubject(tokenString string) string {
	parser := jwt.NewParser()
	claims := &models.AccountClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	if claims.Email != "" {
		return claims.Email
	}
	return claims.Subject
}

func CreateHash(password string) (string, error) {
	argonParams := argon2id.Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  32,
		KeyLength:   32,
	}
	hash, err := argon2id.CreateHash(password, &argonParams)
	if err != nil {
		return "", errors.New("can not create hash password")
	}

	return hash, nil
}
