package middleware

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// TokenVerifier is satisfied by *auth.Client
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserStore resolves and provisions the community user behind a Firebase identity
type UserStore interface {
	GetUserByFirebaseUID(firebaseUID string) (*models.User, error)
	CreateUser(user *models.User) error
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and resolves the
// caller to a community user id. A first visit provisions the profile
// from the token's name and email claims.
func FirebaseAuthMiddleware(verifier TokenVerifier, users UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			user, err := users.GetUserByFirebaseUID(token.UID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				user, err = provision(users, token)
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user")
			}

			c.Set("firebaseUID", token.UID)
			c.Set(ContextUserID, user.ID)

			return next(c)
		}
	}
}

func provision(users UserStore, token *auth.Token) (*models.User, error) {
	uid := token.UID
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if name == "" {
		name = uid
	}
	user := &models.User{
		Name:        name,
		DisplayName: name,
		FirebaseUID: &uid,
	}
	if email != "" {
		user.Email = &email
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		user.AvatarURL = picture
	}
	if err := users.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}
