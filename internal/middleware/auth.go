package middleware

import (
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

const msgUnauthorized = "Unauthorized: invalid or expired token"

// JWTProtected verifies the bearer access token and stores it in locals
// under "user". Tokens without a UUID subject are rejected.
func JWTProtected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(secret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			if _, err := GetUserID(c); err != nil {
				return unauthorized(c)
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return unauthorized(c)
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: msgUnauthorized,
	})
}
