package middleware

import (
	"github.com/driverlink/driverlink/internal/dto"
	"github.com/driverlink/driverlink/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminRequired checks the role claim first and falls back to the user's
// Role column, so a role change takes effect before the token expires.
func AdminRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid claims",
			})
		}

		if role, _ := claims["role"].(string); role == "admin" {
			return c.Next()
		}

		if sub, _ := claims["sub"].(string); sub != "" {
			if userID, err := uuid.Parse(sub); err == nil {
				var user models.User
				if err := db.First(&user, "id = ? AND active", userID).Error; err == nil && user.Role == "admin" {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}
