package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Comercio-api/internal/application/dto"
	"github.com/jhoicas/Comercio-api/pkg/jwt"
)

// Locals keys para los claims del actor en Fiber.
const (
	LocalUserID   = "user_id"
	LocalRole     = "role"
	LocalStoreIDs = "store_ids"
)

// AuthMiddleware valida el Bearer Token JWT y extrae el actor a c.Locals.
// Toda mutación de stock o factura exige un actor identificado: sin token
// válido no hay userID y la petición no llega al caso de uso.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalRole, claims.Role)
		c.Locals(LocalStoreIDs, claims.StoreIDs)
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetRole devuelve el rol del actor.
func GetRole(c *fiber.Ctx) string {
	v := c.Locals(LocalRole)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// CanAccessStore indica si el actor tiene acceso a la tienda. Los admin
// acceden a todas; el resto solo a las tiendas listadas en sus claims.
func CanAccessStore(c *fiber.Ctx, storeID string) bool {
	if GetRole(c) == "admin" {
		return true
	}
	v := c.Locals(LocalStoreIDs)
	ids, _ := v.([]string)
	for _, id := range ids {
		if id == storeID {
			return true
		}
	}
	return false
}

// RequireStoreAccess corta con 403 si el actor no tiene acceso a la tienda.
// El *fiber.Error que devuelve lo traduce ErrorHandler a JSON.
func RequireStoreAccess(c *fiber.Ctx, storeID string) error {
	if storeID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "storeId requerido")
	}
	if !CanAccessStore(c, storeID) {
		return fiber.NewError(fiber.StatusForbidden, "acceso denegado a la tienda")
	}
	return nil
}
