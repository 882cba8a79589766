package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	AdminID string `json:"admin_id"`
	jwt.RegisteredClaims
}
