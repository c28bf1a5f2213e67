package middleware

import "github.com/labstack/echo/v4"

// SellerMiddleware lifts the seller identity from the X-Seller-Id header into
// the request context. Real authentication lives in front of this service;
// later we can expand this to jwt auth or session auth.
func SellerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("seller_id", c.Request().Header.Get("X-Seller-Id"))
			return next(c)
		}
	}
}
