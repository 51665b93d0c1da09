// Package respond renders the JSON envelope every service answers with:
// {"success": bool, "message": string, "data": ...}.
package respond

import "github.com/labstack/echo/v4"

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func Message(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{Success: true, Message: msg})
}

func Error(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{Success: false, Message: msg})
}
