package api

import (
	"net/http"

	"github.com/nimburion/catalog/pkg/accounts"
	"github.com/nimburion/catalog/pkg/server/router"
)

// UserHandler serves the /users routes. Every answer is a bare JSON string
// with status 200, including failures.
type UserHandler struct {
	service *accounts.Service
}

func NewUserHandler(service *accounts.Service) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Login(c router.Context) error {
	var in accounts.Credentials
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusOK, accounts.Fail)
	}
	return c.JSON(http.StatusOK, h.service.Login(c.Request().Context(), in))
}

func (h *UserHandler) Signup(c router.Context) error {
	var in accounts.Registration
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusOK, accounts.Fail)
	}
	return c.JSON(http.StatusOK, h.service.Signup(c.Request().Context(), in))
}
