package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nimburion/catalog/pkg/catalog"
	"github.com/nimburion/catalog/pkg/controller"
	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/server/router"
)

// ProductHandler serves the /products routes.
type ProductHandler struct {
	service *catalog.Service
	log     logger.Logger
}

func NewProductHandler(service *catalog.Service, log logger.Logger) *ProductHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductHandler{service: service, log: log}
}

// List answers GET /products with the query payload.
// The payload already carries success, so it is written as is.
func (h *ProductHandler) List(c router.Context) error {
	result, err := h.service.List(c.Request().Context(), c.Request().URL.Query())
	if err != nil {
		return controller.Error(c, h.log, err)
	}
	return c.JSON(http.StatusOK, listResponse{Success: true, QueryResult: result})
}

func (h *ProductHandler) Create(c router.Context) error {
	var in catalog.ProductInput
	if err := c.Bind(&in); err != nil {
		return controller.Error(c, h.log, fmt.Errorf("%w: %v", catalog.ErrInvalidInput, err))
	}
	created, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return controller.Error(c, h.log, err)
	}
	return controller.Created(c, created)
}

// Update answers 201 with the updated product.
func (h *ProductHandler) Update(c router.Context) error {
	id := c.Param("id")
	var in catalog.ProductInput
	if err := c.Bind(&in); err != nil {
		return controller.Error(c, h.log, fmt.Errorf("%w: %v", catalog.ErrInvalidInput, err))
	}
	updated, err := h.service.Update(c.Request().Context(), id, in)
	if err != nil {
		return controller.Error(c, h.log, notFound(err))
	}
	return controller.Created(c, updated)
}

func (h *ProductHandler) Delete(c router.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return controller.Error(c, h.log, notFound(err))
	}
	return controller.Success(c, struct{}{})
}

type listResponse struct {
	Success bool `json:"success"`
	*catalog.QueryResult
}

func notFound(err error) error {
	var nf *catalog.NotFoundError
	if errors.As(err, &nf) {
		return controller.NewNotFoundError(nf.Error(), err)
	}
	return err
}
