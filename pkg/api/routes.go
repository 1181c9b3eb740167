// Package api exposes the catalog and accounts services over HTTP.
package api

import (
	"github.com/nimburion/catalog/pkg/accounts"
	"github.com/nimburion/catalog/pkg/catalog"
	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/server/router"
)

// Register mounts the product and user routes on r.
//
//	GET    /products
//	POST   /products
//	PUT    /products/:id
//	DELETE /products/:id
//	POST   /users/login
//	POST   /users/signup
func Register(r router.Router, products *catalog.Service, users *accounts.Service, log logger.Logger) {
	ph := NewProductHandler(products, log)
	r.GET("/products", ph.List)
	r.POST("/products", ph.Create)
	r.PUT("/products/:id", ph.Update)
	r.DELETE("/products/:id", ph.Delete)

	uh := NewUserHandler(users)
	r.POST("/users/login", uh.Login)
	r.POST("/users/signup", uh.Signup)
}
