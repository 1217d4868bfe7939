package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/httpx"
	"github.com/MikeMC777/cafe-orders/internal/menu"
)

func newRouter(repo menu.Repository, origins []string, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log), httpx.CORS(origins))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/menu-items/:id", getItemHandler(repo))
	r.GET("/shops/:shopId/menu", listMenuHandler(repo))
	return r
}

// @Summary  Get a menu item
// @Tags     menu
// @Produce  json
// @Param    id   path      string  true  "Menu item ID"
// @Success  200  {object}  menu.Item
// @Failure  404  {object}  httpx.HTTPError
// @Router   /menu-items/{id} [get]
func getItemHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if errors.Is(err, menu.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpx.HTTPError{Error: "not found"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, httpx.HTTPError{Error: "db error"})
			return
		}
		c.JSON(http.StatusOK, it)
	}
}

// @Summary  A shop's menu, sorted by name
// @Tags     menu
// @Produce  json
// @Param    shopId  path      string  true  "Shop ID"
// @Success  200     {object}  menu.ListResponse
// @Router   /shops/{shopId}/menu [get]
func listMenuHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID := c.Param("shopId")
		items, err := repo.ListByShop(c.Request.Context(), shopID)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, httpx.HTTPError{Error: "db error"})
			return
		}
		c.JSON(http.StatusOK, menu.ListResponse{ShopID: shopID, Items: items})
	}
}
