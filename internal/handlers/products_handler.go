package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-commerce-backend/internal/products"
	"github.com/imrishuroy/go-commerce-backend/internal/validation"
)

type productsHandler struct {
	cfg      HandlerConfig
	validate *validatorv10.Validate
}

// RegisterProductsRoutes registers routes for the product API.
func RegisterProductsRoutes(r *gin.Engine, cfg HandlerConfig, v *validatorv10.Validate) {
	h := &productsHandler{cfg: cfg, validate: v}

	r.POST("/api/products", h.create)
	r.GET("/api/products", h.list)
	r.GET("/api/products/:id", h.get)
	r.PUT("/api/products/:id", h.update)
	r.DELETE("/api/products/:id", h.delete)
}

func (h *productsHandler) create(c *gin.Context) {
	var req validation.ProductRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	p := &products.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := h.cfg.Products.Create(c.Request.Context(), p); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *productsHandler) list(c *gin.Context) {
	out, err := h.cfg.Products.List(c.Request.Context())
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	if out == nil {
		out = []*products.Product{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *productsHandler) get(c *gin.Context) {
	p, err := h.cfg.Products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *productsHandler) update(c *gin.Context) {
	var req validation.ProductRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	ctx := c.Request.Context()
	p, err := h.cfg.Products.GetByID(ctx, c.Param("id"))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Stock = req.Stock
	if err := h.cfg.Products.Update(ctx, p); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *productsHandler) delete(c *gin.Context) {
	if err := h.cfg.Products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
