package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-commerce-backend/internal/customers"
	"github.com/imrishuroy/go-commerce-backend/internal/validation"
)

type customersHandler struct {
	cfg      HandlerConfig
	validate *validatorv10.Validate
}

// RegisterCustomersRoutes registers routes for the customer API.
func RegisterCustomersRoutes(r *gin.Engine, cfg HandlerConfig, v *validatorv10.Validate) {
	h := &customersHandler{cfg: cfg, validate: v}

	r.POST("/api/customers", h.create)
	r.GET("/api/customers", h.list)
	r.GET("/api/customers/:id", h.get)
	r.PUT("/api/customers/:id", h.update)
	r.DELETE("/api/customers/:id", h.delete)
}

func (h *customersHandler) create(c *gin.Context) {
	var req validation.CustomerRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	cust := &customers.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.cfg.Customers.Create(c.Request.Context(), cust); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (h *customersHandler) list(c *gin.Context) {
	out, err := h.cfg.Customers.List(c.Request.Context())
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	if out == nil {
		out = []*customers.Customer{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *customersHandler) get(c *gin.Context) {
	cust, err := h.cfg.Customers.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *customersHandler) update(c *gin.Context) {
	var req validation.CustomerRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	ctx := c.Request.Context()
	cust, err := h.cfg.Customers.GetByID(ctx, c.Param("id"))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}

	cust.Name = req.Name
	cust.Email = req.Email
	cust.Phone = req.Phone
	cust.Address = req.Address
	if err := h.cfg.Customers.Update(ctx, cust); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *customersHandler) delete(c *gin.Context) {
	if err := h.cfg.Customers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
