package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keygate-io/keygate/internal/domain/product"
	"github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
	"github.com/keygate-io/keygate/internal/shared/utils"
)

// ProductHandler serves the dev API product endpoints.
type ProductHandler struct {
	products product.Repository
	logger   logger.Interface
}

// NewProductHandler creates a new product handler instance
func NewProductHandler(products product.Repository, logger logger.Interface) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

type createProductRequest struct {
	Name     string  `json:"name" binding:"required,min=1,max=100"`
	Version  string  `json:"version"`
	Price    float64 `json:"price" binding:"min=0"`
	Discount float64 `json:"discount" binding:"min=0,max=100"`
}

type productResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	Price          float64   `json:"price"`
	Discount       float64   `json:"discount"`
	TotalPurchases uint64    `json:"total_purchases"`
	TotalGross     float64   `json:"total_gross"`
	CreatedAt      time.Time `json:"created_at"`
}

// Create handles POST /api/dev/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	p, err := product.NewProduct(req.Name, req.Version, req.Price, req.Discount)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError(err.Error()))
		return
	}

	if err := h.products.Create(c.Request.Context(), p); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"product": toProductResponse(p)}, "Product successfully added")
}

// List handles GET /api/dev/products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}

	utils.SuccessResponse(c, http.StatusOK, "Products successfully fetched", gin.H{
		"count":    len(out),
		"products": out,
	})
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:             p.ID(),
		Name:           p.Name(),
		Version:        p.Version(),
		Price:          p.Price(),
		Discount:       p.Discount(),
		TotalPurchases: p.TotalPurchases(),
		TotalGross:     p.TotalGross(),
		CreatedAt:      p.CreatedAt(),
	}
}
