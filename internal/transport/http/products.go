package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/app"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ProductCatalog is the minimal interface the product endpoints need.
type ProductCatalog interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// HandleCreateProduct returns an HTTP handler for adding a product.
func HandleCreateProduct(svc ProductCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
			Name:  req.Name,
			Price: req.Price,
			Stock: req.Stock,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrProductNameEmpty):
				writeError(w, http.StatusUnprocessableEntity, codeNameRequired, err.Error())
			case errors.Is(err, domain.ErrInvalidPrice):
				writeError(w, http.StatusUnprocessableEntity, codeInvalidPrice, err.Error())
			case errors.Is(err, domain.ErrInvalidStock):
				writeError(w, http.StatusUnprocessableEntity, codeInvalidStock, err.Error())
			default:
				writeDomainError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toProductResponse(product))
	}
}

// HandleGetProduct returns an HTTP handler for the product detail view.
func HandleGetProduct(svc ProductCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetProduct(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidID) {
				writeError(w, http.StatusNotFound, codeProductNotFound, domain.ErrProductNotFound.Error())
				return
			}
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toProductResponse(product))
	}
}

// HandleListProducts returns an HTTP handler for listing the catalog.
func HandleListProducts(svc ProductCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]productResponse, 0, len(products))
		for _, p := range products {
			out = append(out, toProductResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type createProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type productResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	Reserved       int             `json:"reserved"`
	AvailableStock int             `json:"available_stock"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price,
		Stock:          p.Stock,
		Reserved:       p.Reserved,
		AvailableStock: p.Available(),
	}
}
