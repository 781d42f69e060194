package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/shop-api/internal/httpx"
	"github.com/diewo77/shop-api/internal/models"
	"github.com/diewo77/shop-api/internal/services"
)

// namedPayload is the body accepted for categories and product types.
type namedPayload struct {
	Name    *string `json:"name"`
	Libelle *string `json:"libelle"`
}

// lookupOps are the catalog calls behind one lookup table. Access rules
// are enforced by the route's permission middleware.
type lookupOps[T any] struct {
	list   func(ctx context.Context) ([]*T, error)
	get    func(ctx context.Context, id uint) (*T, error)
	create func(ctx context.Context, in namedPayload) (*T, error)
	update func(ctx context.Context, id uint, in namedPayload) (*T, error)
	delete func(ctx context.Context, id uint) error
}

func (o lookupOps[T]) List(w http.ResponseWriter, r *http.Request) {
	items, err := o.list(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (o lookupOps[T]) View(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := o.get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (o lookupOps[T]) Create(w http.ResponseWriter, r *http.Request) {
	var in namedPayload
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := o.create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (o lookupOps[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in namedPayload
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := o.update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (o lookupOps[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := o.delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// CategoryHandler serves /categories.
type CategoryHandler struct {
	lookupOps[models.Category]
}

func NewCategoryHandler(catalog *services.CatalogService) *CategoryHandler {
	return &CategoryHandler{lookupOps[models.Category]{
		list: catalog.ListCategories,
		get:  catalog.GetCategory,
		create: func(ctx context.Context, in namedPayload) (*models.Category, error) {
			return catalog.CreateCategory(ctx, &models.Category{Name: in.Name, Libelle: in.Libelle})
		},
		update: func(ctx context.Context, id uint, in namedPayload) (*models.Category, error) {
			return catalog.UpdateCategory(ctx, id, &models.Category{Name: in.Name, Libelle: in.Libelle})
		},
		delete: catalog.DeleteCategory,
	}}
}

// ProductTypeHandler serves /product-types.
type ProductTypeHandler struct {
	lookupOps[models.ProductType]
}

func NewProductTypeHandler(catalog *services.CatalogService) *ProductTypeHandler {
	return &ProductTypeHandler{lookupOps[models.ProductType]{
		list: catalog.ListProductTypes,
		get:  catalog.GetProductType,
		create: func(ctx context.Context, in namedPayload) (*models.ProductType, error) {
			return catalog.CreateProductType(ctx, &models.ProductType{Name: in.Name, Libelle: in.Libelle})
		},
		update: func(ctx context.Context, id uint, in namedPayload) (*models.ProductType, error) {
			return catalog.UpdateProductType(ctx, id, &models.ProductType{Name: in.Name, Libelle: in.Libelle})
		},
		delete: catalog.DeleteProductType,
	}}
}
