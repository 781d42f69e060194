package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/diewo77/shop-api/internal/gate"
	"github.com/diewo77/shop-api/internal/httpx"
	"github.com/diewo77/shop-api/internal/media"
	"github.com/diewo77/shop-api/internal/models"
	"github.com/diewo77/shop-api/internal/services"
)

type ProductHandler struct {
	catalog *services.CatalogService
	gate    gate.Authorizer[uint]
	media   media.Resolver
}

func NewProductHandler(catalog *services.CatalogService, g gate.Authorizer[uint], m media.Resolver) *ProductHandler {
	return &ProductHandler{catalog: catalog, gate: g, media: m}
}

// productFields are the writable product columns. A PUT replaces all of
// them, so an omitted field is stored as null.
type productFields struct {
	Name     *string `json:"name"`
	Libelle  *string `json:"libelle"`
	Price    *int    `json:"price"`
	FilePath *string `json:"file_path"`
	TypeID   *uint   `json:"type_id"`
}

func (f productFields) apply(p *models.Product) {
	p.Name = f.Name
	p.Libelle = f.Libelle
	p.Price = f.Price
	p.FilePath = f.FilePath
	p.TypeID = f.TypeID
}

type createProductPayload struct {
	productFields
	CategoryIDs []uint `json:"category_ids"`
}

// productView is the product read model.
type productView struct {
	*models.Product
	PriceTVA *int   `json:"price_tva"`
	OrderIDs []uint `json:"order_ids"`
}

func (h *ProductHandler) view(r *http.Request, p *models.Product) (*productView, error) {
	if err := media.Fill(r.Context(), h.media, p); err != nil {
		return nil, err
	}
	v := &productView{Product: p, PriceTVA: p.PriceTVA(), OrderIDs: make([]uint, 0, len(p.Orders))}
	for _, o := range p.Orders {
		v.OrderIDs = append(v.OrderIDs, o.ID)
	}
	return v, nil
}

func (h *ProductHandler) respond(w http.ResponseWriter, r *http.Request, status int, p *models.Product) {
	v, err := h.view(r, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, status, v)
}

// load fetches the product named by the {id} path value and checks that the
// caller may perform action on it.
func (h *ProductHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.Product, bool) {
	uid, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err == nil {
		err = h.gate.Authorize(r.Context(), uid, action, models.ResourceProduct, p)
	}
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return p, true
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var f services.ProductFilter
	var err error
	if f.UserID, err = queryID(r, "user_id"); err == nil {
		if f.TypeID, err = queryID(r, "type_id"); err == nil {
			f.CategoryID, err = queryID(r, "category_id")
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]*productView, 0, len(products))
	for _, p := range products {
		v, err := h.view(r, p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out = append(out, v)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in createProductPayload
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	p := models.NewProduct()
	in.apply(p)
	p.UserID = &uid
	for _, cid := range in.CategoryIDs {
		p.Categories = append(p.Categories, &models.Category{ID: cid})
	}

	created, err := h.catalog.CreateProduct(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, created)
}

func (h *ProductHandler) View(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in productFields
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	next := &models.Product{}
	in.apply(next)

	updated, err := h.catalog.UpdateProduct(r.Context(), p.ID, next)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionDelete)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), p.ID); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// SetType handles PUT /products/{id}/type with {"type_id": n} or
// {"type_id": null}.
func (h *ProductHandler) SetType(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var in struct {
		TypeID *uint `json:"type_id"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.catalog.SetProductType(r.Context(), p.ID, in.TypeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, updated)
}

func (h *ProductHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	h.linkCategory(w, r, h.catalog.AddProductCategory)
}

func (h *ProductHandler) RemoveCategory(w http.ResponseWriter, r *http.Request) {
	h.linkCategory(w, r, h.catalog.RemoveProductCategory)
}

func (h *ProductHandler) linkCategory(w http.ResponseWriter, r *http.Request, link func(ctx context.Context, productID, categoryID uint) (*models.Product, error)) {
	p, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	categoryID, err := httpx.PathID(r, "categoryID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := link(r.Context(), p.ID, categoryID); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.catalog.GetProduct(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, updated)
}

// queryID parses an optional positive id from the query string.
func queryID(r *http.Request, name string) (uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", httpx.ErrBadRequest, name, raw)
	}
	return uint(id), nil
}
