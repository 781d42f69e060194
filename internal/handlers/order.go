package handlers

import (
	"fmt"
	"net/http"

	"github.com/diewo77/shop-api/internal/gate"
	"github.com/diewo77/shop-api/internal/httpx"
	"github.com/diewo77/shop-api/internal/models"
	"github.com/diewo77/shop-api/internal/services"
)

type OrderHandler struct {
	catalog *services.CatalogService
	gate    gate.Authorizer[uint]
}

func NewOrderHandler(catalog *services.CatalogService, g gate.Authorizer[uint]) *OrderHandler {
	return &OrderHandler{catalog: catalog, gate: g}
}

type orderPayload struct {
	Name       *string `json:"name"`
	Libelle    *string `json:"libelle"`
	UserID     *uint   `json:"user_id"`
	ProductIDs []uint  `json:"product_ids,omitempty"`
}

type orderView struct {
	*models.Order
	Totals services.Totals `json:"totals"`
}

func (h *OrderHandler) respond(w http.ResponseWriter, status int, o *models.Order) {
	httpx.JSON(w, status, orderView{Order: o, Totals: h.catalog.ComputeTotals(o)})
}

func (h *OrderHandler) load(w http.ResponseWriter, r *http.Request) (uint, *models.Order, bool) {
	uid, ok := currentUser(w, r)
	if !ok {
		return 0, nil, false
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return 0, nil, false
	}
	o, err := h.catalog.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return 0, nil, false
	}
	return uid, o, true
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	owner, err := queryID(r, "user_id")
	if err == nil {
		err = h.gate.Authorize(r.Context(), uid, gate.ActionList, models.ResourceOrder, nil)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	orders, err := h.catalog.ListOrders(r.Context(), services.OrderFilter{UserID: owner})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView{Order: o, Totals: h.catalog.ComputeTotals(o)})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Create places an order. The owner defaults to the caller.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.gate.Authorize(r.Context(), uid, gate.ActionCreate, models.ResourceOrder, nil); err != nil {
		writeError(w, r, err)
		return
	}
	var in orderPayload
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	o := models.NewOrder()
	o.Name, o.Libelle, o.UserID = in.Name, in.Libelle, in.UserID
	if o.UserID == nil {
		o.UserID = &uid
	}
	for _, pid := range in.ProductIDs {
		o.Products = append(o.Products, &models.Product{ID: pid})
	}

	created, err := h.catalog.CreateOrder(r.Context(), o)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, created)
}

func (h *OrderHandler) View(w http.ResponseWriter, r *http.Request) {
	uid, o, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.gate.Authorize(r.Context(), uid, gate.ActionView, models.ResourceOrder, o); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, o)
}

// Update replaces name, libelle and owner. Products are managed through the
// /orders/{id}/products routes.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, o, ok := h.load(w, r)
	if !ok {
		return
	}
	var in orderPayload
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if len(in.ProductIDs) > 0 {
		writeError(w, r, fmt.Errorf("%w: product_ids are managed through /orders/{id}/products", httpx.ErrBadRequest))
		return
	}
	next := &models.Order{ID: o.ID, Name: in.Name, Libelle: in.Libelle, UserID: in.UserID}
	change := &models.OrderChange{Stored: o, Next: next}
	if err := h.gate.Authorize(r.Context(), uid, gate.ActionUpdate, models.ResourceOrder, change); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.catalog.UpdateOrder(r.Context(), o.ID, next)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, updated)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, o, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.gate.Authorize(r.Context(), uid, gate.ActionDelete, models.ResourceOrder, o); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.DeleteOrder(r.Context(), o.ID); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *OrderHandler) AttachProduct(w http.ResponseWriter, r *http.Request) {
	h.linkProduct(w, r, true)
}

func (h *OrderHandler) DetachProduct(w http.ResponseWriter, r *http.Request) {
	h.linkProduct(w, r, false)
}

func (h *OrderHandler) linkProduct(w http.ResponseWriter, r *http.Request, attach bool) {
	uid, o, ok := h.load(w, r)
	if !ok {
		return
	}
	productID, err := httpx.PathID(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	change := &models.OrderChange{Stored: o, Next: o}
	if err := h.gate.Authorize(r.Context(), uid, gate.ActionUpdate, models.ResourceOrder, change); err != nil {
		writeError(w, r, err)
		return
	}

	var updated *models.Order
	if attach {
		updated, err = h.catalog.AttachProductToOrder(r.Context(), o.ID, productID)
	} else {
		updated, err = h.catalog.DetachProductFromOrder(r.Context(), o.ID, productID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, updated)
}

// Spend sums the totals of every order owned by the caller.
func (h *OrderHandler) Spend(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.gate.Authorize(r.Context(), uid, gate.ActionList, models.ResourceOrder, nil); err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := h.catalog.GetSpend(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}
