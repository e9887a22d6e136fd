package httpapi

import (
	"net/http"

	"storefront-be/internal/inventory"
	"storefront-be/internal/product"
	"storefront-be/internal/transport"

	"github.com/go-chi/chi/v5"
)

type catalogHandler struct {
	products  product.Service
	inventory inventory.Service
}

type productList struct {
	Products []product.Product `json:"products"`
	Total    int               `json:"total"`
}

func productFilter(r *http.Request) product.ListFilter {
	q := r.URL.Query()
	return product.ListFilter{
		Search:      q.Get("search"),
		CategoryID:  q.Get("category"),
		InStockOnly: q.Get("inStock") == "true",
	}
}

func (h *catalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter := productFilter(r)
	var err error
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}

	products, total, err := h.products.List(r.Context(), filter)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if products == nil {
		products = []product.Product{}
	}
	transport.WriteJSON(w, http.StatusOK, productList{Products: products, Total: total})
}

func (h *catalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, p)
}

func (h *catalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in product.NewProductInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	p, err := h.products.Create(r.Context(), actorFrom(r), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, p)
}

func (h *catalogHandler) countProducts(w http.ResponseWriter, r *http.Request) {
	n, err := h.products.Count(r.Context(), productFilter(r))
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *catalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.UpdateInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	p, err := h.products.Update(r.Context(), actorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, p)
}

func (h *catalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *catalogHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.inventory.ListStatus(r.Context(), actorFrom(r), inventory.StatusFilter{
		LowStockOnly: q.Get("lowStock") == "true",
		Location:     q.Get("location"),
	})
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if rows == nil {
		rows = []inventory.Inventory{}
	}
	transport.WriteJSON(w, http.StatusOK, rows)
}

func (h *catalogHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	var upd inventory.StockUpdate
	if err := transport.DecodeJSONBody(r, &upd); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	mv, err := h.inventory.UpdateStock(r.Context(), actorFrom(r), upd)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, mv)
}

func (h *catalogHandler) history(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	rows, err := h.inventory.ListHistory(r.Context(), actorFrom(r), chi.URLParam(r, "productId"), limit)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if rows == nil {
		rows = []inventory.History{}
	}
	transport.WriteJSON(w, http.StatusOK, rows)
}

// syncInventory recomputes product totals from inventory rows. An empty
// list reconciles every product.
func (h *catalogHandler) syncInventory(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if r.ContentLength != 0 {
		if err := transport.DecodeJSONBody(r, &req); err != nil {
			transport.WriteError(r.Context(), w, err)
			return
		}
	}
	results, err := h.inventory.SyncProducts(r.Context(), actorFrom(r), req.ProductIDs)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if results == nil {
		results = []inventory.SyncResult{}
	}
	transport.WriteJSON(w, http.StatusOK, map[string]any{"repaired": results})
}
