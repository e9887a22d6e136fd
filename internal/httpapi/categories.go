package httpapi

import (
	"net/http"

	"storefront-be/internal/category"
	"storefront-be/internal/transport"

	"github.com/go-chi/chi/v5"
)

type categoryHandler struct {
	categories category.Service
}

type categoryList struct {
	Categories []category.Category `json:"categories"`
	Total      int                 `json:"total"`
}

func (h *categoryHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := category.ListFilter{Search: r.URL.Query().Get("search")}
	var err error
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}

	categories, total, err := h.categories.List(r.Context(), filter)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, categoryList{Categories: categories, Total: total})
}

func (h *categoryHandler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, c)
}

func (h *categoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var in category.Input
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	c, err := h.categories.Create(r.Context(), actorFrom(r), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, c)
}

func (h *categoryHandler) update(w http.ResponseWriter, r *http.Request) {
	var in category.UpdateInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	c, err := h.categories.Update(r.Context(), actorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, c)
}

func (h *categoryHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}
