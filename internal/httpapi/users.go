package httpapi

import (
	"net/http"

	"storefront-be/internal/transport"
	"storefront-be/internal/user"
)

type userHandler struct {
	users user.Service
}

type userList struct {
	Users []user.User `json:"users"`
	Total int         `json:"total"`
}

func (h *userHandler) signup(w http.ResponseWriter, r *http.Request) {
	var in user.RegisterInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	u, err := h.users.Register(r.Context(), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, u)
}

func (h *userHandler) login(w http.ResponseWriter, r *http.Request) {
	var in user.LoginInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	session, err := h.users.Login(r.Context(), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, session)
}

func (h *userHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Profile(r.Context(), actorFrom(r))
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, u)
}

func (h *userHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	var in user.UpdateProfileInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), actorFrom(r), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, u)
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		filter user.ListFilter
		err    error
	)
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}

	users, total, err := h.users.List(r.Context(), actorFrom(r), filter)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, userList{Users: users, Total: total})
}
