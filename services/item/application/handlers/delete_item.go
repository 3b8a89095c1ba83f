package handlers

import (
	"net/http"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/errhttp"
	appsvcs "github.com/secondlife-exchange/exchange/services/item/application/services"
)

// DeleteItemHandler handles DELETE /item/{id} requests.
type DeleteItemHandler struct {
	svc *appsvcs.Services
}

// NewDeleteItemHandler returns a DeleteItemHandler backed by the given services.
func NewDeleteItemHandler(svc *appsvcs.Services) *DeleteItemHandler {
	return &DeleteItemHandler{svc: svc}
}

// Execute deletes an item owned by the caller.
//
//	@Summary		Delete item
//	@Tags			items
//	@Param			id	path	string	true	"Item ID"	format(uuid)
//	@Success		204
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Failure		403	{object}	httpx.ErrorResponse
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Router			/item/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	id, err := itemIDParam(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	if err := h.svc.Item.Delete(r.Context(), actor, id); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
