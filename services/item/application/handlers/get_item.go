package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/secondlife-exchange/exchange/pkg/errhttp"
	"github.com/secondlife-exchange/exchange/pkg/httpx"
	appsvcs "github.com/secondlife-exchange/exchange/services/item/application/services"
	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
)

// GetItemHandler handles GET /item/{id} requests.
type GetItemHandler struct {
	svc *appsvcs.Services
}

// NewGetItemHandler returns a GetItemHandler backed by the given services.
func NewGetItemHandler(svc *appsvcs.Services) *GetItemHandler {
	return &GetItemHandler{svc: svc}
}

// Execute returns one item and records the view.
//
//	@Summary		Get item
//	@Description	Returns an item by ID. Each view raises its popularity score.
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item ID"	format(uuid)
//	@Success		200	{object}	ItemResponse
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Router			/item/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	item, err := h.svc.Item.GetByID(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ToItemResponse(item))
}

// itemIDParam parses the {id} URL parameter. A malformed ID cannot match any
// item, so it is reported as not found.
func itemIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", itemdomain.ErrItemNotFound, raw)
	}
	return id, nil
}
