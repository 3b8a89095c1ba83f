package handlers

import (
	"net/http"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/errhttp"
	"github.com/secondlife-exchange/exchange/pkg/httpx"
	pkgvalidator "github.com/secondlife-exchange/exchange/pkg/validator"
	appsvcs "github.com/secondlife-exchange/exchange/services/item/application/services"
)

// UpdateStatusRequest is the request body for PATCH /item/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,status" example:"RESERVED"`
} // @name UpdateStatusRequest

// PatchItemStatusHandler handles PATCH /item/{id}/status requests.
type PatchItemStatusHandler struct {
	svc *appsvcs.Services
}

// NewPatchItemStatusHandler returns a PatchItemStatusHandler backed by the given services.
func NewPatchItemStatusHandler(svc *appsvcs.Services) *PatchItemStatusHandler {
	return &PatchItemStatusHandler{svc: svc}
}

// Execute changes the status of an item owned by the caller.
//
//	@Summary		Change item status
//	@Description	Moves an owned item through its lifecycle (AVAILABLE, RESERVED, EXCHANGED, ARCHIVED)
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item ID"	format(uuid)
//	@Param			request	body		UpdateStatusRequest	true	"New status"
//	@Success		200		{object}	ItemResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Failure		409		{object}	httpx.ErrorResponse
//	@Failure		422		{object}	httpx.ErrorResponse
//	@Router			/item/{id}/status [patch]
func (h *PatchItemStatusHandler) Execute(w http.ResponseWriter, r *http.Request) {
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

	req, ok := pkgvalidator.ValidateRequest[UpdateStatusRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.ChangeStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ToItemResponse(item))
}
