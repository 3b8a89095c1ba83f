package handlers

import (
	"net/http"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/errhttp"
	"github.com/secondlife-exchange/exchange/pkg/httpx"
	appsvcs "github.com/secondlife-exchange/exchange/services/matching/application/services"
)

// GetPreferencesHandler handles GET /matching/preferences requests.
type GetPreferencesHandler struct {
	svc *appsvcs.Services
}

// NewGetPreferencesHandler returns a GetPreferencesHandler backed by the given services.
func NewGetPreferencesHandler(svc *appsvcs.Services) *GetPreferencesHandler {
	return &GetPreferencesHandler{svc: svc}
}

// Execute returns the caller's preferences, or empty sets if none were saved.
//
//	@Summary		Get preferences
//	@Tags			matching
//	@Produce		json
//	@Success		200	{object}	PreferencesResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Router			/matching/preferences [get]
func (h *GetPreferencesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	prefs, err := h.svc.Preferences.Get(r.Context(), userID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ToPreferencesResponse(prefs))
}
