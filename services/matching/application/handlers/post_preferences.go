package handlers

import (
	"net/http"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/errhttp"
	"github.com/secondlife-exchange/exchange/pkg/httpx"
	pkgvalidator "github.com/secondlife-exchange/exchange/pkg/validator"
	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	appsvcs "github.com/secondlife-exchange/exchange/services/matching/application/services"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
)

// SavePreferencesDto is the request body for POST /matching/preferences.
// Omitted fields keep their stored value; an empty list clears the set and
// an empty country clears the country.
type SavePreferencesDto struct {
	PreferredCategories *[]string `json:"preferredCategories" validate:"omitempty,max=11,dive,category"`
	DislikedCategories  *[]string `json:"dislikedCategories"  validate:"omitempty,max=11,dive,category"`
	PreferredConditions *[]string `json:"preferredConditions" validate:"omitempty,max=5,dive,condition"`
	Country             *string   `json:"country"             validate:"omitnil,country" example:"FR"`
} // @name SavePreferencesDto

// Patch converts the DTO into a domain patch.
func (d SavePreferencesDto) Patch() models.PreferencesPatch {
	var p models.PreferencesPatch
	if d.PreferredCategories != nil {
		cats := enumValues[itemmodels.Category](*d.PreferredCategories)
		p.PreferredCategories = &cats
	}
	if d.DislikedCategories != nil {
		cats := enumValues[itemmodels.Category](*d.DislikedCategories)
		p.DislikedCategories = &cats
	}
	if d.PreferredConditions != nil {
		conds := enumValues[itemmodels.Condition](*d.PreferredConditions)
		p.PreferredConditions = &conds
	}
	p.Country = d.Country
	return p
}

// PostPreferencesHandler handles POST /matching/preferences requests.
type PostPreferencesHandler struct {
	svc *appsvcs.Services
}

// NewPostPreferencesHandler returns a PostPreferencesHandler backed by the given services.
func NewPostPreferencesHandler(svc *appsvcs.Services) *PostPreferencesHandler {
	return &PostPreferencesHandler{svc: svc}
}

// Execute upserts the caller's preferences.
//
//	@Summary		Save preferences
//	@Description	Creates or partially updates the caller's matching preferences
//	@Tags			matching
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SavePreferencesDto	true	"Fields to change"
//	@Success		200		{object}	PreferencesResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		422		{object}	httpx.ErrorResponse
//	@Router			/matching/preferences [post]
func (h *PostPreferencesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	req, ok := pkgvalidator.ValidateRequest[SavePreferencesDto](w, r)
	if !ok {
		return
	}

	prefs, err := h.svc.Preferences.Save(r.Context(), userID, req.Patch())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ToPreferencesResponse(prefs))
}

// enumValues converts enum strings already checked by the validator.
func enumValues[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}
