package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/errhttp"
	"github.com/secondlife-exchange/exchange/pkg/httpx"
	appsvcs "github.com/secondlife-exchange/exchange/services/matching/application/services"
	domainsvcs "github.com/secondlife-exchange/exchange/services/matching/domain/services"
)

// GetRecommendationsHandler handles GET /matching/recommendations requests.
type GetRecommendationsHandler struct {
	svc *appsvcs.Services
}

// NewGetRecommendationsHandler returns a GetRecommendationsHandler backed by the given services.
func NewGetRecommendationsHandler(svc *appsvcs.Services) *GetRecommendationsHandler {
	return &GetRecommendationsHandler{svc: svc}
}

// Execute returns ranked recommendations for the caller. Anonymous callers
// receive an empty list.
//
//	@Summary		Get recommendations
//	@Description	Scores available items against the caller's preferences, best first
//	@Tags			matching
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (default 20, max 100)"
//	@Param			offset	query		int	false	"Recommendations to skip"
//	@Success		200		{object}	RecommendationListResponse
//	@Failure		500		{object}	httpx.ErrorResponse
//	@Router			/matching/recommendations [get]
func (h *GetRecommendationsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		userID = uuid.Nil
	}
	page := httpx.ParsePage(r, domainsvcs.DefaultLimit, domainsvcs.MaxLimit)

	result, err := h.svc.Recommendations.Recommend(r.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	resp := RecommendationListResponse{
		Recommendations: make([]RecommendationResponse, len(result.Recommendations)),
		Total:           result.Total,
	}
	for i, rec := range result.Recommendations {
		resp.Recommendations[i] = ToRecommendationResponse(rec)
	}
	httpx.JSON(w, http.StatusOK, resp)
}
