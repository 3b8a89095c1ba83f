package handlers

import (
	"net/http"

	"github.com/secondlife-exchange/exchange/pkg/errhttp"
	"github.com/secondlife-exchange/exchange/pkg/httpx"
	appsvcs "github.com/secondlife-exchange/exchange/services/item/application/services"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/item/domain/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListItemsHandler handles GET /item requests.
type ListItemsHandler struct {
	svc *appsvcs.Services
}

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services) *ListItemsHandler {
	return &ListItemsHandler{svc: svc}
}

// Execute browses available items.
//
//	@Summary		Browse items
//	@Description	Lists AVAILABLE items, newest first, with optional filters
//	@Tags			items
//	@Produce		json
//	@Param			category	query		string	false	"Category filter"	Enums(ELECTRONICS,BOOKS,CLOTHING,FURNITURE,SPORTS,TOYS,HOME,GARDEN,MUSIC,ART,OTHER)
//	@Param			condition	query		string	false	"Condition filter"	Enums(NEW,LIKE_NEW,GOOD,FAIR,POOR)
//	@Param			q			query		string	false	"Search in title and description"
//	@Param			limit		query		int		false	"Page size (default 20, max 100)"
//	@Param			offset		query		int		false	"Items to skip"
//	@Success		200			{object}	ItemListResponse
//	@Failure		422			{object}	httpx.ErrorResponse
//	@Router			/item [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	filter, err := parseBrowseFilter(r)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	page := httpx.ParsePage(r, defaultPageSize, maxPageSize)

	items, total, err := h.svc.Item.Browse(r.Context(), filter, repositories.QueryOpts{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	resp := ItemListResponse{Items: make([]ItemResponse, len(items)), Total: total}
	for i, item := range items {
		resp.Items[i] = ToItemResponse(item)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func parseBrowseFilter(r *http.Request) (repositories.BrowseFilter, error) {
	q := r.URL.Query()
	filter := repositories.BrowseFilter{Query: q.Get("q")}

	if v := q.Get("category"); v != "" {
		c, err := models.ParseCategory(v)
		if err != nil {
			return filter, err
		}
		filter.Category = c
	}
	if v := q.Get("condition"); v != "" {
		c, err := models.ParseCondition(v)
		if err != nil {
			return filter, err
		}
		filter.Condition = c
	}
	return filter, nil
}
