package handlers

import (
	"net/http"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/errhttp"
	"github.com/secondlife-exchange/exchange/pkg/httpx"
	pkgvalidator "github.com/secondlife-exchange/exchange/pkg/validator"
	appsvcs "github.com/secondlife-exchange/exchange/services/item/application/services"
)

// CreateItemRequest is the request body for POST /item.
type CreateItemRequest struct {
	Title       string   `json:"title"       validate:"required,min=1,max=120" example:"Vintage film camera"`
	Description string   `json:"description" validate:"max=2000"               example:"Works perfectly, comes with strap."`
	Category    string   `json:"category"    validate:"required,category"      example:"ELECTRONICS"`
	Condition   string   `json:"condition"   validate:"required,condition"     example:"GOOD"`
	Tags        []string `json:"tags"        validate:"max=10,dive,min=1,max=30"`
	Country     string   `json:"country"     validate:"omitempty,country" example:"FR"`
} // @name CreateItemRequest

// PostItemHandler handles POST /item requests.
type PostItemHandler struct {
	svc *appsvcs.Services
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services) *PostItemHandler {
	return &PostItemHandler{svc: svc}
}

// Execute lists a new item owned by the caller.
//
//	@Summary		Create item
//	@Description	Lists a new item owned by the authenticated user
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateItemRequest	true	"Item creation request"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		422		{object}	httpx.ErrorResponse
//	@Router			/item [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	req, ok := pkgvalidator.ValidateRequest[CreateItemRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.Create(r.Context(), ownerID, appsvcs.CreateItemInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		Tags:        req.Tags,
		Country:     req.Country,
	})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, ToItemResponse(item))
}
