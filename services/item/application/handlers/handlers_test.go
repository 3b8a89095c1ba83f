package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/logger"
	appsvcs "github.com/secondlife-exchange/exchange/services/item/application/services"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/item/infrastructure/persistence/memory"
)

const testUserHeader = "X-Test-User"

// newTestRouter mounts the item handlers the way api.Routes does, with a
// header standing in for the session middleware.
func newTestRouter() (http.Handler, *appsvcs.Services) {
	items := appsvcs.NewItemService(memory.NewItemRepository(), nil, logger.Nop())
	svcs := &appsvcs.Services{
		Item:           items,
		Categorization: appsvcs.NewCategorizationService(items, nil, nil, "", logger.Nop()),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id, err := uuid.Parse(req.Header.Get(testUserHeader)); err == nil {
				req = req.WithContext(auth.WithUserID(req.Context(), id))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/item", NewListItemsHandler(svcs).Execute)
	r.Get("/item/{id}", NewGetItemHandler(svcs).Execute)
	r.Post("/item", NewPostItemHandler(svcs).Execute)
	r.Patch("/item/{id}/status", NewPatchItemStatusHandler(svcs).Execute)
	r.Delete("/item/{id}", NewDeleteItemHandler(svcs).Execute)
	return r, svcs
}

func do(t *testing.T, h http.Handler, method, path, body string, user uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != uuid.Nil {
		req.Header.Set(testUserHeader, user.String())
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func seedItem(t *testing.T, svcs *appsvcs.Services, owner uuid.UUID, category string) *models.Item {
	t.Helper()
	item, err := svcs.Item.Create(context.Background(), owner, appsvcs.CreateItemInput{
		Title: "Reading lamp", Description: "Brass, warm light", Category: category, Condition: "GOOD",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return item
}

func TestPostItem(t *testing.T) {
	tests := []struct {
		name       string
		user       uuid.UUID
		body       string
		wantStatus int
	}{
		{"created", uuid.New(), `{"title":"Film camera","category":"ELECTRONICS","condition":"GOOD","tags":["film"],"country":"FR"}`, http.StatusCreated},
		{"lowercase country", uuid.New(), `{"title":"Film camera","category":"ELECTRONICS","condition":"GOOD","tags":["film"],"country":"fr"}`, http.StatusCreated},
		{"unknown country", uuid.New(), `{"title":"Film camera","category":"ELECTRONICS","condition":"GOOD","country":"France"}`, http.StatusUnprocessableEntity},
		{"anonymous", uuid.Nil, `{"title":"Film camera","category":"ELECTRONICS","condition":"GOOD"}`, http.StatusUnauthorized},
		{"missing title", uuid.New(), `{"category":"ELECTRONICS","condition":"GOOD"}`, http.StatusUnprocessableEntity},
		{"unknown category", uuid.New(), `{"title":"x","category":"CARS","condition":"GOOD"}`, http.StatusUnprocessableEntity},
		{"too many tags", uuid.New(), `{"title":"x","category":"ART","condition":"GOOD","tags":["a","b","c","d","e","f","g","h","i","j","k"]}`, http.StatusUnprocessableEntity},
		{"title with double space", uuid.New(), `{"title":"Film  camera","category":"ART","condition":"GOOD"}`, http.StatusUnprocessableEntity},
		{"malformed json", uuid.New(), `{"title":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter()
			w := do(t, h, http.MethodPost, "/item", tt.body, tt.user)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var resp ItemResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.OwnerID != tt.user || resp.Status != "AVAILABLE" || resp.Tags[0] != "film" || resp.Country != "FR" {
				t.Fatalf("resp = %+v", resp)
			}
		})
	}
}

func TestGetItem(t *testing.T) {
	h, svcs := newTestRouter()
	item := seedItem(t, svcs, uuid.New(), "HOME")

	w := do(t, h, http.MethodGet, "/item/"+item.ID.String(), "", uuid.Nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != item.ID || resp.Category != "HOME" {
		t.Fatalf("resp = %+v", resp)
	}

	if w := do(t, h, http.MethodGet, "/item/"+uuid.NewString(), "", uuid.Nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/item/not-a-uuid", "", uuid.Nil); w.Code != http.StatusNotFound {
		t.Fatalf("malformed id status = %d", w.Code)
	}
}

func TestListItems(t *testing.T) {
	h, svcs := newTestRouter()
	seedItem(t, svcs, uuid.New(), "BOOKS")
	seedItem(t, svcs, uuid.New(), "BOOKS")
	seedItem(t, svcs, uuid.New(), "ART")

	w := do(t, h, http.MethodGet, "/item?category=books&limit=1", "", uuid.Nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ItemListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 1 {
		t.Fatalf("total=%d len=%d", resp.Total, len(resp.Items))
	}

	if w := do(t, h, http.MethodGet, "/item?q=brass", "", uuid.Nil); !strings.Contains(w.Body.String(), `"total":3`) {
		t.Fatalf("search body = %s", w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/item?condition=MINT", "", uuid.Nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad condition status = %d", w.Code)
	}
}

func TestPatchItemStatus(t *testing.T) {
	h, svcs := newTestRouter()
	owner := uuid.New()
	item := seedItem(t, svcs, owner, "SPORTS")
	path := "/item/" + item.ID.String() + "/status"

	tests := []struct {
		name       string
		user       uuid.UUID
		body       string
		wantStatus int
	}{
		{"anonymous", uuid.Nil, `{"status":"RESERVED"}`, http.StatusUnauthorized},
		{"not owner", uuid.New(), `{"status":"RESERVED"}`, http.StatusForbidden},
		{"unknown status", owner, `{"status":"SOLD"}`, http.StatusUnprocessableEntity},
		{"reserve", owner, `{"status":"RESERVED"}`, http.StatusOK},
		{"reserve again", owner, `{"status":"RESERVED"}`, http.StatusConflict},
		{"archive", owner, `{"status":"ARCHIVED"}`, http.StatusOK},
		{"leave archived", owner, `{"status":"AVAILABLE"}`, http.StatusConflict},
	}

	// Cases run in order against the same item.
	for _, tt := range tests {
		w := do(t, h, http.MethodPatch, path, tt.body, tt.user)
		if w.Code != tt.wantStatus {
			t.Fatalf("%s: status = %d, want %d (body %s)", tt.name, w.Code, tt.wantStatus, w.Body.String())
		}
	}
}

func TestDeleteItem(t *testing.T) {
	h, svcs := newTestRouter()
	owner := uuid.New()
	item := seedItem(t, svcs, owner, "TOYS")
	path := "/item/" + item.ID.String()

	if w := do(t, h, http.MethodDelete, path, "", uuid.New()); w.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, path, "", owner); w.Code != http.StatusNoContent {
		t.Fatalf("owner status = %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, path, "", owner); w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", w.Code)
	}
}
