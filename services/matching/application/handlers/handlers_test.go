package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/pkg/logger"
	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	appsvcs "github.com/secondlife-exchange/exchange/services/matching/application/services"
	matchingdomain "github.com/secondlife-exchange/exchange/services/matching/domain"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
	domainsvcs "github.com/secondlife-exchange/exchange/services/matching/domain/services"
)

type memPrefs struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.Preferences
}

func (m *memPrefs) Get(_ context.Context, userID uuid.UUID) (*models.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[userID]
	if !ok {
		return nil, matchingdomain.ErrPreferencesNotFound
	}
	return &p, nil
}

func (m *memPrefs) Upsert(_ context.Context, p *models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.UserID] = *p
	return nil
}

type memCandidates []*itemmodels.Item

func (m memCandidates) AvailableExcludingOwner(_ context.Context, _ uuid.UUID, _ int) ([]*itemmodels.Item, error) {
	return m, nil
}

func newTestServices(items ...*itemmodels.Item) *appsvcs.Services {
	prefs := appsvcs.NewPreferencesService(&memPrefs{rows: map[uuid.UUID]models.Preferences{}}, nil, logger.Nop())
	return &appsvcs.Services{
		Preferences: prefs,
		Recommendations: appsvcs.NewRecommendationService(
			prefs, memCandidates(items), domainsvcs.NewScorer(domainsvcs.DefaultWeights), 100, logger.Nop(),
		),
	}
}

func availableItem(category itemmodels.Category) *itemmodels.Item {
	now := time.Now().UTC()
	return &itemmodels.Item{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Title:     itemmodels.ItemTitle("Listing"),
		Category:  category,
		Condition: itemmodels.ConditionGood,
		Status:    itemmodels.StatusAvailable,
		Tags:      []string{"tag"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

func TestGetRecommendations_Anonymous(t *testing.T) {
	h := NewGetRecommendationsHandler(newTestServices(availableItem(itemmodels.CategoryBooks)))

	w := httptest.NewRecorder()
	h.Execute(w, httptest.NewRequest(http.MethodGet, "/matching/recommendations", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"recommendations":[],"total":0}` {
		t.Fatalf("body = %s", got)
	}
}

func TestGetRecommendations_Authenticated(t *testing.T) {
	svcs := newTestServices(availableItem(itemmodels.CategoryBooks), availableItem(itemmodels.CategoryArt))
	userID := uuid.New()
	books := []itemmodels.Category{itemmodels.CategoryBooks}
	if _, err := svcs.Preferences.Save(context.Background(), userID, models.PreferencesPatch{PreferredCategories: &books}); err != nil {
		t.Fatalf("seed preferences: %v", err)
	}

	w := httptest.NewRecorder()
	r := asUser(httptest.NewRequest(http.MethodGet, "/matching/recommendations?limit=1", nil), userID)
	NewGetRecommendationsHandler(svcs).Execute(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp RecommendationListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Recommendations) != 1 {
		t.Fatalf("total=%d len=%d", resp.Total, len(resp.Recommendations))
	}
	top := resp.Recommendations[0]
	if top.Item.Category != "BOOKS" || top.Score != 40 || top.Tier != string(models.TierFair) {
		t.Fatalf("top = %+v", top)
	}
	if len(top.Reasons) != 2 || top.Reasons[0].Description != domainsvcs.ReasonCategory {
		t.Fatalf("reasons = %+v", top.Reasons)
	}
}

func TestGetPreferences(t *testing.T) {
	h := NewGetPreferencesHandler(newTestServices())

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Execute(w, httptest.NewRequest(http.MethodGet, "/matching/preferences", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Execute(w, asUser(httptest.NewRequest(http.MethodGet, "/matching/preferences", nil), uuid.New()))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		want := `{"preferences":{"preferredCategories":[],"dislikedCategories":[],"preferredConditions":[]}}`
		if got := strings.TrimSpace(w.Body.String()); got != want {
			t.Fatalf("body = %s", got)
		}
	})
}

func TestPostPreferences(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"preferredCategories":["BOOKS","ART"],"preferredConditions":["NEW"],"country":"FR"}`, http.StatusOK},
		{"empty body object", `{}`, http.StatusOK},
		{"unknown category", `{"preferredCategories":["VEHICLES"]}`, http.StatusUnprocessableEntity},
		{"unknown condition", `{"preferredConditions":["BROKEN"]}`, http.StatusUnprocessableEntity},
		{"lowercase country", `{"country":"fr"}`, http.StatusOK},
		{"empty country clears", `{"country":""}`, http.StatusOK},
		{"bad country", `{"country":"France"}`, http.StatusUnprocessableEntity},
		{"unassigned country code", `{"country":"zz"}`, http.StatusUnprocessableEntity},
		{"conflict", `{"preferredCategories":["TOYS"],"dislikedCategories":["TOYS"]}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"favourite":"BOOKS"}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPostPreferencesHandler(newTestServices())
			w := httptest.NewRecorder()
			r := asUser(httptest.NewRequest(http.MethodPost, "/matching/preferences", strings.NewReader(tt.body)), uuid.New())
			h.Execute(w, r)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestPostPreferences_PartialUpdate(t *testing.T) {
	svcs := newTestServices()
	h := NewPostPreferencesHandler(svcs)
	userID := uuid.New()

	post := func(body string) PreferencesResponse {
		t.Helper()
		w := httptest.NewRecorder()
		h.Execute(w, asUser(httptest.NewRequest(http.MethodPost, "/matching/preferences", strings.NewReader(body)), userID))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
		}
		var resp PreferencesResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp
	}

	first := post(`{"preferredCategories":["BOOKS"],"country":"BE"}`)
	if first.Preferences.UpdatedAt == nil {
		t.Fatal("saved preferences must expose updatedAt")
	}

	second := post(`{"dislikedCategories":["TOYS"]}`)
	p := second.Preferences
	if len(p.PreferredCategories) != 1 || p.PreferredCategories[0] != "BOOKS" || p.Country != "BE" {
		t.Fatalf("omitted fields must be kept, got %+v", p)
	}
	if len(p.DislikedCategories) != 1 || p.DislikedCategories[0] != "TOYS" {
		t.Fatalf("disliked = %v", p.DislikedCategories)
	}

	third := post(`{"preferredCategories":[],"country":""}`)
	if len(third.Preferences.PreferredCategories) != 0 || third.Preferences.Country != "" {
		t.Fatalf("empty values must clear, got %+v", third.Preferences)
	}

	fourth := post(`{"country":"fr"}`)
	if fourth.Preferences.Country != "FR" {
		t.Fatalf("country must be stored upper-case, got %q", fourth.Preferences.Country)
	}
}
