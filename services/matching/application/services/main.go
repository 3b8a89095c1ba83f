package services

import (
	"github.com/secondlife-exchange/exchange/pkg/app"
	"github.com/secondlife-exchange/exchange/pkg/cache"
	domainsvcs "github.com/secondlife-exchange/exchange/services/matching/domain/services"
	"github.com/secondlife-exchange/exchange/services/matching/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	Preferences     *PreferencesService
	Recommendations *RecommendationService
}

// New wires all matching application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	var prefsCache PreferencesCache
	if a.Redis != nil {
		prefsCache = cache.NewPreferencesCache(a.Redis)
	}
	prefs := NewPreferencesService(postgres.NewPreferencesRepository(a.Db.Pool()), prefsCache, a.Logger)

	return &Services{
		Preferences: prefs,
		Recommendations: NewRecommendationService(
			prefs,
			postgres.NewCandidateRepository(a.Db.Pool()),
			domainsvcs.NewScorer(domainsvcs.DefaultWeights),
			a.Config.MatchingCandidateLimit,
			a.Logger,
		),
	}
}
