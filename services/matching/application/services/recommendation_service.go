package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/secondlife-exchange/exchange/pkg/logger"
	itemmodels "github.com/secondlife-exchange/exchange/services/item/domain/models"
	"github.com/secondlife-exchange/exchange/services/matching/domain/models"
	"github.com/secondlife-exchange/exchange/services/matching/domain/repositories"
	domainsvcs "github.com/secondlife-exchange/exchange/services/matching/domain/services"
)

const instrumentationName = "github.com/secondlife-exchange/exchange/services/matching"

// DefaultCandidateLimit caps the candidate pool when no limit is configured.
const DefaultCandidateLimit = 500

// PreferencesReader loads a user's preferences, defaulting when absent.
// *PreferencesService satisfies it.
type PreferencesReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Preferences, error)
}

// RecommendationPage is one window of ranked recommendations. Total counts
// every eligible candidate before pagination.
type RecommendationPage struct {
	Recommendations []models.Recommendation
	Total           int
}

// RecommendationService scores the most recent available items against a
// user's preferences and returns them ranked.
type RecommendationService struct {
	prefs          PreferencesReader
	candidates     repositories.CandidateRepository
	scorer         *domainsvcs.Scorer
	candidateLimit int
	log            logger.Logger
	now            func() time.Time

	requests metric.Int64Counter
	scored   metric.Int64Histogram
	duration metric.Float64Histogram
}

// NewRecommendationService wires the service. candidateLimit bounds the
// number of items scored per request.
func NewRecommendationService(
	prefs PreferencesReader,
	candidates repositories.CandidateRepository,
	scorer *domainsvcs.Scorer,
	candidateLimit int,
	log logger.Logger,
) *RecommendationService {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	s := &RecommendationService{
		prefs:          prefs,
		candidates:     candidates,
		scorer:         scorer,
		candidateLimit: candidateLimit,
		log:            log,
		now:            time.Now,
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if s.requests, err = meter.Int64Counter("matching.recommendations.requests",
		metric.WithDescription("Recommendation requests served")); err != nil {
		log.Warn("matching: create requests counter", "error", err)
	}
	if s.scored, err = meter.Int64Histogram("matching.recommendations.candidates",
		metric.WithDescription("Candidates scored per request")); err != nil {
		log.Warn("matching: create candidates histogram", "error", err)
	}
	if s.duration, err = meter.Float64Histogram("matching.recommendations.duration",
		metric.WithDescription("Time spent computing recommendations"), metric.WithUnit("s")); err != nil {
		log.Warn("matching: create duration histogram", "error", err)
	}
	return s
}

// Recommend returns the page [offset, offset+limit) of recommendations for
// userID. An anonymous caller (uuid.Nil) gets an empty page.
func (s *RecommendationService) Recommend(ctx context.Context, userID uuid.UUID, limit, offset int) (RecommendationPage, error) {
	if userID == uuid.Nil {
		s.record(ctx, true, 0, 0)
		return RecommendationPage{Recommendations: []models.Recommendation{}}, nil
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "RecommendationService.Recommend")
	defer span.End()
	start := time.Now()

	var (
		prefs      *models.Preferences
		candidates []*itemmodels.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.prefs.Get(gctx, userID)
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		prefs = p
		return nil
	})
	g.Go(func() error {
		items, err := s.candidates.AvailableExcludingOwner(gctx, userID, s.candidateLimit)
		if err != nil {
			return fmt.Errorf("load candidates: %w", err)
		}
		candidates = items
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return RecommendationPage{}, err
	}

	now := s.now()
	recs := make([]models.Recommendation, 0, len(candidates))
	for _, item := range candidates {
		if rec, ok := s.scorer.Score(prefs, item, now); ok {
			recs = append(recs, rec)
		}
	}
	domainsvcs.Rank(recs)

	page := RecommendationPage{
		Recommendations: domainsvcs.Paginate(recs, limit, offset),
		Total:           len(recs),
	}

	span.SetAttributes(
		attribute.Int("matching.candidates", len(candidates)),
		attribute.Int("matching.eligible", len(recs)),
	)
	s.record(ctx, false, len(candidates), time.Since(start))
	s.log.DebugContext(ctx, "recommendations computed",
		"user_id", userID,
		"candidates", len(candidates),
		"eligible", len(recs),
		"returned", len(page.Recommendations),
	)
	return page, nil
}

func (s *RecommendationService) record(ctx context.Context, anonymous bool, candidates int, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("anonymous", anonymous))
	if s.requests != nil {
		s.requests.Add(ctx, 1, attrs)
	}
	if anonymous {
		return
	}
	if s.scored != nil {
		s.scored.Record(ctx, int64(candidates))
	}
	if s.duration != nil {
		s.duration.Record(ctx, elapsed.Seconds())
	}
}
