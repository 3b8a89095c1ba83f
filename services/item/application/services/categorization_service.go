package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/secondlife-exchange/exchange/pkg/logger"
	"github.com/secondlife-exchange/exchange/pkg/telemetry"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
)

// CategorizeWorkflowName is the Temporal workflow type that runs a
// categorization durably.
const CategorizeWorkflowName = "CategorizeItemWorkflow"

// Categorizer suggests a category, tags and summary for a listing.
type Categorizer interface {
	Categorize(ctx context.Context, title, description string) (models.Categorization, error)
}

// WorkflowStarter starts a workflow at most once per ID.
// *workflows.TemporalClient satisfies it.
type WorkflowStarter interface {
	StartOnce(ctx context.Context, workflowID, taskQueue string, workflowFn any, args ...any) error
}

// CategorizeRequest identifies the listing to categorize.
type CategorizeRequest struct {
	ItemID      uuid.UUID `json:"item_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// CategorizationService enriches new listings with AI suggestions, either
// inline or through a Temporal workflow when a starter is configured.
type CategorizationService struct {
	items     *ItemService
	ai        Categorizer
	starter   WorkflowStarter
	taskQueue string
	log       logger.Logger
}

// NewCategorizationService wires the service. ai may be nil (disabled);
// starter may be nil (inline mode).
func NewCategorizationService(items *ItemService, ai Categorizer, starter WorkflowStarter, taskQueue string, log logger.Logger) *CategorizationService {
	return &CategorizationService{items: items, ai: ai, starter: starter, taskQueue: taskQueue, log: log}
}

// Enabled reports whether a Categorizer is configured.
func (s *CategorizationService) Enabled() bool {
	return s.ai != nil
}

// Request schedules categorization of a new listing. With Temporal the
// workflow ID is derived from the item so redelivered events start it once.
func (s *CategorizationService) Request(ctx context.Context, req CategorizeRequest) error {
	if !s.Enabled() {
		return nil
	}
	if s.starter != nil {
		return s.starter.StartOnce(ctx, "categorize-"+req.ItemID.String(), s.taskQueue, CategorizeWorkflowName, req)
	}

	if err := s.Run(ctx, req); err != nil {
		s.log.WarnContext(ctx, "inline categorization failed", "item_id", req.ItemID, "error", err)
		telemetry.CaptureError(ctx, err, map[string]string{"item_id": req.ItemID.String()})
	}
	return nil
}

// Run calls the Categorizer and merges its suggestion into the stored item.
func (s *CategorizationService) Run(ctx context.Context, req CategorizeRequest) error {
	if !s.Enabled() {
		return nil
	}
	suggestion, err := s.ai.Categorize(ctx, req.Title, req.Description)
	if err != nil {
		return fmt.Errorf("categorize item %s: %w", req.ItemID, err)
	}

	item, changed, err := s.items.ApplyCategorization(ctx, req.ItemID, suggestion)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "item categorized",
		"item_id", req.ItemID,
		"changed", changed,
		"category", item.Category,
		"tags", len(item.Tags),
	)
	return nil
}
