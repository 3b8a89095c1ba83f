// Package workflows holds the Temporal workflows and activities of the item
// bounded context.
package workflows

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/secondlife-exchange/exchange/services/item/application/services"
	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
)

const errTypeItemNotFound = "ItemNotFound"

// categorizeRetryPolicy retries Gemini outages with exponential backoff.
var categorizeRetryPolicy = &temporal.RetryPolicy{
	InitialInterval:        5 * time.Second,
	BackoffCoefficient:     2,
	MaximumInterval:        2 * time.Minute,
	MaximumAttempts:        5,
	NonRetryableErrorTypes: []string{errTypeItemNotFound},
}

// CategorizeItemWorkflow runs the categorization activity for one item.
// It is registered as services.CategorizeWorkflowName.
func CategorizeItemWorkflow(ctx workflow.Context, req services.CategorizeRequest) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy:         categorizeRetryPolicy,
	})

	var a *Activities
	if err := workflow.ExecuteActivity(ctx, a.CategorizeItem, req).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("categorization gave up", "item_id", req.ItemID.String(), "error", err)
		return err
	}
	return nil
}

// Activities are the side-effecting steps called by the workflows.
type Activities struct {
	categorization *services.CategorizationService
}

// NewActivities returns Activities backed by svc.
func NewActivities(svc *services.CategorizationService) *Activities {
	return &Activities{categorization: svc}
}

// CategorizeItem calls the AI categorizer and stores its suggestion. A
// deleted item is not retried.
func (a *Activities) CategorizeItem(ctx context.Context, req services.CategorizeRequest) error {
	err := a.categorization.Run(ctx, req)
	if errors.Is(err, itemdomain.ErrItemNotFound) {
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeItemNotFound, err)
	}
	return err
}

// Register adds the item workflows and activities to w.
func Register(w worker.Worker, svc *services.CategorizationService) {
	w.RegisterWorkflowWithOptions(CategorizeItemWorkflow, workflow.RegisterOptions{Name: services.CategorizeWorkflowName})
	w.RegisterActivity(NewActivities(svc))
}
