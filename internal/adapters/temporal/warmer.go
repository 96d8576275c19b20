// Package temporal starts tile warm workflows on a Temporal cluster.
package temporal

import (
	"context"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/workflows"
)

// WorkflowStarter is the subset of client.Client the warmer needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Warmer implements ports.TileWarmer.
type Warmer struct {
	client    WorkflowStarter
	taskQueue string
}

// NewWarmer creates a Warmer scheduling on taskQueue.
func NewWarmer(c WorkflowStarter, taskQueue string) *Warmer {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Warmer{client: c, taskQueue: taskQueue}
}

// WorkflowID is the workflow id used for a view. One warm run per view is
// active at a time.
func WorkflowID(viewID string) string {
	return "tile-warm-" + viewID
}

// WarmTiles starts a TileWarmWorkflow for req and returns its run id.
func (w *Warmer) WarmTiles(ctx context.Context, req domain.TileWarmRequest) (string, error) {
	run, err := w.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    WorkflowID(req.ViewID),
		TaskQueue:             w.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.TileWarmWorkflow, req)
	if err != nil {
		return "", fmt.Errorf("start tile warm workflow: %w", err)
	}
	return run.GetRunID(), nil
}
