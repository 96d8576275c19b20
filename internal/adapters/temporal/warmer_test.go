package temporal_test

import (
	"context"
	"errors"
	"testing"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/mapboot/internal/adapters/temporal"
	"github.com/samirrijal/mapboot/internal/core/domain"
)

// --- Mock WorkflowStarter ---

type mockRun struct {
	client.WorkflowRun
	runID string
}

func (r mockRun) GetRunID() string { return r.runID }

type mockStarter struct {
	opts client.StartWorkflowOptions
	args []interface{}
	err  error
}

func (m *mockStarter) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	m.opts = options
	m.args = args
	if m.err != nil {
		return nil, m.err
	}
	return mockRun{runID: "run-1"}, nil
}

// --- Tests ---

func TestWarmer_WarmTiles(t *testing.T) {
	starter := &mockStarter{}
	w := temporal.NewWarmer(starter, "")

	runID, err := w.WarmTiles(context.Background(), domain.TileWarmRequest{ViewID: "v1", MinZoom: 11, MaxZoom: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runID != "run-1" {
		t.Errorf("expected run-1, got %s", runID)
	}
	if starter.opts.ID != "tile-warm-v1" || starter.opts.TaskQueue != "tile-warming" {
		t.Errorf("unexpected options %+v", starter.opts)
	}
	if len(starter.args) != 1 {
		t.Fatalf("expected 1 workflow arg, got %d", len(starter.args))
	}
	if req, ok := starter.args[0].(domain.TileWarmRequest); !ok || req.ViewID != "v1" {
		t.Errorf("unexpected workflow arg %#v", starter.args[0])
	}
}

func TestWarmer_StartError(t *testing.T) {
	w := temporal.NewWarmer(&mockStarter{err: errors.New("unavailable")}, "q")
	if _, err := w.WarmTiles(context.Background(), domain.TileWarmRequest{ViewID: "v1"}); err == nil {
		t.Fatal("expected error")
	}
}
