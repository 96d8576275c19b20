package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/usecases"
)

type mockWarmer struct {
	requests []domain.TileWarmRequest
	err      error
}

func (m *mockWarmer) WarmTiles(ctx context.Context, req domain.TileWarmRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	return "run-1", nil
}

func createdState(t *testing.T) *domain.MapViewState {
	t.Helper()
	svc := newMapService(newMockViewRepo(), nil)
	state, err := svc.Create(context.Background(), usecases.CreateViewOptions{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return state
}

func TestWarmOnCreate_SchedulesCreatedViews(t *testing.T) {
	warmer := &mockWarmer{}
	handle := usecases.WarmOnCreate(warmer, 1)
	state := createdState(t)

	err := handle(context.Background(), &domain.ViewEvent{Type: domain.ViewCreated, ViewID: state.ID, State: state})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warmer.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(warmer.requests))
	}
	req := warmer.requests[0]
	if req.ViewID != state.ID || req.Radius != 1 || req.MinZoom != 11 || req.MaxZoom != 15 {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestWarmOnCreate_IgnoresOtherEvents(t *testing.T) {
	warmer := &mockWarmer{}
	handle := usecases.WarmOnCreate(warmer, 1)
	state := createdState(t)

	events := []*domain.ViewEvent{
		{Type: domain.ViewCentered, ViewID: state.ID, State: state},
		{Type: domain.ViewMarkerAdded, ViewID: state.ID},
		{Type: domain.ViewCreated, ViewID: state.ID},
	}
	for _, e := range events {
		if err := handle(context.Background(), e); err != nil {
			t.Errorf("%s: unexpected error %v", e.Type, err)
		}
	}
	if len(warmer.requests) != 0 {
		t.Errorf("expected no requests, got %d", len(warmer.requests))
	}
}

func TestWarmOnCreate_PropagatesErrors(t *testing.T) {
	warmer := &mockWarmer{err: errors.New("unavailable")}
	handle := usecases.WarmOnCreate(warmer, 1)
	state := createdState(t)

	err := handle(context.Background(), &domain.ViewEvent{Type: domain.ViewCreated, ViewID: state.ID, State: state})
	if err == nil {
		t.Fatal("expected error so the event is redelivered")
	}
}

func TestScheduleWarm_NoBaseLayer(t *testing.T) {
	warmer := &mockWarmer{}
	state := &domain.MapViewState{ID: "v1", Zoom: 3}

	runID, err := usecases.ScheduleWarm(context.Background(), warmer, state, 1)
	if err != nil || runID != "" {
		t.Fatalf("expected no-op, got %q, %v", runID, err)
	}
	if len(warmer.requests) != 0 {
		t.Error("expected no request")
	}
}

type fakeSubscriber struct {
	handler func(ctx context.Context, event *domain.ViewEvent) error
}

func (f *fakeSubscriber) SubscribeViewEvents(ctx context.Context, handler func(ctx context.Context, event *domain.ViewEvent) error) error {
	f.handler = handler
	return nil
}

func TestWarmCreatedViews_DeliversToWarmer(t *testing.T) {
	sub := &fakeSubscriber{}
	warmer := &mockWarmer{}
	if err := usecases.WarmCreatedViews(context.Background(), sub, warmer, 2); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.handler == nil {
		t.Fatal("expected a handler to be registered")
	}

	state := createdState(t)
	if err := sub.handler(context.Background(), &domain.ViewEvent{Type: domain.ViewCreated, ViewID: state.ID, State: state}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(warmer.requests) != 1 || warmer.requests[0].Radius != 2 {
		t.Errorf("unexpected requests %+v", warmer.requests)
	}
}
