package natsadapter

import (
	"testing"
	"time"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

func TestSubject(t *testing.T) {
	tests := map[domain.ViewEventType]string{
		domain.ViewCreated:     "map.view.created.v1",
		domain.ViewCentered:    "map.view.centered.v1",
		domain.ViewMarkerAdded: "map.view.marker_added.v1",
	}
	for typ, want := range tests {
		if got := Subject(typ, "v1"); got != want {
			t.Errorf("Subject(%s) = %s, want %s", typ, got, want)
		}
	}
}

func TestFilterSubjects(t *testing.T) {
	if got := EventSubject(domain.ViewCreated); got != "map.view.created.*" {
		t.Errorf("EventSubject = %s", got)
	}
	if got := ViewSubject("v1"); got != "map.view.*.v1" {
		t.Errorf("ViewSubject = %s", got)
	}
}

func TestMsgID_DistinguishesMarkers(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := &domain.ViewEvent{Type: domain.ViewMarkerAdded, ViewID: "v1", Time: now, Marker: &domain.MarkerState{ID: "m1"}}
	b := &domain.ViewEvent{Type: domain.ViewMarkerAdded, ViewID: "v1", Time: now, Marker: &domain.MarkerState{ID: "m2"}}

	if msgID(a) == msgID(b) {
		t.Error("events for different markers must not share a message id")
	}
	if msgID(a) != msgID(a) {
		t.Error("message id must be stable")
	}
}
