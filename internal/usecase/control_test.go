package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
)

func boolPtr(v bool) *bool { return &v }

func newControlFixture(now time.Time) (*ControlService, *testPedestalRepo, *testGrantCache, *testPublisher) {
	repo := &testPedestalRepo{pedestals: map[string]domain.Pedestal{
		"ped-1": {
			ID:          "ped-1",
			MarinaID:    "marina-1",
			BerthNumber: "A-12",
			Status:      domain.PedestalOccupied,
			AccessCode:  "482913",
		},
	}}
	grants := newTestGrantCache()
	events := &testPublisher{}
	service := NewControlService(repo, grants, events, nil).
		WithClock(func() time.Time { return now })
	return service, repo, grants, events
}

func TestUpdateServices_RequiresGrant(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	service, repo, _, events := newControlFixture(now)

	_, err := service.UpdateServices(context.Background(), "user-1", "ped-1", domain.ServiceUpdate{
		WaterEnabled: boolPtr(true),
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("got %v, want ErrAccessDenied", err)
	}
	if repo.pedestals["ped-1"].WaterEnabled {
		t.Fatal("denied update must not change the pedestal")
	}
	if len(events.services) != 0 {
		t.Fatal("denied update must not publish an event")
	}
}

func TestUpdateServices_GrantIsScopedToUser(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	service, _, grants, _ := newControlFixture(now)

	if err := grants.Grant(context.Background(), "user-1", "ped-1"); err != nil {
		t.Fatal(err)
	}

	_, err := service.UpdateServices(context.Background(), "user-2", "ped-1", domain.ServiceUpdate{
		WaterEnabled: boolPtr(true),
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("another user's grant must not authorize the call, got %v", err)
	}
}

func TestUpdateServices_TogglesServices(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	service, _, grants, events := newControlFixture(now)

	if err := grants.Grant(context.Background(), "user-1", "ped-1"); err != nil {
		t.Fatal(err)
	}

	pedestal, err := service.UpdateServices(context.Background(), "user-1", "ped-1", domain.ServiceUpdate{
		WaterEnabled:       boolPtr(true),
		ElectricityEnabled: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pedestal.WaterEnabled || !pedestal.ElectricityEnabled {
		t.Fatalf("services not enabled: water=%v electricity=%v", pedestal.WaterEnabled, pedestal.ElectricityEnabled)
	}

	if len(events.services) != 1 {
		t.Fatalf("expected 1 services event, got %d", len(events.services))
	}
	event := events.services[0]
	if event.UserID != "user-1" || event.PedestalID != "ped-1" {
		t.Fatalf("event attribution wrong: %+v", event)
	}
	if !event.WaterEnabled || !event.ElectricityEnabled {
		t.Fatalf("event state wrong: %+v", event)
	}

	// Partial update leaves the other toggle alone.
	pedestal, err = service.UpdateServices(context.Background(), "user-1", "ped-1", domain.ServiceUpdate{
		WaterEnabled: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pedestal.WaterEnabled {
		t.Fatal("water should be off")
	}
	if !pedestal.ElectricityEnabled {
		t.Fatal("electricity should remain on")
	}
}

func TestUpdateServices_EmptyUpdateReadsBack(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	service, _, grants, events := newControlFixture(now)

	if err := grants.Grant(context.Background(), "user-1", "ped-1"); err != nil {
		t.Fatal(err)
	}

	pedestal, err := service.UpdateServices(context.Background(), "user-1", "ped-1", domain.ServiceUpdate{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pedestal.ID != "ped-1" {
		t.Fatalf("pedestal.ID = %q, want ped-1", pedestal.ID)
	}
	if len(events.services) != 0 {
		t.Fatal("empty update must not publish an event")
	}
}

func TestUpdateServices_UnknownPedestal(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	service, _, grants, _ := newControlFixture(now)

	if err := grants.Grant(context.Background(), "user-1", "missing"); err != nil {
		t.Fatal(err)
	}

	_, err := service.UpdateServices(context.Background(), "user-1", "missing", domain.ServiceUpdate{})
	if !errors.Is(err, ErrPedestalNotFound) {
		t.Fatalf("got %v, want ErrPedestalNotFound", err)
	}
}
