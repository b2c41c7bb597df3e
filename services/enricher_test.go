package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"skaters/models"
)

type stubDetails struct {
	details *models.PlaceDetails
	err     error
	calls   int
}

func (s *stubDetails) Details(ctx context.Context, externalID string) (*models.PlaceDetails, error) {
	s.calls++
	return s.details, s.err
}

func TestEnrichMergesDetails(t *testing.T) {
	stub := &stubDetails{details: &models.PlaceDetails{
		Phone:        "+1 503-823-2223",
		Website:      "https://example.com/burnside",
		OpeningHours: []string{"Monday: Open 24 hours"},
		PhotoRefs:    []string{"r1", "r2", "r3"},
	}}
	in := burnside()
	in.ExternalID = "place-1"

	out, err := NewEnricher(stub, 2).Enrich(context.Background(), in)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if out.Phone != "+1 503-823-2223" || out.Website != "https://example.com/burnside" {
		t.Fatalf("contact not merged: %+v", out.Venue)
	}
	if len(out.Photos) != 2 || out.Photos[0] != models.ProviderPhoto("r1") {
		t.Fatalf("photos not capped: %+v", out.Photos)
	}
	if len(out.OpeningHours) != 1 {
		t.Fatalf("hours not merged: %v", out.OpeningHours)
	}
	if in.Website != "" || len(in.Photos) != 0 {
		t.Fatal("input venue was mutated")
	}
}

func TestEnrichFailureReturnsInput(t *testing.T) {
	stub := &stubDetails{err: errors.New("timeout")}
	in := burnside()
	in.ExternalID = "place-1"

	out, err := NewEnricher(stub, 10).Enrich(context.Background(), in)
	if err != nil {
		t.Fatalf("lookup failures must not be returned: %v", err)
	}
	if out.Website != in.Website || len(out.Photos) != 0 || len(out.OpeningHours) != 0 {
		t.Fatalf("expected unenriched venue, got %+v", out)
	}
}

func TestEnrichSkipsVenuesWithoutExternalID(t *testing.T) {
	stub := &stubDetails{}
	if _, err := NewEnricher(stub, 10).Enrich(context.Background(), burnside()); err != nil {
		t.Fatal(err)
	}
	if stub.calls != 0 {
		t.Fatalf("expected no lookup, got %d", stub.calls)
	}
}

func TestEnrichReturnsBudgetExhausted(t *testing.T) {
	stub := &stubDetails{err: fmt.Errorf("places details p1: %w", ErrBudgetExhausted)}
	in := burnside()
	in.ExternalID = "place-1"

	out, err := NewEnricher(stub, 10).Enrich(context.Background(), in)
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected budget error, got %v", err)
	}
	if len(out.Photos) != 0 || len(out.OpeningHours) != 0 {
		t.Fatalf("expected unenriched venue, got %+v", out)
	}
}

func TestEnrichReturnsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stub := &stubDetails{err: context.Canceled}
	in := burnside()
	in.ExternalID = "place-1"

	if _, err := NewEnricher(stub, 10).Enrich(ctx, in); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
