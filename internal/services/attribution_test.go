package services

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"route-safety-service/internal/adapters/roads"
	"route-safety-service/internal/domain"
)

func affectedAt(points ...orb.Point) []domain.AffectedPoint {
	out := make([]domain.AffectedPoint, 0, len(points))
	for i, p := range points {
		out = append(out, domain.AffectedPoint{
			SampleIndex: i,
			Coord:       p,
			Class:       domain.ClassFlooded,
		})
	}
	return out
}

func TestAttributeRoadsGroupsAndRanks(t *testing.T) {
	provider := &roads.MockRoadProvider{
		Features: []domain.RoadFeature{
			{
				Name:     "Canal Street",
				Class:    "primary",
				Geometry: orb.LineString{{10.0000, 50.0000}, {10.0010, 50.0000}, {10.0020, 50.0000}},
			},
			{
				Name:     "Mill Lane",
				Class:    "residential",
				Geometry: orb.LineString{{10.0000, 50.0100}, {10.0010, 50.0100}},
			},
		},
	}

	// Six points on Canal Street (severe), one on Mill Lane (partial).
	points := affectedAt(
		orb.Point{10.0001, 50.0001},
		orb.Point{10.0004, 50.0001},
		orb.Point{10.0009, 50.0001},
		orb.Point{10.0011, 50.0001},
		orb.Point{10.0016, 50.0001},
		orb.Point{10.0019, 50.0001},
		orb.Point{10.0001, 50.0101},
	)

	impacts, degraded := AttributeRoads(context.Background(), provider, points, zap.NewNop())
	if degraded {
		t.Fatal("expected degraded=false with a working provider")
	}

	if len(impacts) != 2 {
		t.Fatalf("expected 2 impacts, got %d: %+v", len(impacts), impacts)
	}

	// Ranked by affected point count.
	if impacts[0].Name != "Canal Street" {
		t.Fatalf("top impact = %q, want Canal Street", impacts[0].Name)
	}
	if impacts[0].AffectedPoints != 6 {
		t.Fatalf("Canal Street points = %d, want 6", impacts[0].AffectedPoints)
	}
	if impacts[0].Severity != domain.SeveritySeverelyFlooded {
		t.Fatalf("Canal Street severity = %q, want severe", impacts[0].Severity)
	}
	if impacts[0].Description != "Canal Street (Main road)" {
		t.Fatalf("Canal Street description = %q", impacts[0].Description)
	}

	if impacts[1].Name != "Mill Lane" {
		t.Fatalf("second impact = %q, want Mill Lane", impacts[1].Name)
	}
	if impacts[1].Severity != domain.SeverityPartiallyFlooded {
		t.Fatalf("Mill Lane severity = %q, want partial", impacts[1].Severity)
	}
}

func TestAttributeRoadsFallbackBucket(t *testing.T) {
	provider := &roads.MockRoadProvider{
		Features: []domain.RoadFeature{
			{Name: "Canal Street", Class: "primary", Geometry: orb.LineString{{10, 50}, {10.001, 50}}},
		},
	}

	// One point near the feature, one far beyond the proximity threshold.
	points := affectedAt(
		orb.Point{10.0001, 50.0001},
		orb.Point{10.05, 50.05},
	)

	impacts, degraded := AttributeRoads(context.Background(), provider, points, zap.NewNop())
	if degraded {
		t.Fatal("expected degraded=false")
	}
	if len(impacts) != 2 {
		t.Fatalf("expected named impact plus fallback bucket, got %d", len(impacts))
	}
	last := impacts[len(impacts)-1]
	if last.Name != "Local roads in area" {
		t.Fatalf("fallback name = %q", last.Name)
	}
	if last.AffectedPoints != 1 {
		t.Fatalf("fallback points = %d, want 1", last.AffectedPoints)
	}
}

func TestAttributeRoadsProviderFailure(t *testing.T) {
	provider := &roads.MockRoadProvider{Err: errors.New("overpass down")}

	points := affectedAt(orb.Point{10, 50}, orb.Point{10.001, 50})
	impacts, degraded := AttributeRoads(context.Background(), provider, points, zap.NewNop())

	if !degraded {
		t.Fatal("expected degraded=true on provider failure")
	}
	if len(impacts) != 1 || impacts[0].Name != "Local roads in area" {
		t.Fatalf("expected single fallback impact, got %+v", impacts)
	}
	if impacts[0].AffectedPoints != 2 {
		t.Fatalf("fallback points = %d, want 2", impacts[0].AffectedPoints)
	}
}

func TestAttributeRoadsNoPoints(t *testing.T) {
	provider := &roads.MockRoadProvider{}

	impacts, degraded := AttributeRoads(context.Background(), provider, nil, zap.NewNop())
	if impacts != nil || degraded {
		t.Fatalf("expected no impacts for no points, got %+v degraded=%v", impacts, degraded)
	}
	if provider.Calls != 0 {
		t.Fatalf("provider must not be called without points, got %d calls", provider.Calls)
	}
}

func TestAttributeRoadsUnnamedFeature(t *testing.T) {
	provider := &roads.MockRoadProvider{
		Features: []domain.RoadFeature{
			{Class: "service", Geometry: orb.LineString{{10, 50}, {10.0005, 50}}},
		},
	}

	points := affectedAt(orb.Point{10.0001, 50.0001})
	impacts, _ := AttributeRoads(context.Background(), provider, points, zap.NewNop())

	if len(impacts) != 1 {
		t.Fatalf("expected 1 impact, got %d", len(impacts))
	}
	if impacts[0].Name != "Unnamed road" {
		t.Fatalf("name = %q, want Unnamed road", impacts[0].Name)
	}
}
