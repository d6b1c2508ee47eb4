package repository

import (
	"context"
	"errors"
	"testing"

	listingserrors "staybook/internal/listings/errors"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func TestSearchFilter(t *testing.T) {
	minPrice, maxPrice := 50.0, 200.0
	bedrooms := 2
	villa := model.PropertyVilla

	tests := []struct {
		name     string
		criteria model.ListingCriteria
		expected bson.M
	}{
		{
			name:     "empty",
			criteria: model.ListingCriteria{},
			expected: bson.M{},
		},
		{
			name:     "lone min price is ignored",
			criteria: model.ListingCriteria{MinPrice: &minPrice},
			expected: bson.M{},
		},
		{
			name:     "full criteria",
			criteria: model.ListingCriteria{MinPrice: &minPrice, MaxPrice: &maxPrice, PropertyType: &villa, MinBedrooms: &bedrooms},
			expected: bson.M{
				"price_per_night": bson.M{"$gte": 50.0, "$lte": 200.0},
				"property_type":   int(model.PropertyVilla),
				"bedrooms":        bson.M{"$gte": 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bson.Marshal(SearchFilter(tt.criteria))
			if err != nil {
				t.Fatalf("marshal filter: %v", err)
			}
			want, err := bson.Marshal(tt.expected)
			if err != nil {
				t.Fatalf("marshal expected: %v", err)
			}
			var gotDoc, wantDoc bson.M
			_ = bson.Unmarshal(got, &gotDoc)
			_ = bson.Unmarshal(want, &wantDoc)
			if len(gotDoc) != len(wantDoc) {
				t.Fatalf("expected %v, got %v", wantDoc, gotDoc)
			}
			for k := range wantDoc {
				if _, ok := gotDoc[k]; !ok {
					t.Errorf("missing key %q in %v", k, gotDoc)
				}
			}
		})
	}
}

func TestMemoryRepository_FindByID(t *testing.T) {
	repo := NewMemoryRepository(model.Listing{ID: "cabin-1", Title: "Lake cabin"})

	l, err := repo.FindByID(context.Background(), "cabin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Title = "changed"

	again, _ := repo.FindByID(context.Background(), "cabin-1")
	if again.Title != "Lake cabin" {
		t.Error("returned listing must be a copy")
	}

	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, listingserrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_CreateAssignsID(t *testing.T) {
	repo := NewMemoryRepository()
	l := &model.Listing{Title: "Beach house", PricePerNight: 300}
	if err := repo.Create(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := repo.FindByID(context.Background(), l.ID); err != nil {
		t.Errorf("created listing not found: %v", err)
	}
}
