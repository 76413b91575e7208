package catalog

import (
	"testing"
	"time"
)

func TestStoreGetSet(t *testing.T) {
	s := NewStore()

	if s.Get() != nil {
		t.Error("empty store returned a snapshot")
	}
	if age := s.AgeSeconds(); age != -1 {
		t.Errorf("empty store AgeSeconds() = %v, want -1", age)
	}

	ds := NewDataset("test", time.Now().Add(-10*time.Second), nil, nil)
	s.Set(ds)

	if got := s.Get(); got != ds {
		t.Error("Get returned a different snapshot than Set stored")
	}
	if age := s.AgeSeconds(); age < 9 || age > 60 {
		t.Errorf("AgeSeconds() = %v, want roughly 10", age)
	}
}

func TestLoad(t *testing.T) {
	ds, err := Load([]byte(sampleStarData), []byte(sampleConstellationData), "test", testFetchedAt, discardLogger)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Stars) != 4 {
		t.Errorf("loaded %d stars, want 4", len(ds.Stars))
	}
	if len(ds.Constellations) != 3 {
		t.Errorf("loaded %d constellations, want 3", len(ds.Constellations))
	}
	if ds.Source != "test" || !ds.FetchedAt.Equal(testFetchedAt) {
		t.Errorf("metadata = (%q, %v), want (test, %v)", ds.Source, ds.FetchedAt, testFetchedAt)
	}
	if i, ok := ds.Index(32349); !ok || ds.Stars[i].HIP != 32349 {
		t.Error("loaded dataset cannot look up HIP 32349")
	}
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	if _, err := Load(nil, []byte(sampleConstellationData), "test", testFetchedAt, discardLogger); err == nil {
		t.Error("Load with zero stars returned nil error")
	}
}
