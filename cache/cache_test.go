package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rental-analyzer/models"
	"rental-analyzer/utils"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(t.TempDir(), utils.NewLogger())
}

func TestPutThenGet(t *testing.T) {
	c := newTestCache(t)

	col := models.NewEstimateCollection("276 Lakefield Pl, Moraga, CA 94556")
	unit := models.Unit{Beds: 3, Baths: 1}
	col.Add(models.KindAverage, models.UnitEstimate{Unit: unit, MonthlyRent: 1657})
	col.Add(models.KindMedian, models.UnitEstimate{Unit: unit, MonthlyRent: 1625})

	if err := c.Put(col); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, hit, err := c.Get(col.Address)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected a cache hit")
	}
	if got.Address != col.Address {
		t.Errorf("address = %q; want %q", got.Address, col.Address)
	}
	if got.Size() != 2 {
		t.Errorf("size = %d; want 2", got.Size())
	}
	avg := got.Kind(models.KindAverage)
	if len(avg) != 1 || avg[0].MonthlyRent != 1657 {
		t.Errorf("average group = %+v; want one $1657 estimate", avg)
	}
}

func TestPutDoesNotMutateCaller(t *testing.T) {
	c := newTestCache(t)

	col := models.NewEstimateCollection("42 Wallaby Way, Sydney, OH 45365")
	col.Add(models.KindAverage, models.UnitEstimate{Unit: models.Unit{Beds: 2, Baths: 1}, MonthlyRent: 1400})

	if err := c.Put(col); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !col.SavedAt.IsZero() {
		t.Errorf("Put stamped the caller's collection: SavedAt = %v", col.SavedAt)
	}

	got, hit, err := c.Get(col.Address)
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if got.SavedAt.IsZero() {
		t.Error("stored entry is missing its save timestamp")
	}
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)

	_, hit, err := c.Get("689 Auburn Street, Manchester, NH 03103")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Fatal("expected a cache miss")
	}
}

func TestDistinctAddressSpellings(t *testing.T) {
	c := newTestCache(t)

	a := models.NewEstimateCollection("689 Auburn St, Manchester, NH 03103")
	a.Add(models.KindAverage, models.UnitEstimate{Unit: models.Unit{Beds: 2, Baths: 1}, MonthlyRent: 1200})
	if err := c.Put(a); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A different spelling of the same property is a different entry.
	_, hit, err := c.Get("689 Auburn Street, Manchester, NH 03103")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Fatal("differently-formatted address should be a distinct entry")
	}
}

func TestPathUnsafeAddress(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, utils.NewLogger())

	col := models.NewEstimateCollection("12 Back\\Slash Rd / Unit ../.. #3, Nowhere, KS 66002")
	col.Add(models.KindMedian, models.UnitEstimate{Unit: models.Unit{Beds: 1, Baths: 1}, MonthlyRent: 900})
	if err := c.Put(col); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// The entry must live directly under the cache root in a hashed dir.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry dir, got %d", len(entries))
	}
	name := entries[0].Name()
	if len(name) != 64 || strings.ContainsAny(name, `/\.#`) {
		t.Errorf("entry dir %q is not a sha256 hex name", name)
	}
	if _, err := os.Stat(filepath.Join(dir, name, "estimates.json")); err != nil {
		t.Errorf("estimates.json missing: %v", err)
	}

	if _, hit, err := c.Get(col.Address); err != nil || !hit {
		t.Errorf("Get after Put: hit=%v err=%v", hit, err)
	}
}

func TestPutOverwritesWholesale(t *testing.T) {
	c := newTestCache(t)
	addr := "1050 Palafox Drive NE, Atlanta, GA 30324"

	first := models.NewEstimateCollection(addr)
	first.Add(models.KindAverage, models.UnitEstimate{Unit: models.Unit{Beds: 4, Baths: 2}, MonthlyRent: 2100})
	first.Add(models.KindMedian, models.UnitEstimate{Unit: models.Unit{Beds: 4, Baths: 2}, MonthlyRent: 2000})
	if err := c.Put(first); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second := models.NewEstimateCollection(addr)
	second.Add(models.KindAverage, models.UnitEstimate{Unit: models.Unit{Beds: 4, Baths: 2}, MonthlyRent: 2500})
	if err := c.Put(second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, hit, err := c.Get(addr)
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if got.Size() != 1 {
		t.Errorf("size after overwrite = %d; want 1 (old entry must be fully replaced)", got.Size())
	}
}
