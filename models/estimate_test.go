package models

import "testing"

func TestCollectionAddKeepsOnePerUnitPerKind(t *testing.T) {
	col := NewEstimateCollection("689 Auburn Street, Manchester, NH 03103")
	unit := Unit{Beds: 4, Baths: 1}

	col.Add(KindAverage, UnitEstimate{Unit: unit, MonthlyRent: 1600})
	col.Add(KindAverage, UnitEstimate{Unit: unit, MonthlyRent: 1657})

	group := col.Kind(KindAverage)
	if len(group) != 1 {
		t.Fatalf("group has %d estimates; want 1 (re-add must replace)", len(group))
	}
	if group[0].MonthlyRent != 1657 {
		t.Errorf("rent = %v; want the replacing value 1657", group[0].MonthlyRent)
	}
}

func TestCollectionGroupsAreIndependent(t *testing.T) {
	col := NewEstimateCollection("addr")
	u1 := Unit{Beds: 4, Baths: 1}
	u2 := Unit{Beds: 3, Baths: 1}

	col.Add(KindAverage, UnitEstimate{Unit: u1, MonthlyRent: 1657})
	col.Add(KindAverage, UnitEstimate{Unit: u2, MonthlyRent: 1494})
	col.Add(KindMedian, UnitEstimate{Unit: u1, MonthlyRent: 1625})

	if got := len(col.Kind(KindAverage)); got != 2 {
		t.Errorf("average group = %d; want 2", got)
	}
	if got := len(col.Kind(KindMedian)); got != 1 {
		t.Errorf("median group = %d; want 1", got)
	}
	if got := len(col.Kind(KindPercentile25)); got != 0 {
		t.Errorf("25th percentile group = %d; want 0", got)
	}
	if col.Size() != 3 {
		t.Errorf("size = %d; want 3", col.Size())
	}
	if col.Empty() {
		t.Error("collection with estimates reported empty")
	}
}
