package models

import "time"

// EstimateKind names one of the four rent statistics Rentometer reports for
// a query. The set is closed.
type EstimateKind string

const (
	KindAverage      EstimateKind = "average"
	KindMedian       EstimateKind = "median"
	KindPercentile25 EstimateKind = "25th percentile"
	KindPercentile75 EstimateKind = "75th percentile"
)

// AllEstimateKinds lists every EstimateKind in presentation order.
var AllEstimateKinds = []EstimateKind{
	KindAverage,
	KindMedian,
	KindPercentile25,
	KindPercentile75,
}

// UnitEstimate pairs a unit with its estimated monthly rent for one
// EstimateKind. A MonthlyRent of 0 means Rentometer had no data for the
// unit; the original tooling used plain zero for both "no data" and a
// genuine $0 parse, and that behavior is kept for parity.
type UnitEstimate struct {
	Unit        Unit    `json:"unit"`
	MonthlyRent float64 `json:"monthly_rent"`
}

// EstimateCollection groups the unit estimates of one listing by
// EstimateKind. Each group holds at most one estimate per unit, appended in
// listing-unit order; groups are independent, so a failure on one unit never
// invalidates estimates already collected for the others.
type EstimateCollection struct {
	Address string                          `json:"address"`
	SavedAt time.Time                       `json:"saved_at"`
	Groups  map[EstimateKind][]UnitEstimate `json:"groups"`
}

// NewEstimateCollection returns an empty collection for the given address.
func NewEstimateCollection(address string) *EstimateCollection {
	return &EstimateCollection{
		Address: address,
		Groups:  make(map[EstimateKind][]UnitEstimate),
	}
}

// Add appends an estimate to the kind's group. If the unit already has an
// estimate of that kind the existing entry is replaced, preserving the
// one-estimate-per-unit-per-kind invariant.
func (c *EstimateCollection) Add(kind EstimateKind, est UnitEstimate) {
	group := c.Groups[kind]
	for i, existing := range group {
		if existing.Unit == est.Unit {
			group[i] = est
			return
		}
	}
	c.Groups[kind] = append(group, est)
}

// Kind returns the ordered group for one EstimateKind.
func (c *EstimateCollection) Kind(kind EstimateKind) []UnitEstimate {
	return c.Groups[kind]
}

// Size returns the total number of unit estimates across all kinds.
func (c *EstimateCollection) Size() int {
	n := 0
	for _, group := range c.Groups {
		n += len(group)
	}
	return n
}

// Empty reports whether no estimates have been collected.
func (c *EstimateCollection) Empty() bool {
	return c.Size() == 0
}
