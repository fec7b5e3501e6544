package models

// Unit describes one rentable sub-space of a listing by its bedroom and
// bathroom counts. Half baths contribute 0.5 to Baths.
type Unit struct {
	Beds  float64 `json:"beds"`
	Baths float64 `json:"baths"`
}

// Listing is a single property listing reduced to what the analysis needs:
// the canonical address (also the cache key), the asking price, and the
// rentable units.
type Listing struct {
	Address string
	Price   float64
	Units   []Unit
	URL     string
}

// Scenario is one computed financial scenario for a listing: the upfront
// cost of acquiring it and the monthly cash flow of operating it, under the
// rent figures of one EstimateKind.
type Scenario struct {
	Address string
	Kind    EstimateKind

	// Ongoing income: sum of the per-unit monthly rents for this kind.
	MonthlyRent float64

	// Upfront expenses
	DownPayment      float64
	ClosingCost      float64
	ImmediateRepairs float64
	FurnishingCost   float64
	UpfrontCost      float64

	// Ongoing expenses
	MonthlyMortgage    float64
	MonthlyUtilities   float64
	MonthlyCapex       float64
	MonthlyMaintenance float64
	MonthlyTaxes       float64
	MonthlyManagement  float64
	MonthlyExpenses    float64

	MonthlyCashFlow float64
	// PaybackMonths is UpfrontCost / MonthlyCashFlow; zero when the scenario
	// never pays itself back.
	PaybackMonths float64
}

// ScenarioReport holds the computed summary over a listing's scenarios.
type ScenarioReport struct {
	Address        string
	Price          float64
	TotalScenarios int
	BestCashFlow   *Scenario
	WorstCashFlow  *Scenario
	Profitable     int
}
