package services

import (
	"math"

	"rental-analyzer/config"
	"rental-analyzer/models"
	"rental-analyzer/utils"
)

// ScenarioParams holds the assumptions a scenario is computed under. Rates
// are in percent.
type ScenarioParams struct {
	DownPaymentRate     float64
	ClosingCostRate     float64
	ImmediateRepairRate float64
	FurnishingCost      float64
	MortgageRate        float64
	MortgageYears       int
	MonthlyUtilities    float64
	CapexRate           float64
	MaintenanceRate     float64
	PropertyTaxRate     float64
	ManagementRate      float64
}

// ParamsFromConfig copies the scenario defaults out of the loaded config.
func ParamsFromConfig(cfg *config.Config) ScenarioParams {
	return ScenarioParams{
		DownPaymentRate:     cfg.DownPaymentRate,
		ClosingCostRate:     cfg.ClosingCostRate,
		ImmediateRepairRate: cfg.ImmediateRepairRate,
		FurnishingCost:      cfg.FurnishingCost,
		MortgageRate:        cfg.MortgageRate,
		MortgageYears:       cfg.MortgageYears,
		MonthlyUtilities:    cfg.MonthlyUtilities,
		CapexRate:           cfg.CapexRate,
		MaintenanceRate:     cfg.MaintenanceRate,
		PropertyTaxRate:     cfg.PropertyTaxRate,
		ManagementRate:      cfg.ManagementRate,
	}
}

// ScenarioBuilder turns a listing's rent estimates into financial scenarios.
type ScenarioBuilder struct {
	logger *utils.Logger
}

// NewScenarioBuilder creates a ScenarioBuilder with the given logger.
func NewScenarioBuilder(logger *utils.Logger) *ScenarioBuilder {
	return &ScenarioBuilder{logger: logger}
}

// Build computes one scenario per estimate kind present in the collection,
// in kind order. The scenario's income is the sum of the kind's per-unit
// rents; kinds with no collected estimates yield no scenario.
func (b *ScenarioBuilder) Build(listing *models.Listing, col *models.EstimateCollection, p ScenarioParams) []*models.Scenario {
	var scenarios []*models.Scenario

	for _, kind := range models.AllEstimateKinds {
		group := col.Kind(kind)
		if len(group) == 0 {
			b.logger.Debug("[scenarios] No %s estimates for %s; skipping", kind, listing.Address)
			continue
		}

		var rent float64
		for _, ue := range group {
			rent += ue.MonthlyRent
		}

		scenarios = append(scenarios, b.build(listing, kind, rent, p))
	}

	b.logger.Info("[scenarios] Built %d scenarios for %s", len(scenarios), listing.Address)
	return scenarios
}

func (b *ScenarioBuilder) build(listing *models.Listing, kind models.EstimateKind, rent float64, p ScenarioParams) *models.Scenario {
	s := &models.Scenario{
		Address:     listing.Address,
		Kind:        kind,
		MonthlyRent: rent,

		DownPayment:      listing.Price * p.DownPaymentRate / 100,
		ClosingCost:      listing.Price * p.ClosingCostRate / 100,
		ImmediateRepairs: listing.Price * p.ImmediateRepairRate / 100,
		FurnishingCost:   p.FurnishingCost,

		MonthlyUtilities:   p.MonthlyUtilities,
		MonthlyCapex:       listing.Price * p.CapexRate / 100 / 12,
		MonthlyMaintenance: listing.Price * p.MaintenanceRate / 100 / 12,
		MonthlyTaxes:       listing.Price * p.PropertyTaxRate / 100 / 12,
		MonthlyManagement:  rent * p.ManagementRate / 100,
	}

	s.UpfrontCost = s.DownPayment + s.ClosingCost + s.ImmediateRepairs + s.FurnishingCost
	s.MonthlyMortgage = MonthlyMortgagePayment(listing.Price, p.MortgageRate, s.DownPayment, p.MortgageYears)
	s.MonthlyExpenses = s.MonthlyMortgage + s.MonthlyUtilities + s.MonthlyCapex +
		s.MonthlyMaintenance + s.MonthlyTaxes + s.MonthlyManagement
	s.MonthlyCashFlow = s.MonthlyRent - s.MonthlyExpenses
	if s.MonthlyCashFlow > 0 {
		s.PaybackMonths = s.UpfrontCost / s.MonthlyCashFlow
	}

	return s
}

// MonthlyMortgagePayment computes the fixed monthly payment on the financed
// principal:
//
//	M = p [ r(1 + r)^n ] / [ (1 + r)^n − 1 ]
//
// where p is price minus down payment, r the monthly rate, and n the number
// of monthly payments.
func MonthlyMortgagePayment(price, yearlyRate, downPayment float64, years int) float64 {
	p := price - downPayment
	n := float64(years) * 12
	r := yearlyRate / 100 / 12
	if r == 0 {
		return p / n
	}
	pow := math.Pow(1+r, n)
	return p * (r * pow) / (pow - 1)
}
