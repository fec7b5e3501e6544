package services

import (
	"fmt"
	"strings"

	"rental-analyzer/models"
	"rental-analyzer/utils"
)

// ReportService summarizes a listing's computed scenarios for the terminal.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate builds the summary report over a listing's scenarios.
func (s *ReportService) Generate(listing *models.Listing, scenarios []*models.Scenario) *models.ScenarioReport {
	report := &models.ScenarioReport{
		Address: listing.Address,
		Price:   listing.Price,
	}
	if len(scenarios) == 0 {
		return report
	}

	report.TotalScenarios = len(scenarios)
	report.BestCashFlow = scenarios[0]
	report.WorstCashFlow = scenarios[0]

	for _, sc := range scenarios {
		if sc.MonthlyCashFlow > report.BestCashFlow.MonthlyCashFlow {
			report.BestCashFlow = sc
		}
		if sc.MonthlyCashFlow < report.WorstCashFlow.MonthlyCashFlow {
			report.WorstCashFlow = sc
		}
		if sc.MonthlyCashFlow > 0 {
			report.Profitable++
		}
	}

	return report
}

// Print renders the report.
func (s *ReportService) Print(r *models.ScenarioReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏠 INVESTMENT ANALYSIS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Property\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  %s\n", r.Address)
	fmt.Printf("  Asking price : \033[1m$%.0f\033[0m\n", r.Price)
	fmt.Println()

	fmt.Printf("\033[1;33m  Scenarios\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.TotalScenarios == 0 {
		fmt.Printf("  No scenarios computed (no rent estimates collected)\n")
	} else {
		fmt.Printf("  Computed    : \033[1m%d\033[0m (%d cash-flow positive)\n",
			r.TotalScenarios, r.Profitable)
		printScenarioLine("Best ", r.BestCashFlow)
		printScenarioLine("Worst", r.WorstCashFlow)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printScenarioLine(label string, sc *models.Scenario) {
	color := "\033[1;32m"
	if sc.MonthlyCashFlow < 0 {
		color = "\033[1;31m"
	}
	line := fmt.Sprintf("  %s (%s) : rent $%.0f/mo, expenses $%.0f/mo, cash flow %s$%.0f/mo\033[0m",
		label, sc.Kind, sc.MonthlyRent, sc.MonthlyExpenses, color, sc.MonthlyCashFlow)
	if sc.PaybackMonths > 0 {
		line += fmt.Sprintf("; payback in %.0f months", sc.PaybackMonths)
	}
	fmt.Println(line)
}
