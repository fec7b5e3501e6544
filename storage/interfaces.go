package storage

import "rental-analyzer/models"

// ScenarioWriter is the interface any scenario-sheet backend must satisfy.
type ScenarioWriter interface {
	WriteScenarios(scenarios []*models.Scenario) error
	Close() error
}

// EstimateStore persists finalized rent estimate collections.
type EstimateStore interface {
	WriteEstimates(col *models.EstimateCollection) error
	Close() error
}
