package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"rental-analyzer/models"
)

// PostgresWriter persists rent estimates and computed scenarios to
// PostgreSQL so runs accumulate into a reviewable dataset.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS rent_estimates (
			id         SERIAL PRIMARY KEY,
			address    TEXT          NOT NULL,
			kind       VARCHAR(32)   NOT NULL,
			beds       NUMERIC(4,1)  NOT NULL,
			baths      NUMERIC(4,1)  NOT NULL,
			monthly_rent NUMERIC(10,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (address, kind, beds, baths)
		);

		CREATE TABLE IF NOT EXISTS scenarios (
			id                SERIAL PRIMARY KEY,
			address           TEXT          NOT NULL,
			kind              VARCHAR(32)   NOT NULL,
			monthly_rent      NUMERIC(10,2) NOT NULL,
			upfront_cost      NUMERIC(12,2) NOT NULL,
			monthly_expenses  NUMERIC(10,2) NOT NULL,
			monthly_cash_flow NUMERIC(10,2) NOT NULL,
			payback_months    NUMERIC(10,1) NOT NULL DEFAULT 0,
			created_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (address, kind)
		);

		CREATE INDEX IF NOT EXISTS idx_rent_estimates_address ON rent_estimates(address);
		CREATE INDEX IF NOT EXISTS idx_scenarios_address      ON scenarios(address);
		CREATE INDEX IF NOT EXISTS idx_scenarios_cash_flow    ON scenarios(monthly_cash_flow);
	`)
	return err
}

// WriteEstimates upserts every unit estimate of a finalized collection.
func (pw *PostgresWriter) WriteEstimates(col *models.EstimateCollection) error {
	if col.Empty() {
		return nil
	}

	valueStrings := make([]string, 0, col.Size())
	valueArgs := make([]interface{}, 0, col.Size()*5)

	i := 0
	for _, kind := range models.AllEstimateKinds {
		for _, ue := range col.Kind(kind) {
			base := i * 5
			valueStrings = append(valueStrings,
				fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
			valueArgs = append(valueArgs,
				col.Address, string(kind), ue.Unit.Beds, ue.Unit.Baths, ue.MonthlyRent)
			i++
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO rent_estimates (address, kind, beds, baths, monthly_rent)
		VALUES %s
		ON CONFLICT (address, kind, beds, baths)
		DO UPDATE SET monthly_rent = EXCLUDED.monthly_rent, created_at = NOW()
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: write estimates: %w", err)
	}
	return nil
}

// WriteScenarios upserts the computed scenarios for a listing.
func (pw *PostgresWriter) WriteScenarios(scenarios []*models.Scenario) error {
	if len(scenarios) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(scenarios))
	valueArgs := make([]interface{}, 0, len(scenarios)*7)

	for idx, s := range scenarios {
		base := idx * 7
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			s.Address, string(s.Kind), s.MonthlyRent, s.UpfrontCost,
			s.MonthlyExpenses, s.MonthlyCashFlow, s.PaybackMonths)
	}

	query := fmt.Sprintf(`
		INSERT INTO scenarios (address, kind, monthly_rent, upfront_cost, monthly_expenses, monthly_cash_flow, payback_months)
		VALUES %s
		ON CONFLICT (address, kind) DO UPDATE SET
			monthly_rent      = EXCLUDED.monthly_rent,
			upfront_cost      = EXCLUDED.upfront_cost,
			monthly_expenses  = EXCLUDED.monthly_expenses,
			monthly_cash_flow = EXCLUDED.monthly_cash_flow,
			payback_months    = EXCLUDED.payback_months,
			created_at        = NOW()
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: write scenarios: %w", err)
	}
	return nil
}

// FetchEstimates retrieves every stored estimate for an address, grouped the
// same way the estimator returns them.
func (pw *PostgresWriter) FetchEstimates(address string) (*models.EstimateCollection, error) {
	rows, err := pw.db.Query(`
		SELECT kind, beds, baths, monthly_rent
		FROM rent_estimates
		WHERE address = $1
		ORDER BY id
	`, address)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch estimates: %w", err)
	}
	defer rows.Close()

	col := models.NewEstimateCollection(address)
	for rows.Next() {
		var kind string
		var ue models.UnitEstimate
		if err := rows.Scan(&kind, &ue.Unit.Beds, &ue.Unit.Baths, &ue.MonthlyRent); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		col.Add(models.EstimateKind(kind), ue)
	}
	return col, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
