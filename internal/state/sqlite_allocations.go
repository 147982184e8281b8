package state

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/households/pkg/core"
)

// SaveAllocations stores the allocations of a run in a single transaction,
// replacing any saved earlier for the same run.
func (s *SQLiteStore) SaveAllocations(runID string, allocations []core.Allocation) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM allocations WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear allocations: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO allocations (
			run_id, household_id, age, dependents, net_worth,
			net_worth_after_redistribution, transfer, remaining_years, phi, l_phi,
			annual_consumption, target_lifetime_consumption, marginal_utility
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare allocation insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range allocations {
		_, err := stmt.Exec(
			runID, a.ID, a.Age, a.Dependents, a.NetWorth,
			a.NetWorthAfterRedistribution, a.Transfer, a.RemainingYears, a.Phi, a.LPhi,
			a.AnnualConsumption, a.TargetLifetimeConsumption, a.MarginalUtility,
		)
		if err != nil {
			return fmt.Errorf("failed to insert allocation for household %d: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("saved allocations", slog.String("run_id", runID), slog.Int("count", len(allocations)))
	return nil
}

// GetAllocations retrieves the allocations of a run ordered by household ID.
func (s *SQLiteStore) GetAllocations(runID string) ([]core.Allocation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT household_id, age, dependents, net_worth,
			net_worth_after_redistribution, transfer, remaining_years, phi, l_phi,
			annual_consumption, target_lifetime_consumption, marginal_utility
		 FROM allocations WHERE run_id = ? ORDER BY household_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var allocations []core.Allocation
	for rows.Next() {
		var a core.Allocation
		err := rows.Scan(
			&a.ID, &a.Age, &a.Dependents, &a.NetWorth,
			&a.NetWorthAfterRedistribution, &a.Transfer, &a.RemainingYears, &a.Phi, &a.LPhi,
			&a.AnnualConsumption, &a.TargetLifetimeConsumption, &a.MarginalUtility,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}
