package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/households/pkg/core"
)

// BracketStats aggregates households in one age bracket.
type BracketStats struct {
	Bracket        core.Bracket `json:"bracket"`
	Count          int64        `json:"count"`
	MeanNetWorth   float64      `json:"mean_net_worth"`
	MedianNetWorth float64      `json:"median_net_worth"`
	MinNetWorth    float64      `json:"min_net_worth"`
	MaxNetWorth    float64      `json:"max_net_worth"`
	MeanDependents float64      `json:"mean_dependents"`
}

// AgeBrackets groups the loaded households by bracket and aggregates net worth
// in SQL. Brackets with no households are returned with Count 0. Households
// outside every bracket are ignored.
func (l *Loader) AgeBrackets(ctx context.Context, brackets []core.Bracket) ([]BracketStats, error) {
	if len(brackets) == 0 {
		return nil, nil
	}
	if err := core.ValidateBrackets(brackets); err != nil {
		return nil, err
	}

	var cases strings.Builder
	args := make([]any, 0, len(brackets)*3)
	for i, b := range brackets {
		fmt.Fprintf(&cases, " WHEN TRY_CAST(age AS BIGINT) BETWEEN ? AND ? THEN %d", i)
		args = append(args, b.MinAge, b.MaxAge)
	}

	query := `
		SELECT
			bracket,
			COUNT(*),
			AVG(nw),
			MEDIAN(nw),
			MIN(nw),
			MAX(nw),
			AVG(deps)
		FROM (
			SELECT
				CASE` + cases.String() + ` END AS bracket,
				TRY_CAST(net_worth AS DOUBLE) AS nw,
				TRY_CAST(dependents AS DOUBLE) AS deps
			FROM households
		)
		WHERE bracket IS NOT NULL
		GROUP BY bracket
		ORDER BY bracket
	`

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate age brackets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]BracketStats, len(brackets))
	for i, b := range brackets {
		out[i].Bracket = b
	}

	for rows.Next() {
		var idx int
		var count int64
		var mean, median, lo, hi, deps sql.NullFloat64
		if err := rows.Scan(&idx, &count, &mean, &median, &lo, &hi, &deps); err != nil {
			return nil, fmt.Errorf("failed to scan bracket: %w", err)
		}
		if idx < 0 || idx >= len(out) {
			continue
		}
		s := &out[idx]
		s.Count = count
		s.MeanNetWorth = mean.Float64
		s.MedianNetWorth = median.Float64
		s.MinNetWorth = lo.Float64
		s.MaxNetWorth = hi.Float64
		s.MeanDependents = deps.Float64
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brackets: %w", err)
	}
	return out, nil
}
