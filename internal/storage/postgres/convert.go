package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	crerrors "github.com/cockroachdb/errors"
)

// Money columns travel as text so NUMERIC precision survives the round trip.

func decimalArg(d decimal.Decimal) string {
	return d.String()
}

func nullDecimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, crerrors.Wrapf(err, "parse numeric %q", s)
	}
	return d, nil
}

func parseNullDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := parseDecimal(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func stringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func typedPtr[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}

type rowScanner interface {
	Scan(dest ...any) error
}

// collect drains rows through scan, closing them afterwards.
func collect[T any](rows pgx.Rows, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	var result []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
