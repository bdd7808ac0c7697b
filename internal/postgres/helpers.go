package postgres

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// decimalFromText parses a NUMERIC selected as text. NULL is zero.
func decimalFromText(t pgtype.Text) (decimal.Decimal, error) {
	if !t.Valid || t.String == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(t.String)
}

// nullDecimalFromText parses a nullable NUMERIC selected as text.
func nullDecimalFromText(t pgtype.Text) (decimal.NullDecimal, error) {
	if !t.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(t.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// intPtrFromPg converts a nullable integer to a pointer.
func intPtrFromPg(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}
