package repo

import (
	"context"
	"fmt"

	"github.com/burakseven/takip/internal/store"
	"github.com/burakseven/takip/internal/tablecfg"
)

// LeaveTable is the table the personnel specialization joins against for
// leave balances.
const LeaveTable = "PersonelIzin"

// Personnel specializes the Personel repository with a pre-joined read path
// so screens listing people with their remaining leave do not issue two
// round trips.
type Personnel struct {
	*Generic
}

// NewPersonnel is the Factory for the Personel table.
func NewPersonnel(st *store.Store, cfg tablecfg.Table) Repository {
	return &Personnel{Generic: NewGeneric(st, cfg)}
}

// GetAllWithLeaveBalance returns every person with an extra IzinToplam
// column holding the summed leave days from PersonelIzin. People with no
// leave rows report a total of 0.
//
// Equivalent to reading Personel and PersonelIzin separately and joining in
// memory; kept as one query deliberately.
func (r *Personnel) GetAllWithLeaveBalance(ctx context.Context) ([]store.Row, error) {
	query := fmt.Sprintf(`
		SELECT p.*, COALESCE(SUM(CAST(i."GunSayisi" AS INTEGER)), 0) AS "IzinToplam"
		FROM %q p
		LEFT JOIN %q i ON i."Sicil" = p."Sicil"
		GROUP BY p."Sicil"
		ORDER BY p."Sicil"`, r.Table().Name, LeaveTable)

	rows, err := r.Store().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read personnel with balances: %w", err)
	}
	return rows, nil
}
