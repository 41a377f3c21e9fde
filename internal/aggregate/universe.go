package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reyer3/faco-etl/internal/model"
)

type universeKey struct {
	assignedAt      time.Time
	cartera         string
	vencimiento     string
	service         string
	segment         string
	zone            string
	fraccionamiento string
	objRecupero     float64
}

type universeAcc struct {
	fact     model.UniverseFact
	accounts distinct[string]
	clients  distinct[int64]
	target   decimal.Decimal
}

// Universe groups universe rows assigned within rng.
func Universe(rows []model.UniverseRow, rng model.DateRange) []model.UniverseFact {
	groups := make(map[universeKey]*universeAcc)
	for i := range rows {
		r := &rows[i]
		if !rng.Contains(r.AssignedAt) {
			continue
		}
		k := universeKey{r.AssignedAt, r.Cartera, r.Vencimiento, r.Service, r.Segment, r.Zone, r.Fraccionamiento, r.ObjRecupero}
		acc, ok := groups[k]
		if !ok {
			acc = &universeAcc{
				fact: model.UniverseFact{
					AssignedAt:      r.AssignedAt,
					Cartera:         r.Cartera,
					Vencimiento:     r.Vencimiento,
					Service:         r.Service,
					Segment:         r.Segment,
					Zone:            r.Zone,
					Fraccionamiento: r.Fraccionamiento,
					ObjRecupero:     r.ObjRecupero,
				},
				accounts: distinct[string]{},
				clients:  distinct[int64]{},
			}
			groups[k] = acc
		}
		acc.accounts.add(r.AccountID)
		acc.clients.add(r.ClientID)
		acc.fact.Exigible = acc.fact.Exigible.Add(r.Exigible)
		acc.target = acc.target.Add(r.Exigible.Mul(decimal.NewFromFloat(r.ObjRecupero)))
		acc.fact.ManagementDays = max(acc.fact.ManagementDays, r.ManagementDays)
	}

	out := make([]model.UniverseFact, 0, len(groups))
	for _, acc := range groups {
		f := acc.fact
		f.Accounts = int64(len(acc.accounts))
		f.Clients = int64(len(acc.clients))
		f.Target = acc.target.Round(2)
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b model.UniverseFact) int {
		return cmp.Or(
			a.AssignedAt.Compare(b.AssignedAt),
			strings.Compare(a.Cartera, b.Cartera),
			strings.Compare(a.Vencimiento, b.Vencimiento),
			strings.Compare(a.Service, b.Service),
			strings.Compare(a.Segment, b.Segment),
			strings.Compare(a.Zone, b.Zone),
			strings.Compare(a.Fraccionamiento, b.Fraccionamiento),
			cmp.Compare(a.ObjRecupero, b.ObjRecupero),
		)
	})
	return out
}
