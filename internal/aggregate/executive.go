package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/reyer3/faco-etl/internal/model"
)

type executiveKey struct {
	assignedAt  time.Time
	cartera     string
	vencimiento string
	service     string
}

// Executive full-outer-joins the three persisted fact tables on assignment
// date, cartera, expiry bucket and service, and derives the KPI ratios.
// Rows with no volume in any source are dropped.
func Executive(u []model.UniverseFact, g []model.GestionFact, r []model.RecoveryFact) []model.ExecutiveFact {
	groups := make(map[executiveKey]*model.ExecutiveFact)
	get := func(k executiveKey) *model.ExecutiveFact {
		f, ok := groups[k]
		if !ok {
			f = &model.ExecutiveFact{
				AssignedAt:  k.assignedAt,
				Cartera:     k.cartera,
				Vencimiento: k.vencimiento,
				Service:     k.service,
			}
			groups[k] = f
		}
		return f
	}

	for _, x := range u {
		f := get(executiveKey{x.AssignedAt, x.Cartera, x.Vencimiento, x.Service})
		f.UniverseClients += x.Clients
		f.Exigible = f.Exigible.Add(x.Exigible)
		f.Target = f.Target.Add(x.Target)
	}
	for _, x := range g {
		f := get(executiveKey{x.AssignedAt, x.Cartera, x.Vencimiento, x.Service})
		f.Interactions += x.Interactions
		f.EffectiveContacts += x.EffectiveContacts
		f.Commitments += x.Commitments
		f.CommittedAmount = f.CommittedAmount.Add(x.CommittedAmount)
		f.ContactedClients += x.NewClients
	}
	for _, x := range r {
		f := get(executiveKey{x.AssignedAt, x.Cartera, x.Vencimiento, x.Service})
		f.Payments += x.Payments
		f.Recovered = f.Recovered.Add(x.Amount)
	}

	out := make([]model.ExecutiveFact, 0, len(groups))
	for _, f := range groups {
		if empty(f) {
			continue
		}
		f.EffectiveRate = SafeDiv(float64(f.EffectiveContacts), float64(f.Interactions))
		f.CommitmentRate = SafeDiv(float64(f.Commitments), float64(f.Interactions))
		f.AvgCommitment = SafeDiv(f.CommittedAmount.InexactFloat64(), float64(f.Commitments))
		f.Contactability = SafeDiv(float64(f.ContactedClients), float64(f.UniverseClients))
		f.RecoveryRate = SafeDivDec(f.Recovered, f.Exigible)
		f.Attainment = SafeDivPtr(f.RecoveryRate, SafeDivDec(f.Target, f.Exigible))
		out = append(out, *f)
	}
	slices.SortFunc(out, func(a, b model.ExecutiveFact) int {
		return cmp.Or(
			a.AssignedAt.Compare(b.AssignedAt),
			strings.Compare(a.Cartera, b.Cartera),
			strings.Compare(a.Vencimiento, b.Vencimiento),
			strings.Compare(a.Service, b.Service),
		)
	})
	return out
}

func empty(f *model.ExecutiveFact) bool {
	return f.UniverseClients == 0 && f.Interactions == 0 && f.Payments == 0 &&
		f.Exigible.IsZero() && f.Recovered.IsZero() && f.CommittedAmount.IsZero()
}
