package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/temporal"
)

type gestionKey struct {
	date        time.Time
	assignedAt  time.Time
	cartera     string
	vencimiento string
	service     string
	channel     string
	operator    string
	group       string
	level1      string
	level2      string
}

type gestionAcc struct {
	fact      model.GestionFact
	clients   distinct[int64]
	effective distinct[int64]
}

// Gestion groups resolved interactions dated within rng. clientes_unicos is
// the number of distinct clients in each bucket, so a client reached on two
// channels the same day counts once in each. FirstOfPeriod must already be
// set on the full stream.
func Gestion(rs []model.ResolvedInteraction, rng model.DateRange, cal *BusinessCalendar) []model.GestionFact {
	if cal == nil {
		cal = NewBusinessCalendar(false, nil)
	}
	groups := make(map[gestionKey]*gestionAcc)
	for i := range rs {
		r := &rs[i]
		if r.Owner == nil || !rng.Contains(r.At) {
			continue
		}
		d := temporal.Date(r.At)
		k := gestionKey{d, r.Owner.AssignedAt, r.Owner.Cartera, r.Owner.Vencimiento, r.Owner.Service,
			string(r.Channel), r.Operator, r.Group, r.Level1, r.Level2}
		acc, ok := groups[k]
		if !ok {
			acc = &gestionAcc{
				fact: model.GestionFact{
					Date:        d,
					AssignedAt:  r.Owner.AssignedAt,
					Cartera:     r.Owner.Cartera,
					Vencimiento: r.Owner.Vencimiento,
					Service:     r.Owner.Service,
					Channel:     string(r.Channel),
					Operator:    r.Operator,
					Group:       r.Group,
					Level1:      r.Level1,
					Level2:      r.Level2,
					BusinessDay: cal.BusinessDayOfMonth(d),
				},
				clients:   distinct[int64]{},
				effective: distinct[int64]{},
			}
			if prev, ok := cal.SameBusinessDayPrevMonth(d); ok {
				acc.fact.ComparisonDate = &prev
			}
			groups[k] = acc
		}
		f := &acc.fact
		f.Interactions++
		acc.clients.add(r.ClientID)
		if r.Effective {
			f.EffectiveContacts++
			acc.effective.add(r.ClientID)
		}
		if r.Commitment {
			f.Commitments++
			f.CommittedAmount = f.CommittedAmount.Add(r.PromisedAmount)
		}
		if r.FirstOfPeriod {
			f.NewClients++
		}
	}

	out := make([]model.GestionFact, 0, len(groups))
	for _, acc := range groups {
		f := acc.fact
		f.UniqueClients = int64(len(acc.clients))
		f.EffectiveClients = int64(len(acc.effective))
		f.EffectiveRate = SafeDiv(float64(f.EffectiveContacts), float64(f.Interactions))
		f.CommitmentRate = SafeDiv(float64(f.Commitments), float64(f.Interactions))
		f.AvgCommitment = SafeDiv(f.CommittedAmount.InexactFloat64(), float64(f.Commitments))
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b model.GestionFact) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			a.AssignedAt.Compare(b.AssignedAt),
			strings.Compare(a.Cartera, b.Cartera),
			strings.Compare(a.Vencimiento, b.Vencimiento),
			strings.Compare(a.Service, b.Service),
			strings.Compare(a.Channel, b.Channel),
			strings.Compare(a.Operator, b.Operator),
			strings.Compare(a.Group, b.Group),
			strings.Compare(a.Level1, b.Level1),
			strings.Compare(a.Level2, b.Level2),
		)
	})
	return out
}
