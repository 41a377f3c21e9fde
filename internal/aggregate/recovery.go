package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/temporal"
)

type recoveryKey struct {
	paidAt      time.Time
	assignedAt  time.Time
	cartera     string
	vencimiento string
	service     string
	channel     string
	operator    string
	withPDP     bool
	pdpActive   bool
	onTime      bool
	score       float64
}

type recoveryAcc struct {
	fact    model.RecoveryFact
	docs    distinct[string]
	clients distinct[int64]
	days    int
	dayRows int
}

// Recovery groups attributed payments by payment date and attribution.
func Recovery(payments []model.AttributedPayment) []model.RecoveryFact {
	groups := make(map[recoveryKey]*recoveryAcc)
	for i := range payments {
		p := &payments[i]
		d := temporal.Date(p.PaidAt)
		k := recoveryKey{d, p.AssignedAt, p.Cartera, p.Vencimiento, p.Service, p.Channel, p.Operator,
			p.WithPDP, p.PDPActive, p.OnTime, p.Score}
		acc, ok := groups[k]
		if !ok {
			acc = &recoveryAcc{
				fact: model.RecoveryFact{
					PaidAt:      d,
					AssignedAt:  p.AssignedAt,
					Cartera:     p.Cartera,
					Vencimiento: p.Vencimiento,
					Service:     p.Service,
					Channel:     p.Channel,
					Operator:    p.Operator,
					WithPDP:     p.WithPDP,
					PDPActive:   p.PDPActive,
					OnTime:      p.OnTime,
					Score:       p.Score,
				},
				docs:    distinct[string]{},
				clients: distinct[int64]{},
			}
			groups[k] = acc
		}
		acc.fact.Payments++
		acc.fact.Amount = acc.fact.Amount.Add(p.Amount)
		acc.docs.add(p.Document)
		acc.clients.add(p.ClientID)
		if p.DaysToPay != nil {
			acc.days += *p.DaysToPay
			acc.dayRows++
		}
	}

	out := make([]model.RecoveryFact, 0, len(groups))
	for _, acc := range groups {
		f := acc.fact
		f.Documents = int64(len(acc.docs))
		f.Clients = int64(len(acc.clients))
		f.AvgDaysToPay = SafeDiv(float64(acc.days), float64(acc.dayRows))
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b model.RecoveryFact) int {
		return cmp.Or(
			a.PaidAt.Compare(b.PaidAt),
			a.AssignedAt.Compare(b.AssignedAt),
			strings.Compare(a.Cartera, b.Cartera),
			strings.Compare(a.Vencimiento, b.Vencimiento),
			strings.Compare(a.Service, b.Service),
			strings.Compare(a.Channel, b.Channel),
			strings.Compare(a.Operator, b.Operator),
			compareBool(a.WithPDP, b.WithPDP),
			compareBool(a.PDPActive, b.PDPActive),
			compareBool(a.OnTime, b.OnTime),
			cmp.Compare(a.Score, b.Score),
		)
	})
	return out
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
