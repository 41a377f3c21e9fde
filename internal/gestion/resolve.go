package gestion

import (
	"sort"
	"time"

	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/temporal"
	"github.com/reyer3/faco-etl/internal/universe"
)

// Resolve ties each interaction to the universe row that owned its client on
// the interaction date. Interactions outside every management window are
// dropped; the second return value counts them.
func Resolve(interactions []model.Interaction, idx *universe.Index) ([]model.ResolvedInteraction, int) {
	out := make([]model.ResolvedInteraction, 0, len(interactions))
	dropped := 0
	for _, it := range interactions {
		owner := idx.Resolve(it.ClientID, it.At)
		if owner == nil {
			dropped++
			continue
		}
		out = append(out, model.ResolvedInteraction{Interaction: it, Owner: owner})
	}
	return out, dropped
}

type dayKey struct {
	client int64
	date   time.Time
}

// MarkFirstContacts orders rs by (timestamp, Seq) and flags the first
// interaction per client and day, and per client and assignment period.
func MarkFirstContacts(rs []model.ResolvedInteraction) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].At.Equal(rs[j].At) {
			return rs[i].At.Before(rs[j].At)
		}
		return rs[i].Seq < rs[j].Seq
	})

	seenDay := make(map[dayKey]struct{}, len(rs))
	seenPeriod := make(map[dayKey]struct{}, len(rs))
	for i := range rs {
		r := &rs[i]
		dk := dayKey{r.ClientID, temporal.Date(r.At)}
		_, seen := seenDay[dk]
		r.FirstOfDay = !seen
		seenDay[dk] = struct{}{}

		pk := dayKey{r.ClientID, r.Owner.AssignedAt}
		_, seen = seenPeriod[pk]
		r.FirstOfPeriod = !seen
		seenPeriod[pk] = struct{}{}
	}
}
