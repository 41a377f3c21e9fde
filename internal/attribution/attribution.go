// Package attribution credits each payment to the assignment and the prior
// interaction considered responsible for it.
package attribution

import (
	"sort"
	"strings"

	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/temporal"
	"github.com/reyer3/faco-etl/internal/universe"
)

// Effectiveness scores, highest first.
const (
	ScoreOnPromise     = 1.0
	ScoreWithin3Days   = 0.8
	ScoreWithin7Days   = 0.6
	ScoreRecentContact = 0.4
	ScoreAnyContact    = 0.2
	ScoreNoContact     = 0.0
)

// PromiseGraceDays is how long after the promised date a payment still
// honours the promise.
const PromiseGraceDays = 7

// Scores enumerates every score Attribute can assign.
func Scores() []float64 {
	return []float64{ScoreNoContact, ScoreAnyContact, ScoreRecentContact, ScoreWithin7Days, ScoreWithin3Days, ScoreOnPromise}
}

// Stats counts what Attribute kept and dropped.
type Stats struct {
	Payments        int `json:"payments"`
	UnknownDocument int `json:"unknown_document"`
	NoAssignment    int `json:"no_assignment"`
	Attributed      int `json:"attributed"`
	WithInteraction int `json:"with_interaction"`
}

// Engine resolves payments against a built universe and interaction stream.
type Engine struct {
	idx      *universe.Index
	accounts map[string][]string
	byClient map[int64][]model.Interaction
}

// New prepares an engine. debts map document references to accounts.
func New(idx *universe.Index, debts []model.DebtSnapshot, interactions []model.Interaction) *Engine {
	e := &Engine{
		idx:      idx,
		accounts: make(map[string][]string),
		byClient: make(map[int64][]model.Interaction),
	}
	seen := make(map[[2]string]struct{})
	for _, d := range debts {
		doc, acct := strings.TrimSpace(d.Document), strings.TrimSpace(d.AccountID)
		k := [2]string{doc, acct}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		e.accounts[doc] = append(e.accounts[doc], acct)
	}
	for _, it := range interactions {
		e.byClient[it.ClientID] = append(e.byClient[it.ClientID], it)
	}
	return e
}

// Attribute resolves every payment. Payments whose document has no active
// assignment on the payment date are dropped and counted.
func (e *Engine) Attribute(payments []model.Payment) ([]model.AttributedPayment, Stats) {
	st := Stats{Payments: len(payments)}
	out := make([]model.AttributedPayment, 0, len(payments))

	for _, p := range payments {
		accts, ok := e.accounts[strings.TrimSpace(p.Document)]
		if !ok {
			st.UnknownDocument++
			continue
		}
		owner := e.assignment(accts, p)
		if owner == nil {
			st.NoAssignment++
			continue
		}
		it := e.interaction(owner, p)
		if it != nil {
			st.WithInteraction++
		}
		out = append(out, build(p, owner, it))
	}
	st.Attributed = len(out)

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.Before(out[j].PaidAt)
		}
		return out[i].Document < out[j].Document
	})
	return out, st
}

// assignment picks the rank-1 assignment among every account of the
// document whose window contains the payment date.
func (e *Engine) assignment(accts []string, p model.Payment) *model.UniverseRow {
	var top *model.UniverseRow
	for _, a := range accts {
		for _, r := range e.idx.Candidates(a, p.PaidAt) {
			if top == nil || universe.Outranks(r, top) {
				top = r
			}
		}
	}
	return top
}

// interaction picks the latest interaction of the owner's client inside its
// management window on or before the payment date. Equal timestamps prefer
// the human channel, then the earlier-loaded row.
func (e *Engine) interaction(owner *model.UniverseRow, p model.Payment) *model.Interaction {
	w := universe.Window(owner)
	paid := temporal.Date(p.PaidAt)
	var top *model.Interaction
	cands := e.byClient[owner.ClientID]
	for i := range cands {
		it := &cands[i]
		if temporal.Date(it.At).After(paid) || !w.Contains(it.At) {
			continue
		}
		if top == nil || outranks(it, top) {
			top = it
		}
	}
	return top
}

func outranks(a, b *model.Interaction) bool {
	if !a.At.Equal(b.At) {
		return a.At.After(b.At)
	}
	if a.Channel != b.Channel {
		return a.Channel == model.ChannelHuman
	}
	return a.Seq < b.Seq
}

func build(p model.Payment, owner *model.UniverseRow, it *model.Interaction) model.AttributedPayment {
	ap := model.AttributedPayment{
		Payment:     p,
		ClientID:    owner.ClientID,
		AccountID:   owner.AccountID,
		AssignedAt:  owner.AssignedAt,
		Cartera:     owner.Cartera,
		Service:     owner.Service,
		Vencimiento: owner.Vencimiento,
		Channel:     model.NoPriorManagement,
		Operator:    model.NoPriorManagement,
		Score:       ScoreNoContact,
	}
	if it == nil {
		return ap
	}

	itAt := it.At
	days := temporal.DaysBetween(it.At, p.PaidAt)
	ap.Channel = string(it.Channel)
	ap.Operator = it.Operator
	ap.InteractionAt = &itAt
	ap.DaysToPay = &days
	ap.WithPDP = it.Commitment

	f := facts{interaction: true, daysToPay: days}
	if it.Commitment && it.PromisedDate != nil && !it.PromisedDate.IsZero() {
		promised := temporal.Date(*it.PromisedDate)
		ap.PromisedDate = &promised
		late := temporal.DaysBetween(promised, p.PaidAt)
		ap.PDPActive = late >= 0 && late <= PromiseGraceDays
		ap.OnTime = late == 0
		f.promised, f.late = true, late
	}
	ap.Score = score(f)
	return ap
}

// facts are the inputs of the effectiveness waterfall.
type facts struct {
	interaction bool
	promised    bool
	late        int // days from promised date to payment
	daysToPay   int // days from interaction to payment
}

// scoreRule yields score when match holds.
type scoreRule struct {
	score float64
	match func(facts) bool
}

var scoreRules = []scoreRule{
	{ScoreOnPromise, func(f facts) bool { return f.promised && f.late == 0 }},
	{ScoreWithin3Days, func(f facts) bool { return f.promised && f.late <= 3 }},
	{ScoreWithin7Days, func(f facts) bool { return f.promised && f.late <= PromiseGraceDays }},
	{ScoreRecentContact, func(f facts) bool { return f.interaction && f.daysToPay <= 7 }},
	{ScoreAnyContact, func(f facts) bool { return f.interaction }},
}

// score applies the effectiveness waterfall; the first matching rule wins.
func score(f facts) float64 {
	for _, r := range scoreRules {
		if r.match(f) {
			return r.score
		}
	}
	return ScoreNoContact
}
