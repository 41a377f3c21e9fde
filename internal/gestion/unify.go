// Package gestion merges the bot and human interaction logs into one
// homologated stream and ties each interaction to the assignment that owned
// the client at the time.
package gestion

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/textnorm"
)

// BotValidityCutoff is the first instant bot timestamps are trusted.
var BotValidityCutoff = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Effective-contact markers matched against the raw outcome.
var effectiveMarkers = []string{"CONTACTO_EFECTIVO", "CONTACTO EFECTIVO"}

// humanCommitmentToken is the affirmative commitment value in human logs.
const humanCommitmentToken = "SI"

// Lookups holds the homologation tables.
type Lookups struct {
	Bot       []model.BotTaxonomy
	Human     []model.HumanTaxonomy
	Operators []model.OperatorAlias
}

// Stats counts what Unify kept and dropped.
type Stats struct {
	BotRead        int `json:"bot_read"`
	HumanRead      int `json:"human_read"`
	BadClientID    int `json:"bad_client_id"`
	BeforeCutoff   int `json:"before_cutoff"`
	Kept           int `json:"kept"`
	BotUnmatched   int `json:"bot_unmatched"`
	HumanUnmatched int `json:"human_unmatched"`
}

type lookupMaps struct {
	bot       map[string]model.BotTaxonomy
	human     map[string]model.HumanTaxonomy
	operators map[string]string
}

func botKey(outcome, sub, commitment string) string {
	return textnorm.Fold(outcome) + "|" + textnorm.Fold(sub) + "|" + textnorm.Fold(commitment)
}

func newLookupMaps(l Lookups) lookupMaps {
	m := lookupMaps{
		bot:       make(map[string]model.BotTaxonomy, len(l.Bot)),
		human:     make(map[string]model.HumanTaxonomy, len(l.Human)),
		operators: make(map[string]string, len(l.Operators)),
	}
	// First entry wins on duplicate keys.
	for _, t := range l.Bot {
		k := botKey(t.Outcome, t.SubOutcome, t.Commitment)
		if _, ok := m.bot[k]; !ok {
			m.bot[k] = t
		}
	}
	for _, t := range l.Human {
		k := textnorm.Fold(t.Outcome)
		if _, ok := m.human[k]; !ok {
			m.human[k] = t
		}
	}
	for _, o := range l.Operators {
		k := textnorm.Fold(o.Username)
		if _, ok := m.operators[k]; !ok && !textnorm.Blank(o.Name) {
			m.operators[k] = strings.TrimSpace(o.Name)
		}
	}
	return m
}

// ParseClientID parses a document reference into a client id.
func ParseClientID(doc string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(doc), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Unify homologates both logs into one interaction stream. Bot rows come
// first, then human rows, and Seq records that order.
func Unify(bot []model.BotRecord, human []model.HumanRecord, l Lookups) ([]model.Interaction, Stats) {
	m := newLookupMaps(l)
	st := Stats{BotRead: len(bot), HumanRead: len(human)}
	out := make([]model.Interaction, 0, len(bot)+len(human))

	for _, r := range bot {
		id, ok := ParseClientID(r.Document)
		if !ok {
			st.BadClientID++
			continue
		}
		if r.At.Before(BotValidityCutoff) {
			st.BeforeCutoff++
			continue
		}
		tax, found := m.bot[botKey(r.Outcome, r.SubOutcome, r.Commitment)]
		if !found {
			st.BotUnmatched++
		}
		out = append(out, model.Interaction{
			Seq:            len(out),
			ClientID:       id,
			At:             r.At,
			Channel:        model.ChannelBot,
			Outcome:        strings.TrimSpace(r.Outcome),
			SubOutcome:     strings.TrimSpace(r.SubOutcome),
			CommitmentText: strings.TrimSpace(r.Commitment),
			Agent:          model.SystemBot,
			PromisedAmount: decimal.Zero,
			PromisedDate:   r.PromisedDate,
			Operator:       model.SystemBot,
			Group:          textnorm.Coalesce(tax.Group, r.Outcome, model.Unidentified),
			Level1:         textnorm.Coalesce(tax.Level1, r.Outcome, model.NoLevel1),
			Level2:         textnorm.Coalesce(tax.Level2, r.Outcome, model.NoLevel2),
			Commitment:     found && tax.PDP,
			Effective:      textnorm.Contains(r.Outcome, effectiveMarkers...),
		})
	}

	for _, r := range human {
		id, ok := ParseClientID(r.Document)
		if !ok {
			st.BadClientID++
			continue
		}
		tax, found := m.human[textnorm.Fold(r.Outcome)]
		if !found {
			st.HumanUnmatched++
		}
		out = append(out, model.Interaction{
			Seq:            len(out),
			ClientID:       id,
			At:             r.At,
			Channel:        model.ChannelHuman,
			Outcome:        strings.TrimSpace(r.Outcome),
			SubOutcome:     strings.TrimSpace(r.SubOutcome),
			CommitmentText: strings.TrimSpace(r.Commitment),
			Agent:          strings.TrimSpace(r.Agent),
			PromisedAmount: r.PromisedAmount,
			PromisedDate:   r.PromisedDate,
			Operator:       textnorm.Coalesce(m.operators[textnorm.Fold(r.Agent)], r.Agent, model.NoAgent),
			Group:          textnorm.Coalesce(tax.Group, r.Outcome, model.Unidentified),
			Level1:         textnorm.Coalesce(tax.Level1, r.Outcome, model.NoLevel1),
			Level2:         textnorm.Coalesce(tax.Level2, r.Outcome, model.NoLevel2),
			Commitment:     textnorm.Fold(r.Commitment) == humanCommitmentToken,
			Effective:      textnorm.Contains(r.Outcome, effectiveMarkers...),
		})
	}

	st.Kept = len(out)
	return out, st
}
