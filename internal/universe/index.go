package universe

import (
	"time"

	"github.com/reyer3/faco-etl/internal/model"
)

// Index looks up universe rows by client and by account.
type Index struct {
	byClient  map[int64][]*model.UniverseRow
	byAccount map[string][]*model.UniverseRow
}

// NewIndex indexes rows. The index points into rows, which must not be
// reallocated afterwards.
func NewIndex(rows []model.UniverseRow) *Index {
	idx := &Index{
		byClient:  make(map[int64][]*model.UniverseRow),
		byAccount: make(map[string][]*model.UniverseRow),
	}
	for i := range rows {
		r := &rows[i]
		idx.byClient[r.ClientID] = append(idx.byClient[r.ClientID], r)
		idx.byAccount[r.AccountID] = append(idx.byAccount[r.AccountID], r)
	}
	return idx
}

// Resolve returns the row that owned client on the date of at, or nil.
func (idx *Index) Resolve(client int64, at time.Time) *model.UniverseRow {
	return best(idx.byClient[client], at)
}

// ResolveAccount returns the row that owned account on the date of at, or nil.
func (idx *Index) ResolveAccount(account string, at time.Time) *model.UniverseRow {
	return best(idx.byAccount[account], at)
}

// Candidates returns every row of account whose window contains at.
func (idx *Index) Candidates(account string, at time.Time) []*model.UniverseRow {
	var out []*model.UniverseRow
	for _, r := range idx.byAccount[account] {
		if Window(r).Contains(at) {
			out = append(out, r)
		}
	}
	return out
}

// Clients returns the number of distinct clients indexed.
func (idx *Index) Clients() int { return len(idx.byClient) }

func best(rows []*model.UniverseRow, at time.Time) *model.UniverseRow {
	var top *model.UniverseRow
	for _, r := range rows {
		if !Window(r).Contains(at) {
			continue
		}
		if top == nil || Outranks(r, top) {
			top = r
		}
	}
	return top
}
