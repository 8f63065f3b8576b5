package core

import (
	"fmt"
	"sort"
)

// Dataset holds the four base tables. It is built once at startup and never
// mutated afterwards, so it can be shared across goroutines without locking.
type Dataset struct {
	transactions []Transaction
	payments     []Payment
	users        []UserSummary
	monthly      []MonthlyAggregate

	userIdx   map[int]int
	txByUser  map[int][]int
	payByUser map[int][]int
	segments  []string
}

// NewDataset indexes the tables. A user id that appears twice in the user
// summary is reported as missing data.
func NewDataset(txs []Transaction, payments []Payment, users []UserSummary, monthly []MonthlyAggregate) (*Dataset, error) {
	ds := &Dataset{
		transactions: txs,
		payments:     payments,
		users:        users,
		monthly:      monthly,
		userIdx:      make(map[int]int, len(users)),
		txByUser:     make(map[int][]int),
		payByUser:    make(map[int][]int),
	}

	seen := make(map[string]struct{})
	for i, u := range users {
		if _, dup := ds.userIdx[u.UserID]; dup {
			return nil, fmt.Errorf("%w: duplicate user id %d in user summary", ErrMissingData, u.UserID)
		}
		ds.userIdx[u.UserID] = i
		if _, ok := seen[u.Segment]; !ok {
			seen[u.Segment] = struct{}{}
			ds.segments = append(ds.segments, u.Segment)
		}
	}
	sort.Strings(ds.segments)

	for i, tx := range txs {
		ds.txByUser[tx.UserID] = append(ds.txByUser[tx.UserID], i)
	}
	for i, p := range payments {
		ds.payByUser[p.UserID] = append(ds.payByUser[p.UserID], i)
	}
	return ds, nil
}

// Transactions returns the transaction table. Callers must not modify it.
func (d *Dataset) Transactions() []Transaction { return d.transactions }

func (d *Dataset) Payments() []Payment { return d.payments }

func (d *Dataset) Users() []UserSummary { return d.users }

func (d *Dataset) Monthly() []MonthlyAggregate { return d.monthly }

// User looks up a user summary by id.
func (d *Dataset) User(id int) (UserSummary, bool) {
	i, ok := d.userIdx[id]
	if !ok {
		return UserSummary{}, false
	}
	return d.users[i], true
}

// UserTransactions returns the user's transactions in table order.
func (d *Dataset) UserTransactions(id int) []Transaction {
	idx := d.txByUser[id]
	out := make([]Transaction, 0, len(idx))
	for _, i := range idx {
		out = append(out, d.transactions[i])
	}
	return out
}

// UserPayments returns the user's payment cycles in table order.
func (d *Dataset) UserPayments(id int) []Payment {
	idx := d.payByUser[id]
	out := make([]Payment, 0, len(idx))
	for _, i := range idx {
		out = append(out, d.payments[i])
	}
	return out
}

// Segments returns the sorted segment labels found in the user summary.
func (d *Dataset) Segments() []string {
	out := make([]string, len(d.segments))
	copy(out, d.segments)
	return out
}

func (d *Dataset) HasSegment(segment string) bool {
	i := sort.SearchStrings(d.segments, segment)
	return i < len(d.segments) && d.segments[i] == segment
}
