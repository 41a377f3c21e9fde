package dimension

import (
	"time"

	"github.com/reyer3/faco-etl/internal/temporal"
)

// Expiry buckets.
const (
	NoExpiry = "NO_EXPIRY"
	Overdue  = "OVERDUE"
	Due30D   = "DUE_30D"
	Due60D   = "DUE_60D"
	Due90D   = "DUE_90D"
	Current  = "CURRENT"
)

// BucketRule places an expiry date in Bucket when Match holds.
type BucketRule struct {
	Bucket string
	Match  func(expiry, today time.Time) bool
}

var bucketRules = []BucketRule{
	{NoExpiry, func(e, _ time.Time) bool { return !e.After(temporal.FarPast) }},
	{Overdue, func(e, today time.Time) bool { return e.Before(today) }},
	{Due30D, func(e, today time.Time) bool { return !e.After(today.AddDate(0, 0, 30)) }},
	{Due60D, func(e, today time.Time) bool { return !e.After(today.AddDate(0, 0, 60)) }},
	{Due90D, func(e, today time.Time) bool { return !e.After(today.AddDate(0, 0, 90)) }},
}

// BucketRules returns the expiry chain in evaluation order. Current is the
// default when no rule matches.
func BucketRules() []BucketRule {
	out := make([]BucketRule, len(bucketRules))
	copy(out, bucketRules)
	return out
}

// Buckets enumerates every value ExpiryBucket can return.
func Buckets() []string {
	return []string{NoExpiry, Overdue, Due30D, Due60D, Due90D, Current}
}

// ExpiryBucket discretizes an expiry date relative to today. A nil expiry
// is treated as FarPast.
func ExpiryBucket(expiry *time.Time, today time.Time) string {
	e := temporal.OrFarPast(expiry)
	t := temporal.Date(today)
	for _, rule := range bucketRules {
		if rule.Match(e, t) {
			return rule.Bucket
		}
	}
	return Current
}
