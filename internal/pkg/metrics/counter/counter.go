package counter

import (
	"context"
	"strconv"

	"github.com/zabora/subscription-service/internal/pkg/cache"
)

const (
	apiRequestsKey     = "api:counters:requests"
	paymentOutcomesKey = "payment:counters:outcomes"
)

// AddRequest increments the pending request counter for a route in Redis.
// The hot path never touches the database.
func AddRequest(route string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, apiRequestsKey, route, 1).Err()
}

// AddPaymentOutcome increments the counter for a resolved payment state.
func AddPaymentOutcome(state string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, paymentOutcomesKey, state, 1).Err()
}

// Snapshot reads all usage counters for reporting.
func Snapshot() (map[string]map[string]int64, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	out := make(map[string]map[string]int64, 2)
	for name, key := range map[string]string{
		"requests": apiRequestsKey,
		"payments": paymentOutcomesKey,
	} {
		data, err := rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int64, len(data))
		for field, raw := range data {
			v, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil {
				continue
			}
			counts[field] = v
		}
		out[name] = counts
	}
	return out, nil
}

// Reset drops all usage counters.
func Reset() error {
	ctx := context.Background()
	return cache.GetClient().Del(ctx, apiRequestsKey, paymentOutcomesKey).Err()
}
