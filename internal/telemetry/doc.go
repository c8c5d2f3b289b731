// Package telemetry records device event logs and answers usage queries.
//
// Logs are append-only. Store.Append and Store.FetchRecent, as well as
// Aggregator.AggregateUsage, resolve the device through a device.Guard
// before touching storage, so foreign devices surface as
// device.ErrNotFoundOrUnauthorized.
//
// # Usage windows
//
// ParseRange turns "24h" or "7d" into a window start. Unrecognised
// expressions produce a zero-width window (start equals now), which sums
// to 0 rather than failing:
//
//	agg := telemetry.NewAggregator(repo, registry)
//	usage, err := agg.AggregateUsage(ctx, ownerID, deviceID, "7d")
package telemetry
