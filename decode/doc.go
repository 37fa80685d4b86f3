// Package decode turns API response bodies into typed values.
//
// Decoding is tolerant where the API evolves and strict where callers depend
// on data: unknown fields are ignored, absent or null optional fields keep
// their zero value, while a field tagged `decode:"required"` that is missing
// or null, or any value of the wrong JSON kind, fails with a
// SchemaMismatchError naming the entity and field path.
//
//	type Score struct {
//		ID        int64 `json:"id" decode:"required"`
//		BeatmapID int64 `json:"beatmap_id"`
//	}
package decode
