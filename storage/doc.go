// Package storage provides a small string-keyed cache used as the host
// runtime's local storage.
//
// Two stores are available:
//
//   - Memory: process-local, optional per-key TTL
//   - Redis: shared between processes, backed by go-redis
//
// Writes are last-write-wins per key; no cross-key consistency is offered.
//
// Example:
//
//	store := storage.NewMemory()
//	_ = storage.SetJSON(ctx, store, "settings", settings, time.Hour)
//
//	var cached Settings
//	err := storage.GetJSON(ctx, store, "settings", &cached)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // cache miss
//	}
package storage
