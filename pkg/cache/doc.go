// Package cache provides a generic in-memory LRU cache with per-entry expiry.
//
// It backs short-lived lookups such as public holiday calendars when no
// shared cache is configured:
//
//	c := cache.NewLRU[string, []byte](256, 24*time.Hour)
//	c.Set("holidays:2025:US", body)
//	body, ok := c.Get("holidays:2025:US")
//
// All methods are safe for concurrent use.
package cache
