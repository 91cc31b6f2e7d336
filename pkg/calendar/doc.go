// Package calendar reads public holidays from a nager.at compatible API and
// merges them with a product's stored holiday discounts.
//
// Responses are cached through the Cache interface (RedisCache, MemoryCache
// or NoopCache) and concurrent misses for the same year and country share a
// single upstream request. Prefetcher keeps the cache warm on a cron
// schedule.
package calendar
