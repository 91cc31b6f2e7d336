package calendar

import "time"

// Config configures the public holiday client and its prefetcher.
type Config struct {
	BaseURL          string        `env:"CALENDAR_BASE_URL" envDefault:"https://date.nager.at"`
	Timeout          time.Duration `env:"CALENDAR_TIMEOUT" envDefault:"10s"`
	CacheTTL         time.Duration `env:"CALENDAR_CACHE_TTL" envDefault:"24h"`
	CachePrefix      string        `env:"CALENDAR_CACHE_PREFIX" envDefault:"calendar:"`
	Countries        []string      `env:"CALENDAR_COUNTRIES" envSeparator:"," envDefault:"US"`
	PrefetchSchedule string        `env:"CALENDAR_PREFETCH_SCHEDULE" envDefault:"@daily"`
}

// Defaults shape the discount proposed for a holiday without a stored record.
type Defaults struct {
	StartBefore        int `env:"CALENDAR_DEFAULT_START_BEFORE" envDefault:"7"`
	EndAfter           int `env:"CALENDAR_DEFAULT_END_AFTER" envDefault:"3"`
	DiscountPercentage int `env:"CALENDAR_DEFAULT_DISCOUNT" envDefault:"40"`
}

// DefaultDefaults matches the env defaults above.
var DefaultDefaults = Defaults{StartBefore: 7, EndAfter: 3, DiscountPercentage: 40}
