// File: utils/constants.go
package utils

import "time"

// IdemCachePrefix is the prefix used for Redis idempotency cache keys.
const IdemCachePrefix = "idem:"

// PrefsCachePrefix is the prefix used for cached provider preferences.
const PrefsCachePrefix = "prefs:"

// PrefsCacheTTL is the time-to-live for provider preference cache entries.
const PrefsCacheTTL = 10 * time.Minute

// CancelCodePrefix is the prefix used for cancellation verification codes.
const CancelCodePrefix = "cancel:"
