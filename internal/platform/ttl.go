package platform

import "time"

// Cache lifetimes, ported from the original's platforms::mod constants.
const (
	EmoteCacheMaxAge        = 8 * time.Hour
	EmoteCacheEvictInterval = 15 * time.Minute

	UserCacheMaxAge        = 15 * time.Minute
	UserCacheEvictInterval = 15 * time.Minute

	ChannelIDCacheMaxAge        = 8 * time.Hour
	ChannelIDCacheEvictInterval = 15 * time.Minute

	ChannelCatalogMaxAge = 15 * time.Minute
)
