package cli

var (
	RunWithWriter       = run
	FeedLinks           = feedLinks
	ParsePlatformFilter = parsePlatformFilter
	GetIndexConfig      = getIndexConfig
)
