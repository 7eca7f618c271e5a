package clients

import "time"

const (
	REDDIT_AUTH_URL      = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL       = "https://oauth.reddit.com"
	USER_AGENT           = "postsentiment-bot/0.1"
	SEARCH_PAGE_SIZE     = 100
	SEARCH_SORT          = "new"
	DEFAULT_HTTP_TIMEOUT = 30 * time.Second
)
