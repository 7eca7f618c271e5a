package models

// Listing is the envelope Reddit returns for both the top-posts and the
// search endpoints: {data: {children: [{data: {...}}]}}.
type Listing struct {
	Data *ListingData `json:"data"`
}

type ListingData struct {
	After    string         `json:"after"`
	Children []ListingChild `json:"children"`
}

type ListingChild struct {
	Data ListingPost `json:"data"`
}

// ListingPost holds the upstream fields a Post is projected from. Pointers
// distinguish an absent field from an empty one.
type ListingPost struct {
	Title       *string `json:"title"`
	Selftext    *string `json:"selftext"`
	Subreddit   *string `json:"subreddit"`
	NumComments *int    `json:"num_comments"`
	ID          string  `json:"id"`
}
