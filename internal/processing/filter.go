package processing

import (
	"unicode/utf8"

	"github.com/spacesedan/postsentiment/internal/models"
)

const (
	DEFAULT_MIN_LENGTH  = 10
	DEFAULT_MAX_RECORDS = 3
)

type FilterOptions struct {
	// MinLength is exclusive: a body must be strictly longer to be kept.
	MinLength int
	// MaxRecords caps the number of kept posts per listing. Zero or less
	// means no cap.
	MaxRecords int
}

func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MinLength: DEFAULT_MIN_LENGTH, MaxRecords: DEFAULT_MAX_RECORDS}
}

// FilterPosts walks the listing in order and keeps posts whose body is longer
// than MinLength characters, stopping once MaxRecords posts have been kept.
func FilterPosts(listing *models.Listing, opts FilterOptions) []models.Post {
	if listing == nil || listing.Data == nil {
		return nil
	}

	var posts []models.Post
	for _, child := range listing.Data.Children {
		if opts.MaxRecords > 0 && len(posts) >= opts.MaxRecords {
			break
		}

		post := models.ProjectPost(child.Data)
		if utf8.RuneCountInString(post.BodyText) <= opts.MinLength {
			continue
		}
		posts = append(posts, post)
	}
	return posts
}
