package models

import (
	"strconv"
)

const MissingField = "N/A"

const (
	ColumnTitle        = "title"
	ColumnCommentCount = "comment_count"
	ColumnSourceName   = "source_name"
	ColumnBodyText     = "body_text"

	ColumnNegSentiment      = "neg_sentiment"
	ColumnNeuSentiment      = "neu_sentiment"
	ColumnPosSentiment      = "pos_sentiment"
	ColumnCompoundSentiment = "compound_sentiment"
	ColumnOverallSentiment  = "overall_sentiment"
)

// PostColumns is the fixed header of a raw collection file.
var PostColumns = []string{ColumnTitle, ColumnCommentCount, ColumnSourceName, ColumnBodyText}

// SentimentColumns are appended to the source header by the enrichment pass.
var SentimentColumns = []string{
	ColumnNegSentiment,
	ColumnNeuSentiment,
	ColumnPosSentiment,
	ColumnCompoundSentiment,
	ColumnOverallSentiment,
}

// EnrichedColumns is the fixed header of an enrichment output file.
var EnrichedColumns = append(append([]string{}, PostColumns...), SentimentColumns...)

type Post struct {
	Title        string `json:"title" dynamodbav:"title"`
	CommentCount int    `json:"comment_count" dynamodbav:"comment_count"`
	SourceName   string `json:"source_name" dynamodbav:"source_name"`
	BodyText     string `json:"body_text" dynamodbav:"body_text"`
}

// ProjectPost is the only place upstream fields are defaulted.
func ProjectPost(p ListingPost) Post {
	post := Post{
		Title:      MissingField,
		SourceName: MissingField,
	}
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Subreddit != nil {
		post.SourceName = *p.Subreddit
	}
	if p.NumComments != nil {
		post.CommentCount = *p.NumComments
	}
	if p.Selftext != nil {
		post.BodyText = *p.Selftext
	}
	return post
}

func (p Post) Row() map[string]string {
	return map[string]string{
		ColumnTitle:        p.Title,
		ColumnCommentCount: strconv.Itoa(p.CommentCount),
		ColumnSourceName:   p.SourceName,
		ColumnBodyText:     p.BodyText,
	}
}

// PostFromRow rebuilds a Post from a CSV row, applying the same defaults as
// ProjectPost for absent columns.
func PostFromRow(row map[string]string) Post {
	post := Post{
		Title:      valueOr(row, ColumnTitle, MissingField),
		SourceName: valueOr(row, ColumnSourceName, MissingField),
		BodyText:   row[ColumnBodyText],
	}
	if n, err := strconv.Atoi(row[ColumnCommentCount]); err == nil {
		post.CommentCount = n
	}
	return post
}

func valueOr(row map[string]string, key, fallback string) string {
	if v, ok := row[key]; ok {
		return v
	}
	return fallback
}
