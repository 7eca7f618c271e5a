package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

type SentimentLabel string

const (
	SentimentGood    SentimentLabel = "good"
	SentimentBad     SentimentLabel = "bad"
	SentimentNeutral SentimentLabel = "neutral"
)

type EnrichedPost struct {
	Post
	Neg      float64        `json:"neg_sentiment" dynamodbav:"neg_sentiment"`
	Neu      float64        `json:"neu_sentiment" dynamodbav:"neu_sentiment"`
	Pos      float64        `json:"pos_sentiment" dynamodbav:"pos_sentiment"`
	Compound float64        `json:"compound_sentiment" dynamodbav:"compound_sentiment"`
	Label    SentimentLabel `json:"overall_sentiment" dynamodbav:"overall_sentiment"`
}

// ContentID identifies a post by its dedupe key, title and body.
func (p Post) ContentID() string {
	hash := sha256.Sum256([]byte(p.Title + "\x00" + p.BodyText))
	return hex.EncodeToString(hash[:])
}

func (e EnrichedPost) Row() map[string]string {
	row := e.Post.Row()
	row[ColumnNegSentiment] = FormatScore(e.Neg)
	row[ColumnNeuSentiment] = FormatScore(e.Neu)
	row[ColumnPosSentiment] = FormatScore(e.Pos)
	row[ColumnCompoundSentiment] = FormatScore(e.Compound)
	row[ColumnOverallSentiment] = string(e.Label)
	return row
}

// EnrichedPostFromRow parses a row of an enrichment output file. Unparseable
// scores are reported as errors since the file was written by this program.
func EnrichedPostFromRow(row map[string]string) (EnrichedPost, error) {
	e := EnrichedPost{
		Post:  PostFromRow(row),
		Label: SentimentLabel(row[ColumnOverallSentiment]),
	}
	fields := []struct {
		column string
		dst    *float64
	}{
		{ColumnNegSentiment, &e.Neg},
		{ColumnNeuSentiment, &e.Neu},
		{ColumnPosSentiment, &e.Pos},
		{ColumnCompoundSentiment, &e.Compound},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(row[f.column], 64)
		if err != nil {
			return EnrichedPost{}, &SchemaError{Field: f.column, Err: err}
		}
		*f.dst = v
	}
	return e, nil
}

func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
