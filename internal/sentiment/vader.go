package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// Scores are the polarity components of a text. Neg, Neu and Pos sum to ~1.
type Scores struct {
	Neg      float64
	Neu      float64
	Pos      float64
	Compound float64
}

// Scorer computes polarity scores for a text.
type Scorer interface {
	PolarityScores(text string) Scores
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(text string) Scores

func (f ScorerFunc) PolarityScores(text string) Scores { return f(text) }

// VaderScorer scores plain text with VADER after stripping markdown and links.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) PolarityScores(text string) Scores {
	s := v.analyzer.PolarityScores(ConvertMarkdownToText(text))
	scores := Scores{
		Neg:      s.Negative,
		Neu:      s.Neutral,
		Pos:      s.Positive,
		Compound: s.Compound,
	}
	// VADER reports all zeros for text without tokens.
	if scores.Neg == 0 && scores.Neu == 0 && scores.Pos == 0 {
		scores.Neu = 1
	}
	return scores
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := strings.Join(strings.Fields(stripTags(string(output))), " ")

	return RemoveLinks(plainText)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(markup string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(markup, ""))
}
