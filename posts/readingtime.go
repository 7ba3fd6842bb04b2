package posts

import (
	"math"
	"regexp"
)

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

var nonWord = regexp.MustCompile(`[^\w]`)

// countTokens splits on every non-word character. Adjacent separators yield
// empty tokens, and those are counted too.
func countTokens(s string) int {
	return len(nonWord.Split(s, -1))
}

// ReadingTime estimates whole minutes to read content: tokens in every
// heading and body fragment, divided by WordsPerMinute and rounded. Short
// posts may report 0. A null heading contributes nothing, while an empty
// one splits into a single empty token.
func ReadingTime(content []ContentBlock) int {
	total := 0
	for _, block := range content {
		if block.HasHeading || block.Heading != "" {
			total += countTokens(block.Heading)
		}
		for _, frag := range block.Body {
			total += countTokens(frag.Text)
		}
	}
	return int(math.Round(float64(total) / WordsPerMinute))
}
