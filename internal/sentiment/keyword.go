package sentiment

import "strings"

var (
	positiveWords = []string{
		"good", "great", "excellent", "amazing", "awesome", "fantastic", "wonderful",
		"brilliant", "perfect", "outstanding", "superb", "magnificent", "incredible",
		"spectacular", "marvelous", "love", "loved", "like", "enjoy", "enjoyed",
		"best", "better", "beautiful", "stunning", "impressive", "remarkable", "extraordinary",
	}
	negativeWords = []string{
		"bad", "terrible", "awful", "horrible", "worst", "hate", "hated", "boring",
		"disappointing", "poor", "weak", "stupid", "ridiculous", "pathetic", "waste",
		"sucks", "sucked", "disgusting", "annoying", "irritating", "frustrating",
		"mediocre", "bland", "dull", "confusing",
	}
)

// KeywordClassifier counts which listed words occur anywhere in the
// lowercased text. Matching is by substring, so "loved" also counts "love".
type KeywordClassifier struct {
	positive []string
	negative []string
}

// Keywords returns the classifier with the built-in word lists.
func Keywords() *KeywordClassifier {
	return &KeywordClassifier{positive: positiveWords, negative: negativeWords}
}

func (k *KeywordClassifier) Name() string { return "keywords" }

func (k *KeywordClassifier) Classify(text string) (Label, error) {
	return k.classify(text), nil
}

func (k *KeywordClassifier) classify(text string) Label {
	lower := strings.ToLower(text)
	pos := countPresent(lower, k.positive)
	neg := countPresent(lower, k.negative)
	switch {
	case pos > neg:
		return Positive
	case neg > pos:
		return Negative
	default:
		return Neutral
	}
}

func countPresent(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
