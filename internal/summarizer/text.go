package summarizer

import (
	"regexp"
	"strings"
	"unicode"
)

var disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:'-]`)

// Preprocess strips characters other than word characters and sentence
// punctuation, then collapses whitespace.
func Preprocess(text string) string {
	text = disallowedChars.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// WordCount returns the number of whitespace separated tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

var abbreviations = map[string]bool{
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "prof.": true,
	"st.": true, "jr.": true, "sr.": true, "vs.": true, "etc.": true,
	"e.g.": true, "i.e.": true, "inc.": true, "ltd.": true, "co.": true,
	"no.": true, "fig.": true, "approx.": true,
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '}', '’', '”':
		return true
	}
	return false
}

// SplitSentences breaks text into sentences at '.', '!' or '?' (plus any
// closing quotes or brackets) followed by whitespace. A period ending a
// known abbreviation or a single initial does not end a sentence.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && (isTerminator(runes[end]) || isCloser(runes[end])) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end - 1
			continue
		}
		if runes[i] == '.' && end == i+1 && endsWithAbbreviation(runes[start:i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
		start = end
		i = end - 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// endsWithAbbreviation reports whether the last word of seg, which ends in
// a period, is an abbreviation or an initial like "J.".
func endsWithAbbreviation(seg []rune) bool {
	j := len(seg) - 1
	for j > 0 && !unicode.IsSpace(seg[j-1]) {
		j--
	}
	word := strings.ToLower(strings.TrimLeft(string(seg[j:]), "\"'([{"))
	if abbreviations[word] {
		return true
	}
	w := []rune(word)
	return len(w) == 2 && unicode.IsLetter(w[0])
}

// ContentWords returns the lower-cased alphanumeric tokens of text that are
// longer than two characters and not English stopwords.
func ContentWords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := tokens[:0]
	for _, tok := range tokens {
		if len([]rune(tok)) > 2 && !stopwords[tok] {
			words = append(words, tok)
		}
	}
	return words
}

var stopwords = toSet(
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
	"you're", "you've", "you'll", "you'd", "your", "yours", "yourself",
	"yourselves", "he", "him", "his", "himself", "she", "she's", "her", "hers",
	"herself", "it", "it's", "its", "itself", "they", "them", "their", "theirs",
	"themselves", "what", "which", "who", "whom", "this", "that", "that'll",
	"these", "those", "am", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "having", "do", "does", "did", "doing", "a", "an",
	"the", "and", "but", "if", "or", "because", "as", "until", "while", "of",
	"at", "by", "for", "with", "about", "against", "between", "into",
	"through", "during", "before", "after", "above", "below", "to", "from",
	"up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how",
	"all", "any", "both", "each", "few", "more", "most", "other", "some",
	"such", "no", "nor", "not", "only", "own", "same", "so", "than", "too",
	"very", "s", "t", "can", "will", "just", "don", "don't", "should",
	"should've", "now", "d", "ll", "m", "o", "re", "ve", "y", "ain", "aren",
	"aren't", "couldn", "couldn't", "didn", "didn't", "doesn", "doesn't",
	"hadn", "hadn't", "hasn", "hasn't", "haven", "haven't", "isn", "isn't",
	"ma", "mightn", "mightn't", "mustn", "mustn't", "needn", "needn't", "shan",
	"shan't", "shouldn", "shouldn't", "wasn", "wasn't", "weren", "weren't",
	"won", "won't", "wouldn", "wouldn't",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
