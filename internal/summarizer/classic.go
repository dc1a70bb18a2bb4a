package summarizer

import (
	"regexp"
	"sort"
	"strings"
)

// Target sets the size of a classic summary. Words wins over Percentage;
// when both are zero each algorithm uses its own default share.
type Target struct {
	Words      int
	Percentage int
}

// scoreSentences scores each sentence by the mean corpus frequency of its
// content words. The first three sentences get a 20% boost.
func scoreSentences(sentences []string, freq map[string]int) []float64 {
	scores := make([]float64, len(sentences))
	for i, s := range sentences {
		words := ContentWords(s)
		if len(words) == 0 {
			continue
		}
		sum := 0
		for _, w := range words {
			sum += freq[w]
		}
		scores[i] = float64(sum) / float64(len(words))
		if i < 3 {
			scores[i] *= 1.2
		}
	}
	return scores
}

// rank returns sentence indexes ordered by score, highest first. Equal
// scores keep document order.
func rank(text string, sentences []string) []int {
	freq := make(map[string]int)
	for _, w := range ContentWords(text) {
		freq[w]++
	}
	scores := scoreSentences(sentences, freq)

	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// Extractive selects the highest scoring sentences until the word target is
// met and returns them in their original order.
func Extractive(text string, t Target) string {
	text = Preprocess(text)
	sentences := SplitSentences(text)
	if len(sentences) <= 1 {
		return text
	}

	total := WordCount(text)
	var target int
	switch {
	case t.Words > 0:
		target = t.Words
	case t.Percentage > 0:
		target = max(10, total*t.Percentage/100)
	default:
		target = max(10, total*40/100)
	}

	picked := selectSentences(rank(text, sentences), sentences, target, 0.9)
	return strings.Join(picked, " ")
}

// Abstractive works like Extractive but compresses each candidate sentence
// first, and aims above the requested share since compression shortens the
// result further.
func Abstractive(text string, t Target) string {
	text = Preprocess(text)
	sentences := SplitSentences(text)
	if len(sentences) <= 1 {
		return text
	}

	total := WordCount(text)
	var target int
	switch {
	case t.Words > 0:
		target = t.Words
	case t.Percentage > 0:
		target = max(10, int(float64(total)*float64(t.Percentage)/100*1.2))
	default:
		target = max(10, total/2)
	}

	compressed := make([]string, len(sentences))
	for i, s := range sentences {
		compressed[i] = Compress(s)
	}

	picked := selectSentences(rank(text, sentences), compressed, target, 0.85)
	return strings.Join(picked, " ")
}

// selectSentences greedily takes ranked sentences while they fit in target,
// always taking the first, and stops once stopAt×target words are reached.
// The chosen sentences are returned in document order.
func selectSentences(order []int, sentences []string, target int, stopAt float64) []string {
	var chosen []int
	count := 0
	for _, idx := range order {
		n := WordCount(sentences[idx])
		if count+n > target && len(chosen) > 0 {
			continue
		}
		chosen = append(chosen, idx)
		count += n
		if float64(count) >= float64(target)*stopAt {
			break
		}
	}

	sort.Ints(chosen)
	out := make([]string, 0, len(chosen))
	for _, idx := range chosen {
		if sentences[idx] != "" {
			out = append(out, sentences[idx])
		}
	}
	return out
}

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	fillerPhrases = regexp.MustCompile(`(?i)\b(?:as a matter of fact|it is worth noting that|it should be noted that|without a doubt|that is to say|in other words|frankly speaking|to be precise|to be honest|needless to say|as we know|of course|in fact|actually|basically|obviously|clearly|undoubtedly)\b`)
	spaceRun      = regexp.MustCompile(`\s+`)
	spaceBeforeP  = regexp.MustCompile(`\s+([.,!?;:])`)
)

// Compress drops bracketed asides and filler phrases from a sentence.
func Compress(sentence string) string {
	sentence = parenthetical.ReplaceAllString(sentence, "")
	sentence = fillerPhrases.ReplaceAllString(sentence, "")
	sentence = strings.TrimSpace(spaceRun.ReplaceAllString(sentence, " "))
	return spaceBeforeP.ReplaceAllString(sentence, "$1")
}
