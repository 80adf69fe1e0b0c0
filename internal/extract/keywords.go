package extract

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeywordExtractor produces the ranked keyword list for a document.
type KeywordExtractor interface {
	Keywords(doc *Document) []string
}

// FrequencyKeywords ranks words by frequency after stopword and length filtering.
// Words in the title, meta description, and first h1 count three times.
type FrequencyKeywords struct {
	MinLength int
	TopN      int
	Stopwords map[string]bool
}

const emphasisWeight = 3

// NewFrequencyKeywords returns an extractor with the built-in English stopword list.
func NewFrequencyKeywords(minLength, topN int) *FrequencyKeywords {
	if minLength <= 0 {
		minLength = 4
	}
	if topN <= 0 {
		topN = 20
	}
	return &FrequencyKeywords{MinLength: minLength, TopN: topN, Stopwords: englishStopwords}
}

// Keywords implements KeywordExtractor.
func (f *FrequencyKeywords) Keywords(doc *Document) []string {
	lower := cases.Lower(language.Und)
	counts := map[string]int{}
	add := func(s string, weight int) {
		for _, w := range strings.FieldsFunc(lower.String(s), splitWord) {
			w = strings.Trim(w, "'-")
			if len([]rune(w)) < f.MinLength || f.Stopwords[w] || isNumeric(w) {
				continue
			}
			counts[w] += weight
		}
	}
	add(doc.Text(), 1)
	title, _ := htmlTitle(doc)
	desc, _ := doc.Meta("description")
	h1, _ := firstText("h1")(doc)
	add(strings.Join([]string{title, desc, h1}, " "), emphasisWeight)

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > f.TopN {
		words = words[:f.TopN]
	}
	return words
}

func splitWord(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
}

func isNumeric(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

var englishStopwords = func() map[string]bool {
	words := strings.Fields(`
a about above after again against all also am an and any are aren't as at be because been
before being below between both but by can can't cannot could couldn't did didn't do does
doesn't doing don't down during each every few for from further get gets got had hadn't has
hasn't have haven't having he her here here's hers herself him himself his how how's i i'm
if in into is isn't it it's its itself just let's like made make many may me more most much
must mustn't my myself need new no nor not now of off on once only or other ought our ours
ourselves out over own per same she should shouldn't since so some such than that that's the
their theirs them themselves then there there's these they they'll they're they've this those
through to too under until up upon us use used using very via want was wasn't way we we'll
we're we've well were weren't what what's when where which while who whom why will with
within without won't would wouldn't you you'll you're you've your yours yourself yourselves
across already always another anything back best even ever first here just know last less
look more next only over really right see still take than that them there these thing things
think those time today together under very want what when where which while who whose
click read learn view home menu page pages site website cookie cookies privacy policy terms
copyright rights reserved skip content main toggle navigation search close open
`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
