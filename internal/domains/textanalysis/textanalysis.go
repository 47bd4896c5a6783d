// Package textanalysis implements the text analysis domain: word and
// sentence statistics, a language hint, keyword sentiment, and frequent
// terms for plain text inputs. The lexicons cover English and Spanish.
package textanalysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/angeloszaimis/cognitive-core/internal/core"
)

// Name is the registered domain name.
const Name = "text_analysis"

// topTerms caps the frequent-term list in analysis results.
const topTerms = 5

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "happy": true,
	"positive": true, "wonderful": true, "love": true,
	"bueno": true, "excelente": true, "feliz": true, "alegre": true,
	"positivo": true, "bien": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "sad": true, "negative": true,
	"awful": true, "hate": true, "broken": true,
	"malo": true, "triste": true, "negativo": true, "mal": true,
	"horrible": true,
}

var englishStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"is": true, "are": true, "was": true, "of": true, "to": true,
	"in": true, "it": true, "that": true, "this": true, "with": true,
	"for": true, "on": true, "at": true, "be": true, "have": true,
}

var spanishStopwords = map[string]bool{
	"el": true, "la": true, "los": true, "las": true, "un": true,
	"una": true, "y": true, "o": true, "es": true, "son": true,
	"de": true, "del": true, "en": true, "que": true, "con": true,
	"para": true, "por": true, "se": true, "su": true, "al": true,
}

// Processor analyzes plain text inputs.
type Processor struct {
	logger *slog.Logger
}

// New builds the text analysis processor.
func New(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger}
}

// Name returns the registered domain name.
func (p *Processor) Name() string { return Name }

// CanHandle accepts text inputs that carry non-empty text.
func (p *Processor) CanHandle(_ context.Context, in *core.Input, _ *core.ProcessingContext) (bool, error) {
	return in.Type == core.InputText && strings.TrimSpace(in.Text) != "", nil
}

// Analyze computes word and sentence statistics, a complexity score, a
// language hint, keyword sentiment, and the most frequent terms.
func (p *Processor) Analyze(_ context.Context, in *core.Input, _ *core.ProcessingContext) (map[string]any, error) {
	text := in.Text
	words := strings.Fields(text)

	totalLen := 0
	for _, w := range words {
		totalLen += utf8.RuneCountInString(w)
	}
	avgWordLen := 0.0
	if len(words) > 0 {
		avgWordLen = float64(totalLen) / float64(len(words))
	}

	complexity := avgWordLen / 15
	if complexity > 1 {
		complexity = 1
	}

	tokens := tokenize(text)
	label, score := sentiment(tokens)

	analysis := map[string]any{
		"word_count":      len(words),
		"sentence_count":  countSentences(text),
		"character_count": utf8.RuneCountInString(text),
		"avg_word_length": avgWordLen,
		"unique_words":    countUnique(tokens),
		"complexity":      complexity,
		"language":        detectLanguage(tokens),
		"sentiment": map[string]any{
			"label": label,
			"score": score,
		},
		"top_terms": frequentTerms(tokens, topTerms),
		"patterns": map[string]any{
			"questions":    strings.Count(text, "?"),
			"exclamations": strings.Count(text, "!"),
			"has_numbers":  strings.ContainsFunc(text, unicode.IsDigit),
		},
	}

	p.logger.Debug("text analyzed",
		"input", in.ID,
		"words", len(words),
		"language", analysis["language"],
		"sentiment", label,
	)
	return analysis, nil
}

// Synthesize summarizes the analysis into a response. Confidence grows
// with coverage: each signal the analysis managed to extract adds to
// the base.
func (p *Processor) Synthesize(_ context.Context, in *core.Input, pctx *core.ProcessingContext, analysis map[string]any) (*core.Response, error) {
	wordCount, _ := analysis["word_count"].(int)
	complexity, _ := analysis["complexity"].(float64)
	language, _ := analysis["language"].(string)

	sentimentLabel := "neutral"
	if s, ok := analysis["sentiment"].(map[string]any); ok {
		if l, ok := s["label"].(string); ok {
			sentimentLabel = l
		}
	}

	var insights []string
	if wordCount > 100 {
		insights = append(insights, "long text with substantial content")
	}
	if complexity > 0.7 {
		insights = append(insights, "high linguistic complexity")
	}
	if sentimentLabel != "neutral" {
		insights = append(insights, "clear "+sentimentLabel+" tone")
	}

	confidence := 0.6
	if wordCount > 0 {
		confidence += 0.1
	}
	if language != "unknown" {
		confidence += 0.1
	}
	if sentimentLabel != "neutral" {
		confidence += 0.1
	}

	content := map[string]any{
		"message":        fmt.Sprintf("analyzed %d words", wordCount),
		"word_count":     wordCount,
		"sentence_count": analysis["sentence_count"],
		"complexity":     complexity,
		"language":       language,
		"sentiment":      analysis["sentiment"],
		"top_terms":      analysis["top_terms"],
		"insights":       insights,
	}
	return core.BuildResponse(pctx, Name, content, confidence), nil
}

// tokenize lowercases the text and splits on anything that is not a
// letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func countSentences(text string) int {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	count := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count
}

func countUnique(tokens []string) int {
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		seen[t] = true
	}
	return len(seen)
}

// detectLanguage hints at the text language by comparing stopword hits.
// Returns "unknown" when neither lexicon matches.
func detectLanguage(tokens []string) string {
	english, spanish := 0, 0
	for _, t := range tokens {
		if englishStopwords[t] {
			english++
		}
		if spanishStopwords[t] {
			spanish++
		}
	}
	switch {
	case english == 0 && spanish == 0:
		return "unknown"
	case spanish > english:
		return "spanish"
	default:
		return "english"
	}
}

// sentiment labels the text by counting lexicon hits. Score is the
// normalized balance in [-1, 1].
func sentiment(tokens []string) (string, float64) {
	pos, neg := 0, 0
	for _, t := range tokens {
		if positiveWords[t] {
			pos++
		}
		if negativeWords[t] {
			neg++
		}
	}
	if pos == 0 && neg == 0 {
		return "neutral", 0
	}

	score := float64(pos-neg) / float64(pos+neg)
	switch {
	case pos > neg:
		return "positive", score
	case neg > pos:
		return "negative", score
	}
	return "neutral", 0
}

// frequentTerms returns the most common non-stopword tokens, ties
// resolved alphabetically.
func frequentTerms(tokens []string, limit int) []string {
	counts := make(map[string]int)
	for _, t := range tokens {
		if englishStopwords[t] || spanishStopwords[t] {
			continue
		}
		counts[t]++
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] == counts[terms[j]] {
			return terms[i] < terms[j]
		}
		return counts[terms[i]] > counts[terms[j]]
	})

	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}
