// Package quiz recommends products from three answers: ambiance,
// intensity and budget.
package quiz

import (
	"errors"
	"math"
	"slices"
	"strings"
)

const (
	QuestionAmbiance  = "ambiance"
	QuestionIntensity = "intensity"
	QuestionBudget    = "budget"

	DefaultLimit = 5
)

var (
	ErrOutOfOrder    = errors.New("question answered out of order")
	ErrUnknownChoice = errors.New("unknown choice")
	ErrFinished      = errors.New("quiz already finished")
)

type Product struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Handle    string   `json:"handle"`
	URL       string   `json:"url"`
	Image     string   `json:"image"`
	Price     int      `json:"price"`
	Intensity string   `json:"intensity"`
	Family    string   `json:"family"`
	Tags      []string `json:"tags"`
}

// Band is an inclusive price range in minor units.
type Band struct {
	Min int
	Max int
}

func (b Band) Contains(price int) bool {
	return price >= b.Min && price <= b.Max
}

type Answers struct {
	Ambiance  string
	Intensity string
	Budget    string
}

// Scorer holds the answer tables.
type Scorer struct {
	Ambiances   map[string][]string
	Intensities []string
	Budgets     map[string]Band
	Limit       int
}

func DefaultScorer() *Scorer {
	return &Scorer{
		Ambiances: map[string][]string{
			"relaxing":   {"lavender", "chamomile", "calm", "sleep", "sandalwood"},
			"energizing": {"citrus", "lemon", "mint", "grapefruit", "bergamot"},
			"romantic":   {"rose", "jasmine", "vanilla", "ylang", "musk"},
			"fresh":      {"ocean", "green", "eucalyptus", "cucumber", "fresh"},
			"cozy":       {"amber", "wood", "cedar", "cinnamon", "tobacco"},
		},
		Intensities: []string{"light", "moderate", "strong"},
		Budgets: map[string]Band{
			"under-30": {Min: 0, Max: 3000},
			"30-60":    {Min: 3000, Max: 6000},
			"over-60":  {Min: 6000, Max: math.MaxInt},
		},
		Limit: DefaultLimit,
	}
}

func (s *Scorer) limit() int {
	if s.Limit <= 0 {
		return DefaultLimit
	}
	return s.Limit
}

func (s *Scorer) matchesAmbiance(p Product, keywords []string) bool {
	haystack := make([]string, 0, len(p.Tags)+1)
	for _, tag := range p.Tags {
		haystack = append(haystack, strings.ToLower(tag))
	}
	haystack = append(haystack, strings.ToLower(p.Family))
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if slices.ContainsFunc(haystack, func(h string) bool { return strings.Contains(h, kw) }) {
			return true
		}
	}
	return false
}

// Score narrows the catalog by exact intensity, budget band and at least
// one ambiance keyword. When nothing is left the first products of the
// catalog are returned instead, so the result is never empty for a
// non-empty catalog.
func (s *Scorer) Score(catalog []Product, a Answers) []Product {
	band, hasBand := s.Budgets[a.Budget]
	keywords := s.Ambiances[a.Ambiance]
	matches := make([]Product, 0)
	for _, p := range catalog {
		if p.Intensity != a.Intensity {
			continue
		}
		if !hasBand || !band.Contains(p.Price) {
			continue
		}
		if !s.matchesAmbiance(p, keywords) {
			continue
		}
		matches = append(matches, p)
	}
	if len(matches) == 0 {
		matches = catalog
	}
	return slices.Clone(matches[:min(len(matches), s.limit())])
}

// Choices lists the valid values for a question in display order.
func (s *Scorer) Choices(question string) []string {
	switch question {
	case QuestionAmbiance:
		return sortedKeys(s.Ambiances)
	case QuestionIntensity:
		return slices.Clone(s.Intensities)
	case QuestionBudget:
		return sortedKeys(s.Budgets)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var order = []string{QuestionAmbiance, QuestionIntensity, QuestionBudget}

// Questions returns the question ids in the order they are asked.
func Questions() []string {
	return slices.Clone(order)
}

// Session walks the questions in order.
type Session struct {
	scorer  *Scorer
	step    int
	answers Answers
}

func NewSession(s *Scorer) *Session {
	return &Session{scorer: s}
}

// Current is the question to answer next, "" once finished.
func (s *Session) Current() string {
	if s.step >= len(order) {
		return ""
	}
	return order[s.step]
}

func (s *Session) Done() bool {
	return s.step >= len(order)
}

func (s *Session) Answers() Answers {
	return s.answers
}

// Answer records value for question, which must be the current one.
func (s *Session) Answer(question, value string) error {
	if s.Done() {
		return ErrFinished
	}
	if question != s.Current() {
		return ErrOutOfOrder
	}
	if !slices.Contains(s.scorer.Choices(question), value) {
		return ErrUnknownChoice
	}
	switch question {
	case QuestionAmbiance:
		s.answers.Ambiance = value
	case QuestionIntensity:
		s.answers.Intensity = value
	case QuestionBudget:
		s.answers.Budget = value
	}
	s.step++
	return nil
}

// Back returns to the previous question.
func (s *Session) Back() {
	if s.step > 0 {
		s.step--
	}
}

func (s *Session) Reset() {
	s.step = 0
	s.answers = Answers{}
}

// Results scores the catalog; nil until every question is answered.
func (s *Session) Results(catalog []Product) []Product {
	if !s.Done() {
		return nil
	}
	return s.scorer.Score(catalog, s.answers)
}
