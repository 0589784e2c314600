package quiz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/money"
)

func catalog() []Product {
	return []Product{
		{ID: "1", Title: "Lavender Dream", Intensity: "light", Price: 2500, Tags: []string{"Lavender", "Evening"}},
		{ID: "2", Title: "Citrus Burst", Intensity: "strong", Price: 4500, Tags: []string{"citrus"}},
		{ID: "3", Title: "Night Calm", Intensity: "light", Price: 2800, Family: "Calm Woods"},
		{ID: "4", Title: "Rose Garden", Intensity: "moderate", Price: 7000, Tags: []string{"rose"}},
		{ID: "5", Title: "Sandalwood", Intensity: "light", Price: 3000, Family: "sandalwood"},
		{ID: "6", Title: "Chamomile Tea", Intensity: "light", Price: 1200, Tags: []string{"chamomile"}},
		{ID: "7", Title: "Sleep Well", Intensity: "light", Price: 900, Tags: []string{"sleep"}},
		{ID: "8", Title: "Lavender Mist", Intensity: "light", Price: 1900, Tags: []string{"lavender"}},
	}
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestScoreFiltersAndCaps(t *testing.T) {
	s := DefaultScorer()
	got := s.Score(catalog(), Answers{Ambiance: "relaxing", Intensity: "light", Budget: "under-30"})
	// budget bounds are inclusive, keywords match tags and family case-insensitively
	assert.Equal(t, []string{"1", "3", "5", "6", "7"}, ids(got))

	got = s.Score(catalog(), Answers{Ambiance: "romantic", Intensity: "moderate", Budget: "over-60"})
	assert.Equal(t, []string{"4"}, ids(got))
}

func TestScoreFallsBackToCatalog(t *testing.T) {
	s := DefaultScorer()
	got := s.Score(catalog(), Answers{Ambiance: "energizing", Intensity: "light", Budget: "over-60"})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(got))

	got = s.Score(catalog()[:2], Answers{Ambiance: "cozy", Intensity: "strong", Budget: "nope"})
	assert.Len(t, got, 2)
	assert.Empty(t, s.Score(nil, Answers{}))
}

func TestSessionOrder(t *testing.T) {
	session := NewSession(DefaultScorer())
	assert.Equal(t, QuestionAmbiance, session.Current())
	assert.ErrorIs(t, session.Answer(QuestionBudget, "30-60"), ErrOutOfOrder)
	assert.ErrorIs(t, session.Answer(QuestionAmbiance, "spooky"), ErrUnknownChoice)

	require.NoError(t, session.Answer(QuestionAmbiance, "cozy"))
	require.NoError(t, session.Answer(QuestionIntensity, "strong"))
	assert.Nil(t, session.Results(catalog()))
	require.NoError(t, session.Answer(QuestionBudget, "30-60"))
	assert.True(t, session.Done())
	assert.ErrorIs(t, session.Answer(QuestionBudget, "30-60"), ErrFinished)
	assert.NotEmpty(t, session.Results(catalog()))

	session.Back()
	assert.Equal(t, QuestionBudget, session.Current())
	session.Reset()
	assert.Equal(t, Answers{}, session.Answers())
}

const quizPage = `<html><body>
<div data-quiz>
  <script type="application/json" data-quiz-products>
    [{"id":"1","title":"Lavender Dream","intensity":"light","price":2500,"tags":["lavender"]},
     {"id":"2","title":"Citrus Burst","intensity":"strong","price":4500,"tags":["citrus"]}]
  </script>
  <span data-quiz-progress></span>
  <div data-quiz-step="ambiance"><button data-quiz-choice="relaxing">Relax</button></div>
  <div data-quiz-step="intensity" hidden><button data-quiz-choice="light">Light</button></div>
  <div data-quiz-step="budget" hidden><button data-quiz-choice="under-30">Under 30</button></div>
  <button data-quiz-back hidden>Back</button>
  <div data-quiz-result hidden>
    <div data-quiz-results></div>
    <button data-quiz-restart>Again</button>
  </div>
</div>
</body></html>`

func TestControllerWalksSteps(t *testing.T) {
	doc, err := dom.ParseString(quizPage)
	require.NoError(t, err)
	c := NewController(doc, DefaultScorer(), money.Formatter{}, nil)
	require.NotNil(t, c)
	require.Len(t, c.Catalog(), 2)
	del := dom.NewDelegator(doc)
	c.Bind(del)
	ctx := context.Background()

	for _, choice := range []string{"relaxing", "light", "under-30"} {
		del.Dispatch(ctx, dom.Event{Type: dom.Click, Target: doc.Query(`[data-quiz-choice="` + choice + `"]`)})
	}
	assert.True(t, c.Session().Done())
	assert.False(t, dom.IsHidden(doc.Query("[data-quiz-result]")))
	assert.Equal(t, 1, c.ResultCount())
	assert.Equal(t, "1", dom.Attr(doc.Query("[data-quiz-product]"), "data-product-id"))
	assert.True(t, dom.IsHidden(doc.Query(`[data-quiz-step="budget"]`)))

	del.Dispatch(ctx, dom.Event{Type: dom.Click, Target: doc.Query("[data-quiz-restart]")})
	assert.Equal(t, QuestionAmbiance, c.Session().Current())
	assert.Zero(t, c.ResultCount())
	assert.False(t, dom.IsHidden(doc.Query(`[data-quiz-step="ambiance"]`)))
	assert.Equal(t, "1 / 3", dom.Text(doc.Query("[data-quiz-progress]")))
}
