package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pleko-script/CardCrafter/internal/domain"
)

func TestCreateCardDefaults(t *testing.T) {
	s := newTestStore(t)
	deck, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)

	card, err := s.CreateCard(domain.CreateCardInput{
		DeckID: deck.ID,
		Front:  "  What is ATP?  ",
		Back:   " Adenosine triphosphate ",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CardBasic, card.Type)
	assert.Equal(t, "What is ATP?", card.Front)
	assert.Equal(t, "Adenosine triphosphate", card.Back)
	assert.Equal(t, []string{}, card.Tags)
	assert.Equal(t, t0, card.CreatedAt)
}

func TestCreateCardWritesScheduling(t *testing.T) {
	s := newTestStore(t)
	deck, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)
	card, err := s.CreateCard(domain.CreateCardInput{DeckID: deck.ID, Front: "f", Back: "b"})
	require.NoError(t, err)

	sched, err := s.GetScheduling(card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, sched.CardID)
	assert.Equal(t, 0, sched.N)
	assert.Equal(t, 0, sched.IntervalDays)
	assert.InDelta(t, 2.5, sched.EF, 1e-9)
	assert.Equal(t, t0, sched.DueAt)
	assert.Nil(t, sched.LastReviewedAt)
}

func TestCreateCardUnknownDeck(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateCard(domain.CreateCardInput{DeckID: "missing", Front: "f", Back: "b"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCardsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	deck, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)

	for i, front := range []string{"first", "second", "third"} {
		setClock(s, t0.Add(time.Duration(i)*time.Minute))
		_, err := s.CreateCard(domain.CreateCardInput{DeckID: deck.ID, Front: front, Back: "b"})
		require.NoError(t, err)
	}

	cards, err := s.ListCards(deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, "third", cards[0].Front)
	assert.Equal(t, "first", cards[2].Front)
}

func TestListCardsScopedToDeck(t *testing.T) {
	s := newTestStore(t)
	a, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)
	b, err := s.CreateDeck(domain.CreateDeckInput{Name: "B"})
	require.NoError(t, err)
	_, err = s.CreateCard(domain.CreateCardInput{DeckID: a.ID, Front: "f", Back: "b"})
	require.NoError(t, err)

	cards, err := s.ListCards(b.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestGetCardUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetCard("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateCard(t *testing.T) {
	s := newTestStore(t)
	deck, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)
	card, err := s.CreateCard(domain.CreateCardInput{
		DeckID: deck.ID, Front: "f", Back: "b", Tags: []string{"old"},
	})
	require.NoError(t, err)

	setClock(s, t0.Add(time.Hour))
	updated, err := s.UpdateCard(card.ID, " new front ", "new back", []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "new front", updated.Front)
	assert.Equal(t, []string{"x", "y"}, updated.Tags)
	assert.Equal(t, t0.Add(time.Hour), updated.UpdatedAt)

	got, err := s.GetCard(card.ID)
	require.NoError(t, err)
	assert.Equal(t, "new front", got.Front)
	assert.Equal(t, "new back", got.Back)
	assert.Equal(t, t0, got.CreatedAt)
}

func TestUpdateCardNilTagsKeepsExisting(t *testing.T) {
	s := newTestStore(t)
	deck, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)
	card, err := s.CreateCard(domain.CreateCardInput{
		DeckID: deck.ID, Front: "f", Back: "b", Tags: []string{"keep"},
	})
	require.NoError(t, err)

	updated, err := s.UpdateCard(card.ID, "f2", "b2", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, updated.Tags)
}

func TestDeleteCardRemovesSchedulingAndLogs(t *testing.T) {
	s := newTestStore(t)
	deck, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)
	card, err := s.CreateCard(domain.CreateCardInput{DeckID: deck.ID, Front: "f", Back: "b"})
	require.NoError(t, err)
	_, err = s.ReviewCard(card.ID, domain.Good, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteCard(card.ID))

	_, err = s.GetCard(card.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetScheduling(card.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	logs, err := s.ListReviewLogs(card.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCorruptTagsDegradeToEmpty(t *testing.T) {
	s := newTestStore(t)
	deck, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)
	card, err := s.CreateCard(domain.CreateCardInput{
		DeckID: deck.ID, Front: "f", Back: "b", Tags: []string{"good"},
	})
	require.NoError(t, err)

	_, err = s.conn.Exec(`UPDATE cards SET tags_json = ? WHERE id = ?`, "{not json", card.ID)
	require.NoError(t, err)

	got, err := s.GetCard(card.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Tags)
}
