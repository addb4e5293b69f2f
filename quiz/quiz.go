package quiz

import (
	"math/rand"

	"github.com/khaledhikmat/gaze-go/gaze"
)

type Answer string

const (
	Yes Answer = "yes"
	No  Answer = "no"
)

type House string

const (
	Gryffindor House = "Gryffindor"
	Hufflepuff House = "Hufflepuff"
	Ravenclaw  House = "Ravenclaw"
	Slytherin  House = "Slytherin"
)

// Houses in tie-break order.
var Houses = []House{Gryffindor, Hufflepuff, Ravenclaw, Slytherin}

// Question is a yes/no question; each answer sends one point to a house.
type Question struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Yes  House  `json:"yes"`
	No   House  `json:"no"`
}

// DefaultBank is the sorting-hat question set. Text lines are split on "\n"
// when rendered.
var DefaultBank = []Question{
	{0, "Would you play\nQuidditch at Hogwarts?", Gryffindor, Ravenclaw},
	{1, "Would you excel in Defense\nAgainst the Dark Arts?", Gryffindor, Hufflepuff},
	{2, "Would you ever go exploring\nin the Forbidden Forest?", Gryffindor, Slytherin},
	{3, "Are you good at\nplaying Wizard's Chess?", Gryffindor, Slytherin},
	{4, "Do you prefer the books\nover the movies?", Ravenclaw, Gryffindor},
	{5, "Have you ever been laughed\nat school?", Ravenclaw, Hufflepuff},
	{6, "Is Harry actually a good wizard?", Ravenclaw, Slytherin},
	{7, "Would you want to use\na Portkey?", Hufflepuff, Ravenclaw},
	{8, "Would you ever want to work\nat the Ministry of Magic?", Hufflepuff, Gryffindor},
	{9, "Would you have a pet\nwhile at Hogwarts?", Hufflepuff, Slytherin},
	{10, "Is Moaning Myrtle annoying?", Slytherin, Ravenclaw},
	{11, "Would you ever call\nsomeone Half-blood?", Slytherin, Hufflepuff},
	{12, "Would you want to have\nthe Elder Wand?", Slytherin, Gryffindor},
}

// AnswerFor maps a gaze direction to an answer. Looking left means yes.
func AnswerFor(d gaze.Direction) (Answer, bool) {
	switch d {
	case gaze.DirectionLeft:
		return Yes, true
	case gaze.DirectionRight:
		return No, true
	default:
		return "", false
	}
}

// Quiz holds one run through a question bank. It is not safe for concurrent use.
type Quiz struct {
	bank    []Question
	pending []Question
	votes   map[int][]Answer
	scores  map[House]int
	result  House
}

// New shuffles bank with rnd and returns a fresh quiz. A nil rnd keeps the
// bank order.
func New(bank []Question, rnd *rand.Rand) *Quiz {
	pending := make([]Question, len(bank))
	copy(pending, bank)
	if rnd != nil {
		rnd.Shuffle(len(pending), func(i, j int) {
			pending[i], pending[j] = pending[j], pending[i]
		})
	}

	return &Quiz{
		bank:    bank,
		pending: pending,
		votes:   map[int][]Answer{},
	}
}

// Next pops the next question.
func (q *Quiz) Next() (Question, bool) {
	if len(q.pending) == 0 {
		return Question{}, false
	}

	next := q.pending[0]
	q.pending = q.pending[1:]
	return next, true
}

func (q *Quiz) Remaining() int {
	return len(q.pending)
}

// AddAnswer records one vote (normally one per frame) for a question.
func (q *Quiz) AddAnswer(id int, a Answer) {
	q.votes[id] = append(q.votes[id], a)
}

// Answer is the majority of the votes for a question. Ties, including a
// question with no votes at all, resolve to yes.
func (q *Quiz) Answer(id int) Answer {
	yes, no := 0, 0
	for _, a := range q.votes[id] {
		switch a {
		case Yes:
			yes++
		case No:
			no++
		}
	}

	if yes >= no {
		return Yes
	}
	return No
}

// Answers returns the resolved answer of every question in the bank.
func (q *Quiz) Answers() map[int]Answer {
	answers := make(map[int]Answer, len(q.bank))
	for _, question := range q.bank {
		answers[question.ID] = q.Answer(question.ID)
	}
	return answers
}

// Result scores every question of the bank and returns the winning house
// along with the scores. It is computed once; later votes do not change it.
func (q *Quiz) Result() (House, map[House]int) {
	if q.scores == nil {
		q.scores = map[House]int{}
		for _, h := range Houses {
			q.scores[h] = 0
		}

		for _, question := range q.bank {
			if q.Answer(question.ID) == Yes {
				q.scores[question.Yes]++
			} else {
				q.scores[question.No]++
			}
		}

		q.result = Houses[0]
		for _, h := range Houses[1:] {
			if q.scores[h] > q.scores[q.result] {
				q.result = h
			}
		}
	}

	scores := make(map[House]int, len(q.scores))
	for h, s := range q.scores {
		scores[h] = s
	}
	return q.result, scores
}
