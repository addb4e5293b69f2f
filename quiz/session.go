package quiz

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/model"
)

type Mode int

const (
	ModeBeginning Mode = iota
	ModeReading
	ModeAnswering
	ModeAwaiting
	ModeCompleted
)

func (m Mode) String() string {
	switch m {
	case ModeReading:
		return "reading"
	case ModeAnswering:
		return "answering"
	case ModeAwaiting:
		return "awaiting"
	case ModeCompleted:
		return "completed"
	default:
		return "beginning"
	}
}

// Session drives a quiz from key presses, elapsed time and gaze directions.
// Timers are deadlines checked by Tick, so the whole session runs on the
// caller's loop.
type Session struct {
	id          string
	bank        []Question
	rnd         *rand.Rand
	readFor     time.Duration
	answerFor   time.Duration
	mode        Mode
	quiz        *Quiz
	current     Question
	deadline    time.Time
	startedAt   time.Time
	completedAt time.Time
}

func NewSession(bank []Question, readFor, answerFor time.Duration, rnd *rand.Rand) *Session {
	return &Session{
		bank:      bank,
		rnd:       rnd,
		readFor:   readFor,
		answerFor: answerFor,
		mode:      ModeBeginning,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mode() Mode {
	return s.mode
}

// Current is the question being read, answered or confirmed.
func (s *Session) Current() Question {
	return s.current
}

func (s *Session) Quiz() *Quiz {
	return s.quiz
}

// Start begins a new quiz, discarding any quiz in progress.
func (s *Session) Start(now time.Time) {
	s.id = uuid.NewString()
	s.quiz = New(s.bank, s.rnd)
	s.startedAt = now
	s.completedAt = time.Time{}
	s.ask(now)
}

// Next moves on from a confirmed answer. It only acts while awaiting and
// reports whether the quiz just completed.
func (s *Session) Next(now time.Time) bool {
	if s.mode != ModeAwaiting {
		return false
	}
	return s.ask(now)
}

func (s *Session) ask(now time.Time) bool {
	question, ok := s.quiz.Next()
	if !ok {
		s.mode = ModeCompleted
		s.completedAt = now
		return true
	}

	s.current = question
	s.mode = ModeReading
	s.deadline = now.Add(s.readFor)
	return false
}

// Tick advances the reading and answering timers.
func (s *Session) Tick(now time.Time) {
	if now.Before(s.deadline) {
		return
	}

	switch s.mode {
	case ModeReading:
		s.mode = ModeAnswering
		s.deadline = now.Add(s.answerFor)
	case ModeAnswering:
		s.mode = ModeAwaiting
	}
}

// Observe records the frame's direction as a vote while answering.
func (s *Session) Observe(d gaze.Direction) bool {
	if s.mode != ModeAnswering {
		return false
	}

	answer, ok := AnswerFor(d)
	if !ok {
		return false
	}

	s.quiz.AddAnswer(s.current.ID, answer)
	return true
}

// Record summarizes a completed session.
func (s *Session) Record() (model.SessionRecord, bool) {
	if s.mode != ModeCompleted {
		return model.SessionRecord{}, false
	}

	house, scores := s.quiz.Result()
	rec := model.SessionRecord{
		ID:          s.id,
		StartedAt:   s.startedAt.Unix(),
		CompletedAt: s.completedAt.Unix(),
		Answers:     map[int]string{},
		Scores:      map[string]int{},
		House:       string(house),
	}
	for id, a := range s.quiz.Answers() {
		rec.Answers[id] = string(a)
	}
	for h, score := range scores {
		rec.Scores[string(h)] = score
	}

	return rec, true
}
