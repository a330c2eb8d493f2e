// internal/selector/selector.go
package selector

import (
	"fmt"
	"sync"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store"
)

// DefaultScore is the score a fresh or freshly reset form carries.
const DefaultScore = 3

type FieldState int

const (
	StateEmpty FieldState = iota
	StateLoading
	StatePopulated
)

type Field int

const (
	FieldClass Field = iota
	FieldGroup
	FieldRater
	FieldRatee
	FieldScore
	FieldComment
)

// Selector drives the cascading rating form: class, group, rater and ratee
// narrow each other top-down, score and comment are independent. Changing
// an upstream selection clears everything below it before any refetch.
//
// Option fetches are tagged with a generation captured at dispatch. A
// completion whose generation no longer matches the field's current one is
// a response to a superseded selection and is discarded, so a slow fetch
// can never populate a list the user has already navigated away from.
type Selector struct {
	mu    sync.Mutex
	store store.RatingStore

	classes      []models.Class
	groups       []models.Group
	participants []models.Participant

	classState       FieldState
	groupState       FieldState
	participantState FieldState

	classGen       uint64
	groupGen       uint64
	participantGen uint64

	classID string
	groupID string
	raterID string
	rateeID string
	score   int
	comment string

	submitting bool
}

func New(s store.RatingStore) *Selector {
	return &Selector{
		store: s,
		score: DefaultScore,
	}
}

// LoadClasses populates the root option list.
func (s *Selector) LoadClasses() error {
	gen := s.BeginLoadClasses()
	classes, err := s.store.ListClasses()
	return s.CompleteClassFetch(gen, classes, err)
}

// BeginLoadClasses marks the class list loading and returns the generation
// the eventual completion must present.
func (s *Selector) BeginLoadClasses() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classGen++
	s.classState = StateLoading
	return s.classGen
}

func (s *Selector) CompleteClassFetch(gen uint64, classes []models.Class, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.classGen {
		// stale response, a newer load superseded this one
		return nil
	}

	if err != nil {
		s.classes = nil
		s.classState = StateEmpty
		return &models.FetchError{Kind: "classes", Err: err}
	}

	s.classes = classes
	s.classState = stateForLen(len(classes))
	return nil
}

// SelectClass clears group, rater and ratee along with their option lists,
// then fetches the groups of the new class. An empty selection skips the
// fetch and leaves the group list empty.
func (s *Selector) SelectClass(classID string) error {
	gen, fetch := s.BeginSelectClass(classID)
	if !fetch {
		return nil
	}

	groups, err := s.store.ListGroups(classID)
	return s.CompleteGroupFetch(gen, groups, err)
}

// BeginSelectClass applies the selection change and its downstream resets
// without fetching. Callers running the fetch themselves must hand the
// returned generation to CompleteGroupFetch; a false second value means the
// selection is empty and no fetch is due.
func (s *Selector) BeginSelectClass(classID string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classID = classID
	s.groupID = ""
	s.raterID = ""
	s.rateeID = ""
	s.groups = nil
	s.participants = nil
	s.groupState = StateEmpty
	s.participantState = StateEmpty

	// invalidate anything in flight for the downstream fields
	s.groupGen++
	s.participantGen++

	if classID == "" {
		return 0, false
	}

	s.groupState = StateLoading
	return s.groupGen, true
}

// CompleteGroupFetch applies a group option fetch. Stale generations are
// silently discarded.
func (s *Selector) CompleteGroupFetch(gen uint64, groups []models.Group, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.groupGen {
		return nil
	}

	if err != nil {
		s.groups = nil
		s.groupState = StateEmpty
		return &models.FetchError{Kind: "groups", Err: err}
	}

	s.groups = groups
	s.groupState = stateForLen(len(groups))
	return nil
}

// SelectGroup clears rater and ratee and the participant option list, then
// fetches the participants of the new group.
func (s *Selector) SelectGroup(groupID string) error {
	gen, fetch := s.BeginSelectGroup(groupID)
	if !fetch {
		return nil
	}

	participants, err := s.store.ListParticipants(groupID)
	return s.CompleteParticipantFetch(gen, participants, err)
}

func (s *Selector) BeginSelectGroup(groupID string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groupID = groupID
	s.raterID = ""
	s.rateeID = ""
	s.participants = nil
	s.participantState = StateEmpty
	s.participantGen++

	if groupID == "" {
		return 0, false
	}

	s.participantState = StateLoading
	return s.participantGen, true
}

func (s *Selector) CompleteParticipantFetch(gen uint64, participants []models.Participant, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.participantGen {
		return nil
	}

	if err != nil {
		s.participants = nil
		s.participantState = StateEmpty
		return &models.FetchError{Kind: "participants", Err: err}
	}

	s.participants = participants
	s.participantState = stateForLen(len(participants))
	return nil
}

// SelectRater needs no refetch; the ratee options are recomputed from the
// already fetched participant list minus the rater. A ratee selection equal
// to the new rater is cleared.
func (s *Selector) SelectRater(raterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raterID = raterID
	if s.rateeID == raterID {
		s.rateeID = ""
	}
}

func (s *Selector) SelectRatee(rateeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rateeID != "" && rateeID == s.raterID {
		return &models.ValidationError{Field: "ratee", Reason: "must differ from rater"}
	}

	s.rateeID = rateeID
	return nil
}

func (s *Selector) SetScore(score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score = score
}

func (s *Selector) SetComment(comment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comment = comment
}

func (s *Selector) ClassOptions() []models.Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classes
}

func (s *Selector) GroupOptions() []models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups
}

// RateeOptions is the participant list minus the selected rater: nobody
// rates themself.
func (s *Selector) RateeOptions() []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	options := make([]models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if p.NRP == s.raterID {
			continue
		}
		options = append(options, p)
	}
	return options
}

func (s *Selector) RaterOptions() []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants
}

// FieldEnabled reports whether a field accepts input. Dependent fields need
// their upstream selection; every selection locks while a fetch or a
// submission is in flight.
func (s *Selector) FieldEnabled(f Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return false
	}

	fetching := s.classState == StateLoading ||
		s.groupState == StateLoading ||
		s.participantState == StateLoading

	switch f {
	case FieldClass:
		return !fetching
	case FieldGroup:
		return !fetching && s.classID != ""
	case FieldRater:
		return !fetching && s.groupID != ""
	case FieldRatee:
		return !fetching && s.raterID != ""
	case FieldScore, FieldComment:
		return true
	default:
		return false
	}
}

func (s *Selector) State(f Field) FieldState {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch f {
	case FieldClass:
		return s.classState
	case FieldGroup:
		return s.groupState
	case FieldRater, FieldRatee:
		return s.participantState
	default:
		return StateEmpty
	}
}

// Snapshot assembles the current form state for the submission writer.
func (s *Selector) Snapshot() models.RatingInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Selector) snapshotLocked() models.RatingInput {
	return models.RatingInput{
		ClassID: s.classID,
		GroupID: s.groupID,
		RaterID: s.raterID,
		RateeID: s.rateeID,
		Score:   s.score,
		Comment: s.comment,
	}
}

// BeginSubmit freezes the form and hands out the state to submit. Callers
// report the outcome through EndSubmit; a successful outcome resets the
// form to its defaults, a failed one leaves it intact for another try.
func (s *Selector) BeginSubmit() (models.RatingInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return models.RatingInput{}, fmt.Errorf("submission already in flight")
	}

	s.submitting = true
	return s.snapshotLocked(), nil
}

func (s *Selector) EndSubmit(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if success {
		s.resetLocked()
	}
}

// Reset returns the form to its initial defaults. The class option list
// survives, everything dependent is dropped.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Selector) resetLocked() {
	s.classID = ""
	s.groupID = ""
	s.raterID = ""
	s.rateeID = ""
	s.score = DefaultScore
	s.comment = ""
	s.groups = nil
	s.participants = nil
	s.groupState = StateEmpty
	s.participantState = StateEmpty
	s.groupGen++
	s.participantGen++
}

func stateForLen(n int) FieldState {
	if n == 0 {
		return StateEmpty
	}
	return StatePopulated
}
