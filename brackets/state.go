package brackets

import "github.com/Dosada05/tournament-engine/models"

// StateSlot names a phase whose computed data is kept by TournamentState.
type StateSlot string

const (
	SlotNone          StateSlot = ""
	SlotQualification StateSlot = "qualification"
	SlotGroup         StateSlot = "group"
	SlotMain          StateSlot = "main"
	SlotFinished      StateSlot = "finished"
)

// TournamentState keeps the authoritative current phase data apart from the
// history of every phase state computed so far. Superseded states are never
// cleared so prior results stay displayable.
type TournamentState struct {
	models.Notifier

	current       StateSlot
	qualification *QualificationState
	group         *GroupState
	main          *MainState
	finished      *FinishedState
	unpass        map[StateSlot]func()
}

func NewTournamentState() *TournamentState {
	return &TournamentState{unpass: make(map[StateSlot]func())}
}

// RestoreTournamentState rebuilds a state from persisted slots.
func RestoreTournamentState(current StateSlot, q *QualificationState, g *GroupState, m *MainState, f *FinishedState) (*TournamentState, error) {
	s := NewTournamentState()
	s.qualification, s.group, s.main, s.finished = q, g, m, f
	if q != nil {
		s.unpass[SlotQualification] = s.Pass(q)
	}
	if g != nil {
		s.unpass[SlotGroup] = s.Pass(g)
	}
	if m != nil {
		s.unpass[SlotMain] = s.Pass(m)
	}
	if current == SlotNone {
		current = s.latest()
	}
	if current != SlotNone && !s.has(current) {
		return nil, invalidState("current phase state %q is missing", current)
	}
	s.current = current
	return s, nil
}

func (s *TournamentState) latest() StateSlot {
	switch {
	case s.finished != nil:
		return SlotFinished
	case s.main != nil:
		return SlotMain
	case s.group != nil:
		return SlotGroup
	case s.qualification != nil:
		return SlotQualification
	}
	return SlotNone
}

func (s *TournamentState) has(slot StateSlot) bool {
	switch slot {
	case SlotQualification:
		return s.qualification != nil
	case SlotGroup:
		return s.group != nil
	case SlotMain:
		return s.main != nil
	case SlotFinished:
		return s.finished != nil
	}
	return false
}

// CurrentSlot is SlotNone before the first phase started.
func (s *TournamentState) CurrentSlot() StateSlot { return s.current }

// Current returns the data of the current slot: *QualificationState,
// *GroupState, *MainState, *FinishedState or nil.
func (s *TournamentState) Current() interface{} {
	switch s.current {
	case SlotQualification:
		return s.qualification
	case SlotGroup:
		return s.group
	case SlotMain:
		return s.main
	case SlotFinished:
		return s.finished
	}
	return nil
}

func (s *TournamentState) Qualification() *QualificationState { return s.qualification }
func (s *TournamentState) Group() *GroupState                 { return s.group }
func (s *TournamentState) Main() *MainState                   { return s.main }
func (s *TournamentState) Finished() *FinishedState           { return s.finished }

func (s *TournamentState) SetQualification(q *QualificationState) {
	s.qualification = q
	s.repass(SlotQualification, q, q != nil)
	s.advance(SlotQualification)
}

func (s *TournamentState) SetGroup(g *GroupState) {
	s.group = g
	s.repass(SlotGroup, g, g != nil)
	s.advance(SlotGroup)
}

func (s *TournamentState) SetMain(m *MainState) {
	s.main = m
	s.repass(SlotMain, m, m != nil)
	s.advance(SlotMain)
}

func (s *TournamentState) SetFinished(f *FinishedState) {
	s.finished = f
	s.advance(SlotFinished)
}

func (s *TournamentState) repass(slot StateSlot, child models.Observable, present bool) {
	if unpass, ok := s.unpass[slot]; ok {
		unpass()
		delete(s.unpass, slot)
	}
	if present {
		s.unpass[slot] = s.Pass(child)
	}
}

func (s *TournamentState) advance(slot StateSlot) {
	if s.current != slot {
		s.current = slot
		s.Notify(string(slot), "current")
		return
	}
	s.Notify(string(slot))
}
