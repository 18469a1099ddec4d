// Package mirror keeps the in-memory copy of one trip aggregate: the last
// server-confirmed shape and the operator's working copy.
package mirror

import (
	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
)

// Mirror is owned by one drawer session and is not locked itself.
type Mirror struct {
	loaded      bool
	confirmed   models.Trip
	working     models.Trip
	dirtyLegs   map[string]bool
	headerDirty bool
	generation  int
}

func New() *Mirror {
	return &Mirror{dirtyLegs: map[string]bool{}}
}

// Load replaces both copies with the server's shape and clears dirty state.
func (m *Mirror) Load(t models.Trip) {
	m.confirmed = t.Clone()
	m.working = t.Clone()
	m.dirtyLegs = map[string]bool{}
	m.headerDirty = false
	m.loaded = true
	m.generation++
}

func (m *Mirror) Loaded() bool { return m.loaded }

// Generation increases on every Load.
func (m *Mirror) Generation() int { return m.generation }

func (m *Mirror) TripNo() string { return m.confirmed.Header.TripNo }

func (m *Mirror) Confirmed() models.Trip { return m.confirmed.Clone() }

func (m *Mirror) Working() models.Trip { return m.working.Clone() }

func (m *Mirror) Dirty() bool { return m.headerDirty || len(m.dirtyLegs) > 0 }

func (m *Mirror) HeaderDirty() bool { return m.headerDirty }

// DirtyLegs lists touched legs in trip order.
func (m *Mirror) DirtyLegs() []string {
	var out []string
	for _, l := range m.working.LegDetails {
		if m.dirtyLegs[l.LegSequence] {
			out = append(out, l.LegSequence)
		}
	}
	return out
}

func (m *Mirror) LegDirty(leg string) bool { return m.dirtyLegs[leg] }

// EditHeader replaces the editable header fields. TripNo is not editable.
// Server fields the header type does not declare are kept unless h
// overrides them.
func (m *Mirror) EditHeader(h models.Header) {
	h.TripNo = m.working.Header.TripNo
	extra := m.working.Header.Extra.Clone()
	for k, v := range h.Extra {
		if extra == nil {
			extra = models.Extra{}
		}
		extra[k] = v
	}
	h.Extra = extra
	m.working.Header = h
	m.headerDirty = true
	m.working.Header.ModeFlag = domain.ModeUpdate
}

// Touch marks a leg edited, propagating the flag to the header.
func (m *Mirror) Touch(leg string) error {
	i := m.working.LegIndex(leg)
	if i < 0 {
		return domain.NotFoundError{Resource: "leg " + leg}
	}
	m.dirtyLegs[leg] = true
	m.working.LegDetails[i].ModeFlag = domain.ModeUpdate
	m.working.Header.ModeFlag = domain.ModeUpdate
	return nil
}

// Leg returns a copy of the working leg.
func (m *Mirror) Leg(leg string) (models.Leg, error) {
	i := m.working.LegIndex(leg)
	if i < 0 {
		return models.Leg{}, domain.NotFoundError{Resource: "leg " + leg}
	}
	return m.working.LegDetails[i].Clone(), nil
}

// ConfirmedLeg returns a copy of the leg as last loaded, ok=false for a leg
// the server does not know.
func (m *Mirror) ConfirmedLeg(leg string) (models.Leg, bool) {
	i := m.confirmed.LegIndex(leg)
	if i < 0 {
		return models.Leg{}, false
	}
	return m.confirmed.LegDetails[i].Clone(), true
}

// PutActivity inserts or replaces the activity with a.SeqNo.
func (m *Mirror) PutActivity(leg string, a models.Activity) error {
	if a.SeqNo <= 0 {
		return domain.ValidationError{Field: "SeqNo", Msg: "must be positive"}
	}
	i := m.working.LegIndex(leg)
	if i < 0 {
		return domain.NotFoundError{Resource: "leg " + leg}
	}
	acts := m.working.LegDetails[i].Activities
	replaced := false
	for j := range acts {
		if acts[j].SeqNo == a.SeqNo {
			acts[j] = a
			replaced = true
			break
		}
	}
	if !replaced {
		m.working.LegDetails[i].Activities = append(acts, a)
	}
	return m.Touch(leg)
}

func (m *Mirror) RemoveActivity(leg string, seq int) error {
	i := m.working.LegIndex(leg)
	if i < 0 {
		return domain.NotFoundError{Resource: "leg " + leg}
	}
	acts := m.working.LegDetails[i].Activities
	for j := range acts {
		if acts[j].SeqNo == seq {
			m.working.LegDetails[i].Activities = append(acts[:j:j], acts[j+1:]...)
			return m.Touch(leg)
		}
	}
	return domain.NotFoundError{Resource: "activity"}
}

func (m *Mirror) PutAdditionalActivity(leg string, a models.AdditionalActivity) error {
	if a.Sequence <= 0 {
		return domain.ValidationError{Field: "Sequence", Msg: "must be positive"}
	}
	i := m.working.LegIndex(leg)
	if i < 0 {
		return domain.NotFoundError{Resource: "leg " + leg}
	}
	acts := m.working.LegDetails[i].AdditionalActivities
	replaced := false
	for j := range acts {
		if acts[j].Sequence == a.Sequence {
			acts[j] = a
			replaced = true
			break
		}
	}
	if !replaced {
		m.working.LegDetails[i].AdditionalActivities = append(acts, a)
	}
	return m.Touch(leg)
}

func (m *Mirror) RemoveAdditionalActivity(leg string, seq int) error {
	i := m.working.LegIndex(leg)
	if i < 0 {
		return domain.NotFoundError{Resource: "leg " + leg}
	}
	acts := m.working.LegDetails[i].AdditionalActivities
	for j := range acts {
		if acts[j].Sequence == seq {
			m.working.LegDetails[i].AdditionalActivities = append(acts[:j:j], acts[j+1:]...)
			return m.Touch(leg)
		}
	}
	return domain.NotFoundError{Resource: "additional activity"}
}

// NextActivitySeq is the sequence for a new activity on leg. It is never
// lower than length+1 and never reuses a sequence the server or the
// working copy already holds, deleted rows included.
func (m *Mirror) NextActivitySeq(leg string) (int, error) {
	w, err := m.Leg(leg)
	if err != nil {
		return 0, err
	}
	next := len(w.Activities)
	for _, a := range w.Activities {
		next = max(next, a.SeqNo)
	}
	if c, ok := m.ConfirmedLeg(leg); ok {
		for _, a := range c.Activities {
			next = max(next, a.SeqNo)
		}
	}
	return next + 1, nil
}

func (m *Mirror) NextAdditionalActivitySeq(leg string) (int, error) {
	w, err := m.Leg(leg)
	if err != nil {
		return 0, err
	}
	next := len(w.AdditionalActivities)
	for _, a := range w.AdditionalActivities {
		next = max(next, a.Sequence)
	}
	if c, ok := m.ConfirmedLeg(leg); ok {
		for _, a := range c.AdditionalActivities {
			next = max(next, a.Sequence)
		}
	}
	return next + 1, nil
}
