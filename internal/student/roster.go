package student

import "time"

// Roster is a caller-owned snapshot of all students together with the view
// state applied to it. The lifecycle operations never read it.
type Roster struct {
	Students []Student
	Filter   Filter
}

// Visible returns the students passing the current filter.
func (r Roster) Visible() []Student { return Select(r.Students, r.Filter.Predicate()) }

// Stats summarises the whole roster regardless of the filter.
func (r Roster) Stats() Stats { return Summarize(r.Students) }

// Find returns the student with id from the snapshot.
func (r Roster) Find(id string) (Student, bool) {
	for _, s := range r.Students {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

// Cards projects the visible students.
func (r Roster) Cards(now time.Time) []Card {
	visible := r.Visible()
	cards := make([]Card, 0, len(visible))
	for _, s := range visible {
		cards = append(cards, Project(s, now))
	}
	return cards
}
