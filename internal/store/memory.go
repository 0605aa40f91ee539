package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"checkin/internal/student"
)

// Memory is a mutex-guarded student store for dev and tests.
type Memory struct {
	mu       sync.Mutex
	students map[string]student.Student
	byQR     map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		students: make(map[string]student.Student),
		byQR:     make(map[string]string),
	}
}

func (m *Memory) Create(_ context.Context, s student.Student) (student.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byQR[s.QRCode]; taken {
		return student.Student{}, student.ErrDuplicateQRCode
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s = clone(s)
	m.students[s.ID] = s
	m.byQR[s.QRCode] = s.ID
	return clone(s), nil
}

func (m *Memory) Get(_ context.Context, id string) (student.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return student.Student{}, student.ErrRecordNotFound
	}
	return clone(s), nil
}

func (m *Memory) FindByQRCode(_ context.Context, qrCode string) (student.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byQR[qrCode]
	if !ok {
		return student.Student{}, student.ErrRecordNotFound
	}
	return clone(m.students[id]), nil
}

// List returns students oldest first.
func (m *Memory) List(_ context.Context) ([]student.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]student.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, clone(s))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Update(_ context.Context, id string, p student.Patch) (student.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return student.Student{}, student.ErrRecordNotFound
	}
	if !p.Satisfied(s) {
		return student.Student{}, staleRecord(s, p)
	}
	s = clone(p.ApplyTo(s))
	m.students[id] = s
	return clone(s), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return student.ErrRecordNotFound
	}
	delete(m.byQR, s.QRCode)
	delete(m.students, id)
	return nil
}

func clone(s student.Student) student.Student {
	s.FeeHistory = append([]student.FeeEntry{}, s.FeeHistory...)
	if s.CheckIn != nil {
		c := *s.CheckIn
		s.CheckIn = &c
	}
	if s.CheckOut != nil {
		c := *s.CheckOut
		s.CheckOut = &c
	}
	if s.FeePaidAt != nil {
		t := *s.FeePaidAt
		s.FeePaidAt = &t
	}
	return s
}
