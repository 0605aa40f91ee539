package student

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

const tokenAttempts = 5

// Service runs lifecycle operations against a store. It holds no roster
// state; every call reads the record it changes.
type Service struct {
	store  Store
	photos PhotoSink
	notify Notifier
	now    func() time.Time
	token  func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes committed changes to n.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notify = n } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithTokenSource overrides QR token generation.
func WithTokenSource(gen func() (string, error)) Option { return func(s *Service) { s.token = gen } }

// NewService creates a service backed by a store and a photo sink.
func NewService(store Store, photos PhotoSink, opts ...Option) *Service {
	s := &Service{
		store:  store,
		photos: photos,
		now:    func() time.Time { return time.Now().UTC() },
		token:  NewQRCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a single student from the admin form.
func (s *Service) Create(ctx context.Context, in NewStudent, actor string) (Student, error) {
	if in.PaidBy == "" {
		in.PaidBy = PaidAdmin
	}
	st, err := s.create(ctx, in, actor)
	if err != nil {
		return Student{}, err
	}
	s.publish(ctx, ChangeCreated, st, actor)
	return st, nil
}

func (s *Service) create(ctx context.Context, in NewStudent, actor string) (Student, error) {
	if err := in.Validate(); err != nil {
		return Student{}, err
	}
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		code, err := s.uniqueToken(ctx)
		if err != nil {
			return Student{}, err
		}
		st, err := Build(in, code, actor, s.now())
		if err != nil {
			return Student{}, err
		}
		created, err := s.store.Create(ctx, st)
		if errors.Is(err, ErrDuplicateQRCode) {
			continue
		}
		if err != nil {
			return Student{}, External(err)
		}
		return created, nil
	}
	return Student{}, fmt.Errorf("%w: no free token after %d attempts", ErrDuplicateQRCode, tokenAttempts)
}

func (s *Service) uniqueToken(ctx context.Context) (string, error) {
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		code, err := s.token()
		if err != nil {
			return "", err
		}
		_, err = s.store.FindByQRCode(ctx, code)
		if errors.Is(err, ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", External(err)
		}
	}
	return "", fmt.Errorf("%w: no free token after %d attempts", ErrDuplicateQRCode, tokenAttempts)
}

// RowError reports a skipped import row. Row is the 1-based sheet line.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// ImportResult tallies a bulk import.
type ImportResult struct {
	Total   int        `json:"total"`
	Created int        `json:"created"`
	Failed  []RowError `json:"failed"`
}

// Import creates one student per row. Invalid rows are skipped and
// reported; a store failure stops the batch and returns the tally so far
// with the error.
func (s *Service) Import(ctx context.Context, rows []SheetRow, actor string) (ImportResult, error) {
	res := ImportResult{Total: len(rows), Failed: []RowError{}}
	for _, row := range rows {
		in := FromRow(row.Cells)
		st, err := s.create(ctx, in, actor)
		if err != nil {
			if errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicateQRCode) {
				res.Failed = append(res.Failed, RowError{Row: row.Line, Message: err.Error(), Err: err})
				continue
			}
			return res, err
		}
		res.Created++
		s.publish(ctx, ChangeCreated, st, actor)
	}
	return res, nil
}

// Get returns one student.
func (s *Service) Get(ctx context.Context, id string) (Student, error) {
	if strings.TrimSpace(id) == "" {
		return Student{}, invalid("id required")
	}
	st, err := s.store.Get(ctx, id)
	return st, External(err)
}

// FindByQRCode resolves a scanned token.
func (s *Service) FindByQRCode(ctx context.Context, code string) (Student, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Student{}, invalid("qr code required")
	}
	st, err := s.store.FindByQRCode(ctx, code)
	return st, External(err)
}

// Roster loads every student into a snapshot with the given filter.
func (s *Service) Roster(ctx context.Context, f Filter) (Roster, error) {
	if err := f.Validate(); err != nil {
		return Roster{}, err
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return Roster{}, External(err)
	}
	return Roster{Students: all, Filter: f}, nil
}

// FeeUpdate is the admin fee form.
type FeeUpdate struct {
	Amount int64     `json:"feeAmount"`
	Status FeeStatus `json:"feeStatus"`
	Note   string    `json:"feeNote"`
}

// UpdateFee applies an admin fee edit.
func (s *Service) UpdateFee(ctx context.Context, id string, in FeeUpdate, actor string) (Student, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	p, err := ChangeFee(st, FeeChange{
		Amount: in.Amount,
		Status: in.Status,
		Note:   in.Note,
		Actor:  actor,
		PaidBy: PaidAdmin,
		Action: ActionUpdated,
	}, s.now())
	if err != nil {
		return Student{}, err
	}
	return s.apply(ctx, id, p, ChangeFeeUpdated, actor)
}

// CheckInRequest is what a scan station submits for check-in.
type CheckInRequest struct {
	Photo        []byte
	FeeCollected bool
	Actor        string
}

// CheckIn records arrival with photo evidence. The transition is validated
// before the photo is uploaded and again by the store on write.
func (s *Service) CheckIn(ctx context.Context, id string, req CheckInRequest) (Student, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	in := CheckInInput{At: s.now(), FeeCollected: req.FeeCollected, Actor: req.Actor}
	if _, err := CheckIn(st, in); err != nil {
		return Student{}, err
	}
	url, err := s.upload(ctx, "checkin", st.ID, in.At, req.Photo)
	if err != nil {
		return Student{}, err
	}
	in.PhotoURL = url
	p, err := CheckIn(st, in)
	if err != nil {
		return Student{}, err
	}
	return s.apply(ctx, id, p, ChangeCheckedIn, req.Actor)
}

// CheckOut records departure with photo evidence.
func (s *Service) CheckOut(ctx context.Context, id string, photo []byte, actor string) (Student, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	at := s.now()
	if _, err := CheckOut(st, at, ""); err != nil {
		return Student{}, err
	}
	url, err := s.upload(ctx, "checkout", st.ID, at, photo)
	if err != nil {
		return Student{}, err
	}
	p, err := CheckOut(st, at, url)
	if err != nil {
		return Student{}, err
	}
	return s.apply(ctx, id, p, ChangeCheckedOut, actor)
}

// DeleteCheckIn is the admin override reverting a check-in.
func (s *Service) DeleteCheckIn(ctx context.Context, id, actor string) (Student, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	p, err := DeleteCheckIn(st)
	if err != nil {
		return Student{}, err
	}
	return s.apply(ctx, id, p, ChangeCheckInDeleted, actor)
}

// DeleteCheckOut is the admin override reverting a check-out.
func (s *Service) DeleteCheckOut(ctx context.Context, id, actor string) (Student, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	p, err := DeleteCheckOut(st)
	if err != nil {
		return Student{}, err
	}
	return s.apply(ctx, id, p, ChangeCheckOutDeleted, actor)
}

// Delete removes a student permanently.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return External(err)
	}
	s.publish(ctx, ChangeDeleted, st, actor)
	return nil
}

func (s *Service) apply(ctx context.Context, id string, p Patch, kind, actor string) (Student, error) {
	updated, err := s.store.Update(ctx, id, p)
	if err != nil {
		return Student{}, External(err)
	}
	s.publish(ctx, kind, updated, actor)
	return updated, nil
}

func (s *Service) upload(ctx context.Context, folder, id string, at time.Time, photo []byte) (string, error) {
	if len(photo) == 0 {
		return "", invalid("photo required")
	}
	if s.photos == nil {
		return "", fmt.Errorf("%w: photo storage not configured", ErrExternalService)
	}
	name := fmt.Sprintf("%s/%s_%d.jpg", folder, id, at.UnixMilli())
	url, err := s.photos.Upload(ctx, name, photo)
	if err != nil {
		return "", External(err)
	}
	return url, nil
}

func (s *Service) publish(ctx context.Context, kind string, st Student, actor string) {
	if s.notify == nil {
		return
	}
	c := Change{Kind: kind, StudentID: st.ID, Name: st.Name, Class: st.Class, Actor: actor, At: s.now()}
	if err := s.notify.Notify(ctx, c); err != nil {
		log.Printf("publish %s for %s failed: %v", kind, st.ID, err)
	}
}
