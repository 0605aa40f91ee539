package student_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin/internal/store"
	"checkin/internal/student"
)

type fakePhotos struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakePhotos) Upload(_ context.Context, name string, image []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "https://photos.test/" + name, nil
}

func (f *fakePhotos) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.names)
}

type recorder struct {
	mu      sync.Mutex
	changes []student.Change
}

func (r *recorder) Notify(_ context.Context, c student.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Kind)
	}
	return out
}

var (
	photo = []byte("jpeg-bytes")
	clock = time.Date(2024, 5, 18, 8, 0, 0, 0, time.UTC)
)

func setup(t *testing.T, opts ...student.Option) (*student.Service, *fakePhotos, *recorder) {
	t.Helper()
	photos := &fakePhotos{}
	rec := &recorder{}
	opts = append([]student.Option{
		student.WithNotifier(rec),
		student.WithClock(func() time.Time { return clock }),
	}, opts...)
	return student.NewService(store.NewMemory(), photos, opts...), photos, rec
}

func create(t *testing.T, svc *student.Service, fee student.FeeStatus) student.Student {
	t.Helper()
	st, err := svc.Create(context.Background(), student.NewStudent{
		Name: "Nguyễn Văn A", Class: "1A", FeeAmount: 200000, FeeStatus: fee,
	}, "admin@x")
	require.NoError(t, err)
	return st
}

func TestServiceCreate(t *testing.T) {
	svc, _, rec := setup(t)
	ctx := context.Background()

	st := create(t, svc, student.FeePaid)
	assert.NotEmpty(t, st.ID)
	assert.Regexp(t, `^QR_[0-9A-Z]{9}$`, st.QRCode)
	assert.Equal(t, student.StatusNotArrived, st.Status)
	assert.Len(t, st.FeeHistory, 1)

	got, err := svc.FindByQRCode(ctx, st.QRCode)
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, []string{student.ChangeCreated}, rec.kinds())

	_, err = svc.Create(ctx, student.NewStudent{Class: "1A"}, "admin@x")
	assert.ErrorIs(t, err, student.ErrValidation)
}

func TestServiceCreateRetriesTakenTokens(t *testing.T) {
	tokens := []string{"QR_AAAAAAAAA", "QR_AAAAAAAAA", "QR_BBBBBBBBB"}
	next := func() (string, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, nil
	}
	svc, _, _ := setup(t, student.WithTokenSource(next))

	first := create(t, svc, student.FeeUnpaid)
	second := create(t, svc, student.FeeUnpaid)
	assert.Equal(t, "QR_AAAAAAAAA", first.QRCode)
	assert.Equal(t, "QR_BBBBBBBBB", second.QRCode)
}

func TestServiceCreateGivesUpOnTokens(t *testing.T) {
	svc, _, _ := setup(t, student.WithTokenSource(func() (string, error) { return "QR_SAMESAME1", nil }))
	create(t, svc, student.FeeUnpaid)

	_, err := svc.Create(context.Background(), student.NewStudent{Name: "B", Class: "1B"}, "admin@x")
	assert.ErrorIs(t, err, student.ErrDuplicateQRCode)
}

func TestServiceImport(t *testing.T) {
	svc, _, rec := setup(t)
	rows := []student.SheetRow{
		{Line: 2, Cells: student.Row{student.ColName: "A", student.ColClass: "1A", student.ColFeePaid: "Rồi", student.ColFeeAmount: "200000"}},
		{Line: 4, Cells: student.Row{student.ColName: "", student.ColClass: "1A"}},
		{Line: 5, Cells: student.Row{student.ColName: "C", student.ColClass: "2A", student.ColAccompanied: "Không"}},
		{Line: 9, Cells: student.Row{student.ColName: "D"}},
	}
	res, err := svc.Import(context.Background(), rows, "admin@x")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, 4, res.Failed[0].Row)
	assert.Equal(t, 9, res.Failed[1].Row)
	assert.ErrorIs(t, res.Failed[0].Err, student.ErrValidation)
	assert.Len(t, rec.kinds(), 2)

	r, err := svc.Roster(context.Background(), student.Filter{})
	require.NoError(t, err)
	require.Len(t, r.Students, 2)
	byName := map[string]student.Student{}
	for _, st := range r.Students {
		byName[st.Name] = st
	}
	assert.Equal(t, student.PaidBeforeEvent, byName["A"].FeePaidBy)
	assert.True(t, byName["C"].IsAlone())
	assert.Equal(t, student.FeeUnpaid, byName["C"].FeeStatus)
}

// flakyStore fails every Create after the first ok calls.
type flakyStore struct {
	student.Store
	mu    sync.Mutex
	ok    int
	calls int
}

func (f *flakyStore) Create(ctx context.Context, st student.Student) (student.Student, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if n > f.ok {
		return student.Student{}, errors.New("connection reset")
	}
	return f.Store.Create(ctx, st)
}

func TestServiceImportStopsOnStoreFailure(t *testing.T) {
	st := &flakyStore{Store: store.NewMemory(), ok: 2}
	rec := &recorder{}
	svc := student.NewService(st, &fakePhotos{}, student.WithNotifier(rec))

	rows := make([]student.SheetRow, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, student.SheetRow{Line: i + 2, Cells: student.Row{
			student.ColName: fmt.Sprintf("S%d", i), student.ColClass: "1A",
		}})
	}
	res, err := svc.Import(context.Background(), rows, "admin@x")
	require.Error(t, err)
	assert.ErrorIs(t, err, student.ErrExternalService)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 3, st.calls)
	assert.Len(t, rec.kinds(), 2)

	all, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestServiceCheckInFlow(t *testing.T) {
	svc, photos, rec := setup(t)
	ctx := context.Background()
	st := create(t, svc, student.FeeUnpaid)

	_, err := svc.CheckIn(ctx, st.ID, student.CheckInRequest{Photo: photo, Actor: "staff@x"})
	assert.ErrorIs(t, err, student.ErrValidation)
	assert.Zero(t, photos.count(), "no upload before the fee is confirmed")

	_, err = svc.CheckIn(ctx, st.ID, student.CheckInRequest{FeeCollected: true, Actor: "staff@x"})
	assert.ErrorIs(t, err, student.ErrValidation)

	in, err := svc.CheckIn(ctx, st.ID, student.CheckInRequest{Photo: photo, FeeCollected: true, Actor: "staff@x"})
	require.NoError(t, err)
	assert.Equal(t, student.StatusCheckedIn, in.Status)
	assert.Equal(t, student.FeePaid, in.FeeStatus)
	assert.Equal(t, fmt.Sprintf("https://photos.test/checkin/%s_%d.jpg", st.ID, clock.UnixMilli()), in.CheckIn.PhotoURL)
	require.Len(t, in.FeeHistory, 1)
	assert.Equal(t, "staff@x", in.FeeHistory[0].ChangedBy)

	_, err = svc.CheckIn(ctx, st.ID, student.CheckInRequest{Photo: photo, FeeCollected: true, Actor: "staff@x"})
	assert.ErrorIs(t, err, student.ErrInvalidTransition)

	out, err := svc.CheckOut(ctx, st.ID, photo, "staff@x")
	require.NoError(t, err)
	assert.Equal(t, student.StatusCheckedOut, out.Status)

	_, err = svc.DeleteCheckIn(ctx, st.ID, "admin@x")
	assert.ErrorIs(t, err, student.ErrInvalidTransition)

	back, err := svc.DeleteCheckOut(ctx, st.ID, "admin@x")
	require.NoError(t, err)
	assert.Equal(t, student.StatusCheckedIn, back.Status)
	assert.Nil(t, back.CheckOut)

	back, err = svc.DeleteCheckIn(ctx, st.ID, "admin@x")
	require.NoError(t, err)
	assert.Equal(t, student.StatusNotArrived, back.Status)
	assert.Equal(t, student.FeePaid, back.FeeStatus)

	assert.Equal(t, []string{
		student.ChangeCreated,
		student.ChangeCheckedIn,
		student.ChangeCheckedOut,
		student.ChangeCheckOutDeleted,
		student.ChangeCheckInDeleted,
	}, rec.kinds())
}

func TestServicePhotoFailureLeavesRecord(t *testing.T) {
	svc, photos, _ := setup(t)
	ctx := context.Background()
	st := create(t, svc, student.FeePaid)
	photos.err = errors.New("upload timeout")

	_, err := svc.CheckIn(ctx, st.ID, student.CheckInRequest{Photo: photo, Actor: "staff@x"})
	assert.ErrorIs(t, err, student.ErrExternalService)

	got, err := svc.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StatusNotArrived, got.Status)
	assert.Nil(t, got.CheckIn)
}

func TestServiceNoPhotoSink(t *testing.T) {
	svc := student.NewService(store.NewMemory(), nil)
	st, err := svc.Create(context.Background(), student.NewStudent{Name: "A", Class: "1A", FeeStatus: student.FeePaid}, "a")
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), st.ID, student.CheckInRequest{Photo: photo, Actor: "a"})
	assert.ErrorIs(t, err, student.ErrExternalService)
}

func TestServiceConcurrentCheckIn(t *testing.T) {
	svc, _, _ := setup(t)
	st := create(t, svc, student.FeeUnpaid)

	const stations = 8
	var wg sync.WaitGroup
	errs := make(chan error, stations)
	for i := 0; i < stations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CheckIn(context.Background(), st.ID, student.CheckInRequest{
				Photo: photo, FeeCollected: true, Actor: fmt.Sprintf("staff%d@x", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, student.ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)

	got, err := svc.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Len(t, got.FeeHistory, 1)
}

func TestServiceUpdateFee(t *testing.T) {
	svc, _, rec := setup(t)
	ctx := context.Background()
	st := create(t, svc, student.FeeUnpaid)

	got, err := svc.UpdateFee(ctx, st.ID, student.FeeUpdate{Amount: 250000, Status: student.FeePaid, Note: "CK"}, "admin@x")
	require.NoError(t, err)
	assert.Equal(t, student.PaidAdmin, got.FeePaidBy)
	require.Len(t, got.FeeHistory, 1)

	got, err = svc.UpdateFee(ctx, st.ID, student.FeeUpdate{Amount: 300000, Status: student.FeePaid}, "admin@x")
	require.NoError(t, err)
	assert.Equal(t, int64(300000), got.FeeAmount)
	assert.Len(t, got.FeeHistory, 1)

	_, err = svc.UpdateFee(ctx, "missing", student.FeeUpdate{Status: student.FeePaid}, "admin@x")
	assert.ErrorIs(t, err, student.ErrRecordNotFound)
	assert.Contains(t, rec.kinds(), student.ChangeFeeUpdated)
}

func TestServiceDelete(t *testing.T) {
	svc, _, rec := setup(t)
	ctx := context.Background()
	st := create(t, svc, student.FeeUnpaid)

	require.NoError(t, svc.Delete(ctx, st.ID, "admin@x"))
	_, err := svc.Get(ctx, st.ID)
	assert.ErrorIs(t, err, student.ErrRecordNotFound)
	_, err = svc.FindByQRCode(ctx, st.QRCode)
	assert.ErrorIs(t, err, student.ErrRecordNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, st.ID, "admin@x"), student.ErrRecordNotFound)
	assert.Equal(t, student.ChangeDeleted, rec.kinds()[len(rec.kinds())-1])
}

func TestServiceRosterRejectsBadFilter(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Roster(context.Background(), student.Filter{Status: "lost"})
	assert.ErrorIs(t, err, student.ErrValidation)
}
