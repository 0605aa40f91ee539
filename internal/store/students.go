package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"checkin/internal/student"
)

const uniqueViolation = "23505"

const studentColumns = `id, name, class, accompanied_by, coupons, qr_code, status, check_in, check_out,
	fee_amount, fee_status, fee_paid_at, fee_paid_by, fee_note, fee_history, created_at`

// Students persists the roster in Postgres. Check-in and check-out records
// and the fee ledger are JSONB columns; ledger appends use the jsonb
// concatenation operator so they happen in the same statement as the
// status change.
type Students struct {
	db *sql.DB
}

// NewStudents creates a Postgres student repository.
func NewStudents(db *sql.DB) *Students {
	return &Students{db: db}
}

func (r *Students) Create(ctx context.Context, s student.Student) (student.Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	checkIn, err := jsonValue(s.CheckIn)
	if err != nil {
		return student.Student{}, err
	}
	checkOut, err := jsonValue(s.CheckOut)
	if err != nil {
		return student.Student{}, err
	}
	history := s.FeeHistory
	if history == nil {
		history = []student.FeeEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return student.Student{}, fmt.Errorf("encode fee history: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (`+studentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9::jsonb,$10,$11,$12,$13,$14,$15::jsonb,$16)
		RETURNING `+studentColumns,
		s.ID, s.Name, s.Class, s.AccompaniedBy, s.Coupons, s.QRCode, string(s.Status), checkIn, checkOut,
		s.FeeAmount, string(s.FeeStatus), s.FeePaidAt, string(s.FeePaidBy), s.FeeNote, string(historyJSON), s.CreatedAt)
	created, err := scanStudent(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return student.Student{}, student.ErrDuplicateQRCode
		}
		return student.Student{}, err
	}
	return created, nil
}

func (r *Students) Get(ctx context.Context, id string) (student.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return student.Student{}, student.ErrRecordNotFound
	}
	return s, err
}

func (r *Students) FindByQRCode(ctx context.Context, qrCode string) (student.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE qr_code = $1`, qrCode)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return student.Student{}, student.ErrRecordNotFound
	}
	return s, err
}

// List returns students oldest first.
func (r *Students) List(ctx context.Context) ([]student.Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []student.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Update applies p in one conditional UPDATE. When no row matches it tells
// a missing id apart from a failed precondition.
func (r *Students) Update(ctx context.Context, id string, p student.Patch) (student.Student, error) {
	query, args, err := updateQuery(id, p)
	if err != nil {
		return student.Student{}, err
	}
	if query == "" {
		return r.Get(ctx, id)
	}
	s, err := scanStudent(r.db.QueryRowContext(ctx, query, args...))
	if !errors.Is(err, sql.ErrNoRows) {
		return s, err
	}
	current, err := r.Get(ctx, id)
	if err != nil {
		return student.Student{}, err
	}
	return student.Student{}, staleRecord(current, p)
}

func (r *Students) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrRecordNotFound
	}
	return nil
}

func updateQuery(id string, p student.Patch) (string, []any, error) {
	args := []any{id}
	var sets []string
	set := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, strings.ReplaceAll(expr, "?", "$"+strconv.Itoa(len(args))))
	}

	if p.Status != nil {
		set("status = ?", string(*p.Status))
	}
	if p.SetCheckIn {
		v, err := jsonValue(p.CheckIn)
		if err != nil {
			return "", nil, err
		}
		set("check_in = ?::jsonb", v)
	}
	if p.SetCheckOut {
		v, err := jsonValue(p.CheckOut)
		if err != nil {
			return "", nil, err
		}
		set("check_out = ?::jsonb", v)
	}
	if p.Fee != nil {
		set("fee_amount = ?", p.Fee.Amount)
		set("fee_status = ?", string(p.Fee.Status))
		set("fee_note = ?", p.Fee.Note)
		if p.Fee.PaidAt != nil {
			set("fee_paid_at = ?", *p.Fee.PaidAt)
		}
		if p.Fee.PaidBy != "" {
			set("fee_paid_by = ?", string(p.Fee.PaidBy))
		}
	}
	if len(p.Append) > 0 {
		entries, err := json.Marshal(p.Append)
		if err != nil {
			return "", nil, fmt.Errorf("encode fee history: %w", err)
		}
		set("fee_history = fee_history || ?::jsonb", string(entries))
	}
	if len(sets) == 0 {
		return "", nil, nil
	}

	where := []string{"id = $1"}
	if p.Expect.Status != "" {
		args = append(args, string(p.Expect.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if p.Expect.FeeStatus != "" {
		args = append(args, string(p.Expect.FeeStatus))
		where = append(where, "fee_status = $"+strconv.Itoa(len(args)))
	}
	query := `UPDATE students SET ` + strings.Join(sets, ", ") +
		` WHERE ` + strings.Join(where, " AND ") +
		` RETURNING ` + studentColumns
	return query, args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (student.Student, error) {
	var (
		s                 student.Student
		status, feeStatus string
		paidBy            string
		checkIn, checkOut []byte
		history           []byte
		paidAt            sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Class, &s.AccompaniedBy, &s.Coupons, &s.QRCode, &status, &checkIn, &checkOut,
		&s.FeeAmount, &feeStatus, &paidAt, &paidBy, &s.FeeNote, &history, &s.CreatedAt); err != nil {
		return student.Student{}, err
	}
	s.Status = student.Status(status)
	s.FeeStatus = student.FeeStatus(feeStatus)
	s.FeePaidBy = student.PaidBy(paidBy)
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		s.FeePaidAt = &t
	}
	s.CreatedAt = s.CreatedAt.UTC()
	var err error
	if s.CheckIn, err = decodeRecord(checkIn); err != nil {
		return student.Student{}, err
	}
	if s.CheckOut, err = decodeRecord(checkOut); err != nil {
		return student.Student{}, err
	}
	s.FeeHistory = []student.FeeEntry{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &s.FeeHistory); err != nil {
			return student.Student{}, fmt.Errorf("decode fee history: %w", err)
		}
	}
	return s, nil
}

func decodeRecord(raw []byte) (*student.CheckRecord, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rec student.CheckRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode check record: %w", err)
	}
	rec.Time = rec.Time.UTC()
	return &rec, nil
}

// jsonValue encodes a nullable check record for a jsonb parameter.
func jsonValue(rec *student.CheckRecord) (any, error) {
	if rec == nil {
		return nil, nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode check record: %w", err)
	}
	return string(b), nil
}
