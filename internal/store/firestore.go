package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"checkin/internal/student"
)

const studentsCollection = "students"

// Firestore persists the roster as documents in the "students" collection,
// the layout the kiosk used before it had a backend.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore wraps a Firestore client.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) col() *firestore.CollectionRef {
	return f.client.Collection(studentsCollection)
}

func (f *Firestore) Create(ctx context.Context, s student.Student) (student.Student, error) {
	if s.FeeHistory == nil {
		s.FeeHistory = []student.FeeEntry{}
	}
	// Token uniqueness is checked inside the transaction; Firestore has no
	// unique indexes.
	var ref *firestore.DocumentRef
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		q := f.col().Where("qrCode", "==", s.QRCode).Limit(1)
		docs, err := tx.Documents(q).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return student.ErrDuplicateQRCode
		}
		if s.ID != "" {
			ref = f.col().Doc(s.ID)
		} else {
			ref = f.col().NewDoc()
		}
		return tx.Create(ref, s)
	})
	if err != nil {
		return student.Student{}, err
	}
	s.ID = ref.ID
	return s, nil
}

func (f *Firestore) Get(ctx context.Context, id string) (student.Student, error) {
	snap, err := f.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return student.Student{}, student.ErrRecordNotFound
		}
		return student.Student{}, err
	}
	return decodeDoc(snap)
}

func (f *Firestore) FindByQRCode(ctx context.Context, qrCode string) (student.Student, error) {
	iter := f.col().Where("qrCode", "==", qrCode).Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return student.Student{}, student.ErrRecordNotFound
	}
	if err != nil {
		return student.Student{}, err
	}
	return decodeDoc(snap)
}

// List returns students oldest first.
func (f *Firestore) List(ctx context.Context) ([]student.Student, error) {
	iter := f.col().OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()
	var res []student.Student
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		s, err := decodeDoc(snap)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

// Update checks the precondition and writes the patch in one transaction.
// Ledger entries go through ArrayUnion so a concurrent writer that bypasses
// this store still cannot drop them.
func (f *Firestore) Update(ctx context.Context, id string, p student.Patch) (student.Student, error) {
	ref := f.col().Doc(id)
	var updated student.Student
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return student.ErrRecordNotFound
			}
			return err
		}
		current, err := decodeDoc(snap)
		if err != nil {
			return err
		}
		if !p.Satisfied(current) {
			return staleRecord(current, p)
		}
		updated = p.ApplyTo(current)
		updates := firestoreUpdates(p)
		if len(updates) == 0 {
			return nil
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return student.Student{}, err
	}
	return updated, nil
}

func (f *Firestore) Delete(ctx context.Context, id string) error {
	_, err := f.col().Doc(id).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return student.ErrRecordNotFound
	}
	return err
}

func firestoreUpdates(p student.Patch) []firestore.Update {
	var ups []firestore.Update
	if p.Status != nil {
		ups = append(ups, firestore.Update{Path: "status", Value: string(*p.Status)})
	}
	if p.SetCheckIn {
		ups = append(ups, firestore.Update{Path: "checkIn", Value: recordValue(p.CheckIn)})
	}
	if p.SetCheckOut {
		ups = append(ups, firestore.Update{Path: "checkOut", Value: recordValue(p.CheckOut)})
	}
	if p.Fee != nil {
		ups = append(ups,
			firestore.Update{Path: "feeAmount", Value: p.Fee.Amount},
			firestore.Update{Path: "feeStatus", Value: string(p.Fee.Status)},
			firestore.Update{Path: "feeNote", Value: p.Fee.Note},
		)
		if p.Fee.PaidAt != nil {
			ups = append(ups, firestore.Update{Path: "feePaidAt", Value: *p.Fee.PaidAt})
		}
		if p.Fee.PaidBy != "" {
			ups = append(ups, firestore.Update{Path: "feePaidBy", Value: string(p.Fee.PaidBy)})
		}
	}
	if len(p.Append) > 0 {
		entries := make([]interface{}, 0, len(p.Append))
		for _, e := range p.Append {
			entries = append(entries, e)
		}
		ups = append(ups, firestore.Update{Path: "feeHistory", Value: firestore.ArrayUnion(entries...)})
	}
	return ups
}

// recordValue maps a cleared record to a Firestore null.
func recordValue(rec *student.CheckRecord) interface{} {
	if rec == nil {
		return nil
	}
	return *rec
}

func decodeDoc(snap *firestore.DocumentSnapshot) (student.Student, error) {
	var s student.Student
	if err := snap.DataTo(&s); err != nil {
		return student.Student{}, fmt.Errorf("decode student %s: %w", snap.Ref.ID, err)
	}
	s.ID = snap.Ref.ID
	if s.FeeHistory == nil {
		s.FeeHistory = []student.FeeEntry{}
	}
	return s, nil
}
