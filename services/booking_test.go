package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lunchdesk-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestExecuteBatchDeductsAndNotifiesOnce(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	a := createAccount(t, f.db, "Jane Doe", 10, 10)

	report, err := f.svc.ExecuteBatch(ctx, BatchRequest{
		CustomerName:     "Jane Doe",
		Dates:            []time.Time{day(t, "2026-10-13"), day(t, "2026-10-14")},
		QuantityPerDate:  3,
		MealType:         models.MealDineIn,
		IsMember:         true,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
		Notes:            "allergy",
		Guests:           []GuestOverride{{}, {Name: "Bob", SpecialOrder: "no onions"}},
		Commit:           true,
	})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}

	if report.Requested != 6 || report.Created != 6 || len(report.Units) != 6 {
		t.Fatalf("report requested %d created %d units %d, want 6", report.Requested, report.Created, len(report.Units))
	}
	if got := remaining(t, f.db, a.ID); got != 4 {
		t.Errorf("remaining = %d, want 4", got)
	}
	if !report.TotalAmount.IsZero() {
		t.Errorf("account deduction total = %s, want 0", report.TotalAmount)
	}
	if report.Balances == nil || report.Balances.Primary.Before != 10 || report.Balances.Primary.After != 4 {
		t.Errorf("balances = %+v", report.Balances)
	}

	wantNames := []string{"Jane Doe", "Bob", "Jane Doe", "Jane Doe", "Bob", "Jane Doe"}
	for i, u := range report.Units {
		if u.Name != wantNames[i] {
			t.Errorf("unit %d name = %q, want %q", i, u.Name, wantNames[i])
		}
		if u.Committed != (i == 0) {
			t.Errorf("unit %d committed = %v", i, u.Committed)
		}
	}

	if n := countRows(t, f.db, &models.Reservation{}, ""); n != 6 {
		t.Errorf("reservations = %d, want 6", n)
	}
	if n := countRows(t, f.db, &models.Reservation{}, "committed = ?", true); n != 1 {
		t.Errorf("committed reservations = %d, want 1", n)
	}
	var bob models.Reservation
	f.db.First(&bob, "id = ?", report.Units[1].ReservationID)
	if bob.Notes != "allergy | no onions" {
		t.Errorf("guest note = %q", bob.Notes)
	}

	if f.notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", f.notifier.count())
	}
	n := f.notifier.sent[0]
	if n.TotalUnits != 6 || len(n.Dates) != 2 || n.Dates[1].Units != 3 || n.Customer != "Jane Doe" {
		t.Errorf("notification = %+v", n)
	}

	var batch models.BatchTransaction
	f.db.First(&batch, "id = ?", *report.BatchID)
	if batch.Status != models.BatchConsumed || batch.ConsumedBy == nil || *batch.ConsumedBy != report.Units[0].ReservationID {
		t.Errorf("batch = %+v", batch)
	}
	if batch.TotalUnits != 6 || batch.UnitsBooked != 6 || batch.AccountID == nil || *batch.AccountID != a.ID {
		t.Errorf("batch totals = %d/%d account %v", batch.UnitsBooked, batch.TotalUnits, batch.AccountID)
	}
	if n := countRows(t, f.db, &models.Contact{}, ""); n != 2 {
		t.Errorf("contacts = %d, want 2", n)
	}
}

func TestExecuteBatchInsufficientBalanceCreatesNothing(t *testing.T) {
	f := newBookingFixture(t)
	a := createAccount(t, f.db, "Jane Doe", 10, 2)

	_, err := f.svc.ExecuteBatch(context.Background(), BatchRequest{
		CustomerName:     "Jane Doe",
		Dates:            []time.Time{day(t, "2026-10-13")},
		QuantityPerDate:  3,
		MealType:         models.MealToGo,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
		Commit:           true,
	})
	var ierr *InsufficientBalanceError
	if !errors.As(err, &ierr) || err.Error() != "insufficient balance: available 2, requested 3" {
		t.Fatalf("ExecuteBatch: got %v", err)
	}
	if countRows(t, f.db, &models.Reservation{}, "") != 0 || countRows(t, f.db, &models.BatchTransaction{}, "") != 0 {
		t.Error("rejected batch left rows behind")
	}
	if f.notifier.count() != 0 {
		t.Error("rejected batch sent a notification")
	}
	if got := remaining(t, f.db, a.ID); got != 2 {
		t.Errorf("remaining = %d, want 2", got)
	}
}

func TestExecuteBatchRejectsInvalidDate(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.ExecuteBatch(context.Background(), BatchRequest{
		CustomerName:    "Jane Doe",
		Dates:           []time.Time{day(t, "2026-10-13"), day(t, "2026-10-17")},
		QuantityPerDate: 1,
		MealType:        models.MealDineIn,
		PaymentMethod:   models.PayCash,
		StaffID:         f.staff,
		Commit:          true,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Reason != ReasonWeekend {
		t.Fatalf("ExecuteBatch: got %v", err)
	}
	if countRows(t, f.db, &models.Reservation{}, "") != 0 {
		t.Error("invalid batch created reservations")
	}
}

func TestExecuteBatchStopsAtFirstFailure(t *testing.T) {
	f := newBookingFixture(t)

	inserts := 0
	f.db.Callback().Create().Before("gorm:create").Register("test:fail_third_unit", func(tx *gorm.DB) {
		if tx.Statement.Table != "reservations" {
			return
		}
		inserts++
		if inserts == 3 {
			tx.AddError(errors.New("disk full"))
		}
	})

	report, err := f.svc.ExecuteBatch(context.Background(), BatchRequest{
		CustomerName:    "Jane Doe",
		Dates:           []time.Time{day(t, "2026-10-13"), day(t, "2026-10-14")},
		QuantityPerDate: 2,
		MealType:        models.MealDineIn,
		PaymentMethod:   models.PayCash,
		StaffID:         f.staff,
		Commit:          true,
	})
	var berr *BatchError
	if !errors.As(err, &berr) {
		t.Fatalf("ExecuteBatch: got %v, want BatchError", err)
	}
	if report == nil || report != berr.Report {
		t.Fatal("report not returned with the error")
	}
	if report.Requested != 4 || report.Created != 2 {
		t.Errorf("created %d of %d, want 2 of 4", report.Created, report.Requested)
	}
	if !strings.Contains(report.Failure, "disk full") {
		t.Errorf("failure = %q", report.Failure)
	}
	if last := report.Log[len(report.Log)-1]; last != "created 2 of 4 units" {
		t.Errorf("last log line = %q", last)
	}
	if n := countRows(t, f.db, &models.Reservation{}, ""); n != 2 {
		t.Errorf("reservations = %d, want 2", n)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1 from the designated unit", f.notifier.count())
	}
}

func TestBatchTokenCommitsOnlyFirstUnit(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	a := createAccount(t, f.db, "Jane Doe", 10, 10)

	batch, err := f.svc.OpenBatch(ctx, f.staff)
	if err != nil {
		t.Fatalf("OpenBatch: %v", err)
	}

	unit := UnitRequest{
		Name:             "Jane Doe",
		Date:             day(t, "2026-10-13"),
		MealType:         models.MealDineIn,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
		Quantity:         1,
		Commit:           true,
		BatchID:          &batch.ID,
		Summary: &BatchSummary{
			Customer:   "Jane Doe",
			Dates:      []DateUnits{{Date: "2026-10-13", Units: 2}},
			TotalUnits: 2,
		},
	}

	first, err := f.svc.CreateReservation(ctx, unit)
	if err != nil {
		t.Fatalf("first unit: %v", err)
	}
	if !first.Committed || remaining(t, f.db, a.ID) != 8 {
		t.Fatalf("first unit committed=%v remaining=%d, want true and 8", first.Committed, remaining(t, f.db, a.ID))
	}

	unit.Name = "Guest"
	second, err := f.svc.CreateReservation(ctx, unit)
	if err != nil {
		t.Fatalf("second unit: %v", err)
	}
	if second.Committed {
		t.Error("second unit with the same token committed")
	}
	if got := remaining(t, f.db, a.ID); got != 8 {
		t.Errorf("remaining after second unit = %d, want 8", got)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", f.notifier.count())
	}
	if first.ReservationID == second.ReservationID || !strings.HasPrefix(second.ReferenceCode, "RSV-20261013-") {
		t.Errorf("unexpected ids %s / %s", first.ReferenceCode, second.ReferenceCode)
	}
}

func TestBatchTokenErrors(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	batch, err := f.svc.OpenBatch(ctx, f.staff)
	if err != nil {
		t.Fatalf("OpenBatch: %v", err)
	}
	unit := UnitRequest{
		Name:          "Jane Doe",
		Date:          day(t, "2026-10-13"),
		MealType:      models.MealDineIn,
		PaymentMethod: models.PayCash,
		StaffID:       f.staff,
		Quantity:      1,
		BatchID:       &batch.ID,
	}

	f.now = testNow.Add(31 * time.Minute)
	if _, err := f.svc.CreateReservation(ctx, unit); !errors.Is(err, ErrBatchExpired) {
		t.Errorf("expired token: got %v", err)
	}

	unknown := uuid.New()
	unit.BatchID = &unknown
	if _, err := f.svc.CreateReservation(ctx, unit); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("unknown token: got %v", err)
	}
	if countRows(t, f.db, &models.Reservation{}, "") != 0 {
		t.Error("failed units created reservations")
	}

	if _, err := f.svc.OpenBatch(ctx, uuid.Nil); err == nil {
		t.Error("OpenBatch accepted a missing staff id")
	}
}

func TestPreviewWritesNothing(t *testing.T) {
	f := newBookingFixture(t)
	a := createAccount(t, f.db, "Jane Doe", 10, 3)

	res, err := f.svc.Preview(context.Background(), UnitRequest{
		Name:             "Jane Doe",
		Date:             day(t, "2026-10-13"),
		MealType:         models.MealDineIn,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
		Quantity:         2,
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if res.ReservationID != uuid.Nil || res.Committed {
		t.Errorf("preview returned %+v", res)
	}
	if res.Balances == nil || res.Balances.Available != 3 {
		t.Errorf("preview balances = %+v", res.Balances)
	}
	if countRows(t, f.db, &models.Reservation{}, "") != 0 || remaining(t, f.db, a.ID) != 3 {
		t.Error("preview wrote to the store")
	}
	if f.notifier.count() != 0 {
		t.Error("preview sent a notification")
	}
}

func TestCreateReservationCommitsAsBatchOfOne(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	res, err := f.svc.CreateReservation(ctx, UnitRequest{
		Name:          "Walk In",
		Date:          day(t, "2026-10-13"),
		MealType:      models.MealToGo,
		PaymentMethod: models.PayCash,
		StaffID:       f.staff,
		Quantity:      2,
		Commit:        true,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if res.ReservationID == uuid.Nil || !res.Committed {
		t.Errorf("result = %+v", res)
	}
	if !res.AmountCharged.Equal(decimal.NewFromInt(20)) {
		t.Errorf("amount charged = %s, want 20", res.AmountCharged)
	}

	var rows []models.Reservation
	f.db.Find(&rows)
	if len(rows) != 2 {
		t.Fatalf("reservations = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if !r.Amount.Equal(decimal.NewFromInt(10)) || r.Status != models.StatusReserved {
			t.Errorf("reservation amount %s status %s", r.Amount, r.Status)
		}
	}
	if f.notifier.count() != 1 || !f.notifier.sent[0].TotalAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("notifications = %+v", f.notifier.sent)
	}
}

func TestAccountDeductionChargesNothing(t *testing.T) {
	f := newBookingFixture(t)
	a := createAccount(t, f.db, "Jane Doe", 10, 10)
	f.notifier.fail = true

	res, err := f.svc.CreateReservation(context.Background(), UnitRequest{
		Name:             "Jane Doe",
		Date:             day(t, "2026-10-16"),
		MealType:         models.MealDelivery,
		IsMember:         true,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
		Commit:           true,
		IsFrozenFriday:   true,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if !res.AmountCharged.IsZero() {
		t.Errorf("amount = %s, want 0", res.AmountCharged)
	}
	if got := remaining(t, f.db, a.ID); got != 9 {
		t.Errorf("remaining = %d, want 9", got)
	}

	var r models.Reservation
	f.db.First(&r, "id = ?", res.ReservationID)
	if !r.Amount.IsZero() || !r.FrozenFriday {
		t.Errorf("reservation amount %s frozen %v", r.Amount, r.FrozenFriday)
	}
}

func TestAccountDeductionNeedsPrimary(t *testing.T) {
	f := newBookingFixture(t)
	buffer := uuid.New()

	_, err := f.svc.CreateReservation(context.Background(), UnitRequest{
		Name:            "Jane Doe",
		Date:            day(t, "2026-10-13"),
		MealType:        models.MealDineIn,
		PaymentMethod:   models.PayCash,
		BufferAccountID: &buffer,
		StaffID:         f.staff,
		Commit:          true,
	})
	if !errors.Is(err, ErrAccountRequired) {
		t.Errorf("buffer without primary: got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	res, err := f.svc.CreateReservation(ctx, UnitRequest{
		Name:          "Jane Doe",
		Date:          day(t, "2026-10-13"),
		MealType:      models.MealDineIn,
		PaymentMethod: models.PayComplimentary,
		StaffID:       f.staff,
		Commit:        true,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	r, err := f.svc.UpdateStatus(ctx, res.ReservationID, models.StatusFulfilled)
	if err != nil || r.Status != models.StatusFulfilled {
		t.Fatalf("UpdateStatus = %v, %v", r, err)
	}
	if _, err := f.svc.UpdateStatus(ctx, res.ReservationID, models.StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("fulfilled -> cancelled: got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, uuid.New(), models.StatusCancelled); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("unknown reservation: got %v", err)
	}
}

func TestUnitNameAndNote(t *testing.T) {
	req := BatchRequest{
		CustomerName:     "Jane Doe",
		Notes:            " extra napkins ",
		PaymentReference: "CHK-42",
		Guests:           []GuestOverride{{Name: "Ignored"}, {Name: "Bob", SpecialOrder: "vegan"}},
	}

	if got := unitName(req, 0, 0); got != "Jane Doe" {
		t.Errorf("designated unit name = %q", got)
	}
	if got := unitName(req, 1, 0); got != "Ignored" {
		t.Errorf("unit 0 of later date = %q", got)
	}
	if got := unitName(req, 0, 2); got != "Jane Doe" {
		t.Errorf("unit without override = %q", got)
	}
	if got := unitNote(req, 0, 1); got != "extra napkins | vegan | Payment ref: CHK-42" {
		t.Errorf("note = %q", got)
	}

	req.Guests[0].SpecialOrder = "gluten free"
	if got := unitNote(req, 0, 0); got != "extra napkins | Payment ref: CHK-42" {
		t.Errorf("designated unit note = %q", got)
	}
	if got := unitNote(req, 1, 0); got != "extra napkins | gluten free | Payment ref: CHK-42" {
		t.Errorf("unit 0 of later date note = %q", got)
	}

	req.Notes = ""
	req.PaymentReference = ""
	if got := unitNote(req, 0, 0); got != "" {
		t.Errorf("empty note = %q", got)
	}
}

func TestExecuteBatchWithoutCommitOnlyRecords(t *testing.T) {
	f := newBookingFixture(t)
	a := createAccount(t, f.db, "Jane Doe", 10, 10)

	report, err := f.svc.ExecuteBatch(context.Background(), BatchRequest{
		CustomerName:     "Jane Doe",
		Dates:            []time.Time{day(t, "2026-10-13"), day(t, "2026-10-14"), day(t, "2026-10-15")},
		QuantityPerDate:  2,
		MealType:         models.MealDineIn,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
	})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if report.Created != 6 || report.BatchID != nil {
		t.Errorf("created %d batch %v", report.Created, report.BatchID)
	}
	if n := countRows(t, f.db, &models.Reservation{}, ""); n != 6 {
		t.Errorf("reservations = %d, want 6", n)
	}
	if got := remaining(t, f.db, a.ID); got != 10 {
		t.Errorf("remaining = %d, want 10", got)
	}
	if f.notifier.count() != 0 {
		t.Errorf("notifications = %d, want 0", f.notifier.count())
	}
}

func TestCreateReservationWithoutCommitNeedsBatch(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.CreateReservation(context.Background(), UnitRequest{
		Name:          "Guest",
		Date:          day(t, "2026-10-13"),
		MealType:      models.MealDineIn,
		PaymentMethod: models.PayCash,
		StaffID:       f.staff,
	})
	if !errors.Is(err, ErrBatchRequired) {
		t.Fatalf("uncommitted unit without batch: got %v", err)
	}
	if countRows(t, f.db, &models.Reservation{}, "") != 0 {
		t.Error("uncommitted unit was stored")
	}
}

func TestCreateReservationSummaryStartsBatch(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	a := createAccount(t, f.db, "Jane Doe", 10, 10)

	unit := UnitRequest{
		Name:             "Jane Doe",
		Date:             day(t, "2026-10-13"),
		MealType:         models.MealDineIn,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
		Commit:           true,
		Summary: &BatchSummary{
			Customer:   "Jane Doe",
			Dates:      []DateUnits{{Date: "2026-10-13", Units: 3}},
			TotalUnits: 3,
		},
	}

	first, err := f.svc.CreateReservation(ctx, unit)
	if err != nil {
		t.Fatalf("first unit: %v", err)
	}
	if !first.Committed || first.BatchID == nil {
		t.Fatalf("first unit = %+v", first)
	}
	if got := remaining(t, f.db, a.ID); got != 7 {
		t.Errorf("remaining = %d, want 7", got)
	}

	unit.Commit = false
	unit.BatchID = first.BatchID
	for i := 0; i < 2; i++ {
		res, err := f.svc.CreateReservation(ctx, unit)
		if err != nil {
			t.Fatalf("unit %d: %v", i+2, err)
		}
		if res.ReservationID == uuid.Nil || res.Committed {
			t.Errorf("unit %d = %+v", i+2, res)
		}
	}
	if _, err := f.svc.CreateReservation(ctx, unit); !errors.Is(err, ErrBatchFull) {
		t.Errorf("fourth unit: got %v", err)
	}

	if n := countRows(t, f.db, &models.Reservation{}, ""); n != 3 {
		t.Errorf("reservations = %d, want 3", n)
	}
	if got := remaining(t, f.db, a.ID); got != 7 || f.notifier.count() != 1 {
		t.Errorf("remaining %d notifications %d, want 7 and 1", got, f.notifier.count())
	}
}

func TestCreateReservationSummaryRejectedOpensNoBatch(t *testing.T) {
	f := newBookingFixture(t)
	a := createAccount(t, f.db, "Jane Doe", 10, 2)

	_, err := f.svc.CreateReservation(context.Background(), UnitRequest{
		Name:             "Jane Doe",
		Date:             day(t, "2026-10-13"),
		MealType:         models.MealDineIn,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
		Commit:           true,
		Summary:          &BatchSummary{Customer: "Jane Doe", TotalUnits: 3},
	})
	var ierr *InsufficientBalanceError
	if !errors.As(err, &ierr) || ierr.Available != 2 || ierr.Requested != 3 {
		t.Fatalf("CreateReservation: got %v", err)
	}
	if countRows(t, f.db, &models.BatchTransaction{}, "") != 0 || countRows(t, f.db, &models.Contact{}, "") != 0 {
		t.Error("rejected request left a batch or contact behind")
	}
}

func TestBatchTokenPinsAccount(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	jane := createAccount(t, f.db, "Jane Doe", 10, 10)
	other := createAccount(t, f.db, "John Roe", 10, 10)

	batch, err := f.svc.OpenBatch(ctx, f.staff)
	if err != nil {
		t.Fatalf("OpenBatch: %v", err)
	}
	unit := UnitRequest{
		Name:             "Jane Doe",
		Date:             day(t, "2026-10-13"),
		MealType:         models.MealDineIn,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &jane.ID,
		StaffID:          f.staff,
		Quantity:         1,
		BatchID:          &batch.ID,
		Summary:          &BatchSummary{Customer: "Jane Doe", TotalUnits: 2},
	}
	if _, err := f.svc.CreateReservation(ctx, unit); err != nil {
		t.Fatalf("first unit: %v", err)
	}

	unit.PrimaryAccountID = &other.ID
	if _, err := f.svc.CreateReservation(ctx, unit); !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("unit on another account: got %v", err)
	}
	unit.PrimaryAccountID = nil
	unit.PaymentMethod = models.PayCash
	if _, err := f.svc.CreateReservation(ctx, unit); !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("unit with another payment method: got %v", err)
	}

	unit.PaymentMethod = models.PayAccountDeduction
	unit.PrimaryAccountID = &jane.ID
	if _, err := f.svc.CreateReservation(ctx, unit); err != nil {
		t.Fatalf("matching unit: %v", err)
	}

	if n := countRows(t, f.db, &models.Reservation{}, ""); n != 2 {
		t.Errorf("reservations = %d, want 2", n)
	}
	if remaining(t, f.db, jane.ID) != 8 || remaining(t, f.db, other.ID) != 10 {
		t.Errorf("remaining jane %d other %d, want 8 and 10", remaining(t, f.db, jane.ID), remaining(t, f.db, other.ID))
	}
}

func TestRejectedUnitCreatesNoContact(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	a := createAccount(t, f.db, "Jane Doe", 10, 1)

	batch, err := f.svc.OpenBatch(ctx, f.staff)
	if err != nil {
		t.Fatalf("OpenBatch: %v", err)
	}
	_, err = f.svc.CreateReservation(ctx, UnitRequest{
		Name:             "New Person",
		Date:             day(t, "2026-10-13"),
		MealType:         models.MealDineIn,
		PaymentMethod:    models.PayAccountDeduction,
		PrimaryAccountID: &a.ID,
		StaffID:          f.staff,
		Quantity:         2,
		BatchID:          &batch.ID,
	})
	var ierr *InsufficientBalanceError
	if !errors.As(err, &ierr) {
		t.Fatalf("CreateReservation: got %v", err)
	}
	if n := countRows(t, f.db, &models.Contact{}, ""); n != 0 {
		t.Errorf("contacts = %d, want 0", n)
	}

	var reopened models.BatchTransaction
	if err := f.db.First(&reopened, "id = ?", batch.ID).Error; err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if reopened.Status != models.BatchOpen {
		t.Errorf("batch status after rejected unit = %s, want open", reopened.Status)
	}
}
