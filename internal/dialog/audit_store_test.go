package dialog

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestAuditStoreEnsureCall(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewAuditStore(db)

	wantID := uuid.New()
	mock.ExpectQuery("INSERT INTO calls").
		WithArgs(sqlmock.AnyArg(), "call_a1", "hospital", "hi", "collect_time", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(wantID))

	sess := &Session{
		CallID:    "call_a1",
		Mode:      ModeHospital,
		Language:  LangHindi,
		State:     StateCollectTime,
		CreatedAt: time.Now().UTC(),
	}
	got, err := store.EnsureCall(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure call: %v", err)
	}
	if got != wantID {
		t.Errorf("id = %s, want %s", got, wantID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAuditStoreSaveTurn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewAuditStore(db)

	ts := time.Now().UTC()
	mock.ExpectExec("INSERT INTO call_turns").
		WithArgs(sqlmock.AnyArg(), "call_a2", "user", "cardiology please", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.SaveTurn(context.Background(), "call_a2", TranscriptEntry{
		Role: "user", Content: "cardiology please", Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("save turn: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAuditStoreFinishCall(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewAuditStore(db)

	mock.ExpectExec("UPDATE calls SET").
		WithArgs("call_a3", "en", "confirmed",
			"Rohit Narwal", "9876543210", "Dr Neha Sharma", "Cardiology",
			"tomorrow evening", "APT-1A2B3C", false, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sess := &Session{
		CallID:   "call_a3",
		Language: LangEnglish,
		State:    StateConfirmed,
		Slots: Slots{
			PatientName:    "Rohit Narwal",
			Phone:          "9876543210",
			DoctorName:     "Dr Neha Sharma",
			Department:     "Cardiology",
			PreferredTime:  "tomorrow evening",
			ConfirmationID: "APT-1A2B3C",
		},
	}
	if err := store.FinishCall(context.Background(), sess, false, ""); err != nil {
		t.Fatalf("finish call: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAuditStoreListTurns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewAuditStore(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT role, content, created_at").
		WithArgs("call_a4").
		WillReturnRows(sqlmock.NewRows([]string{"role", "content", "created_at"}).
			AddRow("user", "hello", now).
			AddRow("assistant", "hi there", now.Add(time.Second)))

	turns, err := store.ListTurns(context.Background(), "call_a4")
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[1].Role != "assistant" {
		t.Errorf("second role = %q", turns[1].Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAuditStoreNilIsNoOp(t *testing.T) {
	var store *AuditStore

	if _, err := store.EnsureCall(context.Background(), &Session{CallID: "x"}); err != nil {
		t.Errorf("ensure call on nil store: %v", err)
	}
	if err := store.SaveTurn(context.Background(), "x", TranscriptEntry{}); err != nil {
		t.Errorf("save turn on nil store: %v", err)
	}
	if err := store.FinishCall(context.Background(), &Session{CallID: "x"}, false, ""); err != nil {
		t.Errorf("finish call on nil store: %v", err)
	}
}
