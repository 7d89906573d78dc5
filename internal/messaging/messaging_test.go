package messaging

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/moabank/counsel/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMessagingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.ChatSession{}, &models.ChatMessage{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func seedSession(t *testing.T, db *gorm.DB, status string) uint {
	t.Helper()
	s := models.ChatSession{
		Reference:  "ref-" + status + "-" + time.Now().Format("150405.000000000"),
		CustomerID: 1,
		Category:   models.CategoryGeneral,
		Status:     status,
	}
	if status == models.SessionClosed {
		now := time.Now()
		s.ClosedAt = &now
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s.ID
}

func mustAppend(t *testing.T, db *gorm.DB, sessionID uint, role string, senderID int64, content string) *models.ChatMessage {
	t.Helper()
	msg, err := Append(db, sessionID, role, senderID, content)
	if err != nil {
		t.Fatalf("append %q: %v", content, err)
	}
	return msg
}

// ---------------------------------------------------------------------------
// Append / History
// ---------------------------------------------------------------------------

func TestAppend_And_History(t *testing.T) {
	gdb := openMessagingTestDB(t)
	sessionID := seedSession(t, gdb, models.SessionChatting)

	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "hello")
	mustAppend(t, gdb, sessionID, models.RoleConsultant, 9, "how can I help?")
	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "card question")

	msgs, err := History(gdb, sessionID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	want := []string{"hello", "how can I help?", "card question"}
	for i, m := range msgs {
		if m.Content != want[i] {
			t.Errorf("position %d: content = %q, want %q", i, m.Content, want[i])
		}
		if m.ReadByCustomerAt != nil || m.ReadByConsultantAt != nil {
			t.Errorf("position %d: read markers set on fresh message", i)
		}
	}
}

func TestAppend_WaitingSessionAccepted(t *testing.T) {
	gdb := openMessagingTestDB(t)
	sessionID := seedSession(t, gdb, models.SessionWaiting)

	if _, err := Append(gdb, sessionID, models.RoleCustomer, 1, "anyone there?"); err != nil {
		t.Fatalf("append to waiting session: %v", err)
	}
}

func TestAppend_ClosedSession(t *testing.T) {
	gdb := openMessagingTestDB(t)
	sessionID := seedSession(t, gdb, models.SessionClosed)

	_, err := Append(gdb, sessionID, models.RoleCustomer, 1, "too late")
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}

	msgs, _ := History(gdb, sessionID)
	if len(msgs) != 0 {
		t.Errorf("closed session gained %d messages", len(msgs))
	}
}

func TestAppend_UnknownSession(t *testing.T) {
	gdb := openMessagingTestDB(t)
	_, err := Append(gdb, 9999, models.RoleCustomer, 1, "hello?")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestAppend_Validation(t *testing.T) {
	gdb := openMessagingTestDB(t)
	sessionID := seedSession(t, gdb, models.SessionChatting)

	tests := []struct {
		name    string
		role    string
		sender  int64
		content string
		wantErr string
	}{
		{"bad role", "operator", 1, "hi", "unknown sender role"},
		{"missing sender", models.RoleCustomer, 0, "hi", "senderID is required"},
		{"empty content", models.RoleCustomer, 1, "", "content is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Append(gdb, sessionID, tt.role, tt.sender, tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestHistory_UnknownSessionEmpty(t *testing.T) {
	gdb := openMessagingTestDB(t)
	msgs, err := History(gdb, 424242)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("len = %d, want empty history for unknown session", len(msgs))
	}
}

// ---------------------------------------------------------------------------
// MarkRead / UnreadCount
// ---------------------------------------------------------------------------

func TestMarkRead_Batch(t *testing.T) {
	gdb := openMessagingTestDB(t)
	sessionID := seedSession(t, gdb, models.SessionChatting)

	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "one")
	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "two")
	mustAppend(t, gdb, sessionID, models.RoleConsultant, 9, "reply")

	updated, err := MarkRead(gdb, sessionID, models.RoleConsultant)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2 customer messages marked", updated)
	}

	msgs, _ := History(gdb, sessionID)
	for _, m := range msgs {
		switch m.SenderRole {
		case models.RoleCustomer:
			if m.ReadByConsultantAt == nil {
				t.Errorf("message %q: consultant marker not set", m.Content)
			}
		case models.RoleConsultant:
			if m.ReadByConsultantAt != nil {
				t.Errorf("message %q: own message marked read by sender's role", m.Content)
			}
		}
		if m.ReadByCustomerAt != nil {
			t.Errorf("message %q: customer marker set without a customer read", m.Content)
		}
	}
}

func TestMarkRead_SecondRunNoop(t *testing.T) {
	gdb := openMessagingTestDB(t)
	sessionID := seedSession(t, gdb, models.SessionChatting)
	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "one")

	if _, err := MarkRead(gdb, sessionID, models.RoleConsultant); err != nil {
		t.Fatalf("first MarkRead: %v", err)
	}

	var before models.ChatMessage
	gdb.Where("session_id = ?", sessionID).First(&before)

	updated, err := MarkRead(gdb, sessionID, models.RoleConsultant)
	if err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	if updated != 0 {
		t.Errorf("second run updated = %d, want 0", updated)
	}

	var after models.ChatMessage
	gdb.Where("session_id = ?", sessionID).First(&after)
	if !after.ReadByConsultantAt.Equal(*before.ReadByConsultantAt) {
		t.Error("existing read marker re-stamped by second run")
	}
}

func TestMarkRead_UnknownRole(t *testing.T) {
	gdb := openMessagingTestDB(t)
	_, err := MarkRead(gdb, 1, "operator")
	if err == nil {
		t.Fatal("expected error for unknown reader role")
	}
}

func TestUnreadCount_Lifecycle(t *testing.T) {
	gdb := openMessagingTestDB(t)
	sessionID := seedSession(t, gdb, models.SessionChatting)

	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "one")
	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "two")

	count, err := UnreadCount(gdb, sessionID, models.RoleConsultant)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	if _, err := MarkRead(gdb, sessionID, models.RoleConsultant); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, _ = UnreadCount(gdb, sessionID, models.RoleConsultant)
	if count != 0 {
		t.Errorf("unread after mark = %d, want 0", count)
	}

	// Stays 0 until new activity from the other party.
	count, _ = UnreadCount(gdb, sessionID, models.RoleConsultant)
	if count != 0 {
		t.Errorf("unread re-check = %d, want 0", count)
	}

	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "three")
	count, _ = UnreadCount(gdb, sessionID, models.RoleConsultant)
	if count != 1 {
		t.Errorf("unread after new message = %d, want 1", count)
	}
}

func TestUnreadCount_PerRole(t *testing.T) {
	gdb := openMessagingTestDB(t)
	sessionID := seedSession(t, gdb, models.SessionChatting)

	mustAppend(t, gdb, sessionID, models.RoleCustomer, 1, "from customer")
	mustAppend(t, gdb, sessionID, models.RoleConsultant, 9, "from consultant")

	forConsultant, _ := UnreadCount(gdb, sessionID, models.RoleConsultant)
	forCustomer, _ := UnreadCount(gdb, sessionID, models.RoleCustomer)
	if forConsultant != 1 || forCustomer != 1 {
		t.Errorf("unread (consultant, customer) = (%d, %d), want (1, 1)", forConsultant, forCustomer)
	}

	// One role's read never consumes the other role's markers.
	if _, err := MarkRead(gdb, sessionID, models.RoleConsultant); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	forCustomer, _ = UnreadCount(gdb, sessionID, models.RoleCustomer)
	if forCustomer != 1 {
		t.Errorf("customer unread after consultant read = %d, want 1", forCustomer)
	}
}
