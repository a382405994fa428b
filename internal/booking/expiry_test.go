package booking

import (
	"testing"
	"time"
)

func pending(id int64, createdAt time.Time) Reservation {
	return Reservation{ID: id, CourtID: 1, Day: "2025-06-10", StartHour: 10, EndHour: 11, Status: StatusPending, CreatedAt: createdAt}
}

func TestFindExpiredPending(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	old := pending(1, now.Add(-61*time.Minute))
	fresh := pending(2, now.Add(-59*time.Minute))
	exactly := pending(3, now.Add(-60*time.Minute))
	malformed := pending(4, time.Time{})
	confirmed := pending(5, now.Add(-3*time.Hour))
	confirmed.Status = StatusConfirmed

	expired := FindExpiredPending([]Reservation{old, fresh, exactly, malformed, confirmed}, now, PendingTTL)

	if len(expired) != 1 {
		t.Fatalf("expected exactly one expired reservation, got %d: %v", len(expired), expired)
	}
	if expired[0].ID != 1 {
		t.Errorf("expired ID = %d, want 1", expired[0].ID)
	}
}

func TestFindExpiredPendingDefaultsThreshold(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	old := pending(1, now.Add(-2*time.Hour))

	if got := FindExpiredPending([]Reservation{old}, now, 0); len(got) != 1 {
		t.Fatalf("zero threshold should fall back to PendingTTL, got %v", got)
	}
}

func TestParseCreationTime(t *testing.T) {
	cases := []struct {
		name      string
		combined  string
		date      string
		timeOfDay string
		wantErr   bool
	}{
		{name: "rfc3339", combined: "2025-06-10T10:59:00Z"},
		{name: "space separated seconds", combined: "2025-06-10 10:59:00"},
		{name: "space separated minutes", combined: "2025-06-10 10:59"},
		{name: "t separated minutes", combined: "2025-06-10T10:59"},
		{name: "date and time pair", date: "2025-06-10", timeOfDay: "10:59"},
		{name: "date and time pair with seconds", date: "2025-06-10", timeOfDay: "10:59:30"},
		{name: "garbage combined", combined: "not-a-date", wantErr: true},
		{name: "missing everything", wantErr: true},
		{name: "date without time", date: "2025-06-10", wantErr: true},
		{name: "garbage pair", date: "June 10th", timeOfDay: "eleven", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseCreationTime(tc.combined, tc.date, tc.timeOfDay)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", parsed)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed.Hour() != 10 || parsed.Minute() != 59 {
				t.Errorf("parsed = %v, want 10:59", parsed)
			}
		})
	}
}

func TestMalformedTimestampNeverExpires(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	createdAt, err := ParseCreationTime("garbage", "", "")
	if err == nil {
		t.Fatal("expected parse failure")
	}

	r := pending(1, createdAt)
	expired := FindExpiredPending([]Reservation{r}, now, PendingTTL)
	if len(expired) != 0 {
		t.Fatalf("malformed timestamps must be excluded, got %v", expired)
	}
}
