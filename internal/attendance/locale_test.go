package attendance

import (
	"testing"
	"time"
)

func TestLocaleFormatting(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	instant := time.Date(2024, time.May, 1, 20, 15, 5, 0, time.UTC)

	tests := []struct {
		name string
		loc  *time.Location
		date string
		want string
	}{
		{"en-US", nil, "2024-05-01", "5/1/2024 8:15:05 PM"},
		{"en-GB", nil, "2024-05-01", "01/05/2024 20:15:05"},
		{"en-IN", ist, "2024-05-02", "2/5/2024 1:45:05 am"},
		{"ja", nil, "2024-05-01", "2024/5/1 20:15:05"},
		{"sw", nil, "2024-05-01", "5/1/2024 8:15:05 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLocale(tt.name, tt.loc)
			if err != nil {
				t.Fatal(err)
			}
			if got := l.FormatTimestamp(instant); got != tt.want {
				t.Errorf("FormatTimestamp = %q, want %q", got, tt.want)
			}
			if got := l.Date(instant); got != tt.date {
				t.Errorf("Date = %q, want %q", got, tt.date)
			}
		})
	}
}

func TestNewLocaleRejectsGarbage(t *testing.T) {
	if _, err := NewLocale("not a tag!", nil); err == nil {
		t.Fatal("expected parse error")
	}
}
