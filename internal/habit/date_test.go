package habit

import "testing"

func TestParseFormatDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got := FormatDate(d); got != "2024-02-29" {
		t.Errorf("FormatDate = %q", got)
	}
	if _, err := ParseDate("2024-02-30"); err == nil {
		t.Error("expected error for invalid date")
	}
	if _, err := ParseDate("03/01/2024"); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestDateRangeAcrossLeapDay(t *testing.T) {
	start, _ := ParseDate("2024-02-27")
	end, _ := ParseDate("2024-03-01")
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}

	days := DateRange(start, end)
	if len(days) != len(want) {
		t.Fatalf("len = %d, want %d", len(days), len(want))
	}
	for i, d := range days {
		if FormatDate(d) != want[i] {
			t.Errorf("days[%d] = %s, want %s", i, FormatDate(d), want[i])
		}
	}
}
