package sync

import (
	"testing"
	"time"
)

func TestNextCronRunIsStrictlyLater(t *testing.T) {
	t.Parallel()
	exprs := []string{
		"* * * * *",
		"*/5 * * * *",
		"0 * * * *",
		"0 */6 * * *",
		"30 9 * * *",
		"0 0 1 * *",
		"15,45 8,20 * * *",
	}

	from := time.Date(2025, 3, 14, 10, 27, 42, 0, time.UTC)
	for _, expr := range exprs {
		expr := expr
		t.Run(expr, func(t *testing.T) {
			next, err := NextCronRun(expr, from)
			if err != nil {
				t.Fatalf("NextCronRun(%q) error: %v", expr, err)
			}
			if !next.After(from) {
				t.Fatalf("next run %v is not after %v", next, from)
			}
		})
	}
}

func TestNextCronRunEverySixHours(t *testing.T) {
	t.Parallel()
	from := time.Date(2025, 3, 14, 10, 27, 0, 0, time.UTC)

	next, err := NextCronRun("0 */6 * * *", from)
	if err != nil {
		t.Fatalf("NextCronRun error: %v", err)
	}
	switch next.Hour() {
	case 0, 6, 12, 18:
	default:
		t.Fatalf("hour = %d, want one of 0,6,12,18", next.Hour())
	}
	if next.Minute() != 0 {
		t.Fatalf("minute = %d, want 0", next.Minute())
	}
	if !next.Equal(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("next = %v, want 12:00", next)
	}
}

func TestNextCronRunCommaList(t *testing.T) {
	t.Parallel()
	from := time.Date(2025, 3, 14, 10, 20, 0, 0, time.UTC)

	next, err := NextCronRun("15,45 * * * *", from)
	if err != nil {
		t.Fatalf("NextCronRun error: %v", err)
	}
	if next.Minute() != 45 || next.Hour() != 10 {
		t.Fatalf("next = %v, want 10:45", next)
	}
}

// The day-of-week field is range-checked but does not constrain the result.
func TestNextCronRunIgnoresDayOfWeek(t *testing.T) {
	t.Parallel()
	// 2025-03-14 is a Friday; the expression asks for Sunday.
	from := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	next, err := NextCronRun("30 11 * * 0", from)
	if err != nil {
		t.Fatalf("NextCronRun error: %v", err)
	}
	want := time.Date(2025, 3, 14, 11, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v (same day, weekday not filtered)", next, want)
	}
}

func TestNextCronRunFallback(t *testing.T) {
	t.Parallel()
	// February 31st never matches; the bounded search gives up after a week
	// and falls back to from+24h.
	from := time.Date(2025, 3, 14, 10, 27, 0, 0, time.UTC)

	next, err := NextCronRun("0 0 31 2 *", from)
	if err != nil {
		t.Fatalf("NextCronRun error: %v", err)
	}
	if !next.Equal(from.Add(24 * time.Hour)) {
		t.Fatalf("next = %v, want fallback %v", next, from.Add(24*time.Hour))
	}
}

func TestValidateCronExpression(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "every minute", expr: "* * * * *"},
		{name: "step", expr: "*/15 * * * *"},
		{name: "comma list", expr: "0,30 9,17 * * *"},
		{name: "single values", expr: "30 9 1 6 5"},
		{name: "too few fields", expr: "* * * *", wantErr: true},
		{name: "too many fields", expr: "* * * * * *", wantErr: true},
		{name: "minute out of range", expr: "60 * * * *", wantErr: true},
		{name: "hour out of range", expr: "0 24 * * *", wantErr: true},
		{name: "day out of range", expr: "0 0 32 * *", wantErr: true},
		{name: "month out of range", expr: "0 0 * 13 *", wantErr: true},
		{name: "weekday out of range", expr: "0 0 * * 7", wantErr: true},
		{name: "garbage field", expr: "abc * * * *", wantErr: true},
		{name: "zero step", expr: "*/0 * * * *", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCronExpression(tt.expr)
			if tt.wantErr && err == nil {
				t.Fatalf("ValidateCronExpression(%q) = nil, want error", tt.expr)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ValidateCronExpression(%q) error: %v", tt.expr, err)
			}
		})
	}
}

func TestValidateCronExpressionReturnsValidationError(t *testing.T) {
	t.Parallel()
	err := ValidateCronExpression("99 * * * *")
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestDescribeCronExpression(t *testing.T) {
	t.Parallel()
	if got := DescribeCronExpression("0 */6 * * *"); got != "Every 6 hours" {
		t.Fatalf("describe = %q", got)
	}
	if got := DescribeCronExpression("30 9 15 6 *"); got != "At minute 30 past hour 9 on day 15 in month 6" {
		t.Fatalf("describe = %q", got)
	}
}
