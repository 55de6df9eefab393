package habit

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/dukerupert/happyloop/internal/model"
)

func day(n int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n-1)
}

func approvedLog(date time.Time, points int) model.TaskLog {
	return model.TaskLog{Date: FormatDate(date), ParentApproved: model.BoolPtr(true), PointsAwarded: points}
}

func pendingLog(date time.Time) model.TaskLog {
	return model.TaskLog{Date: FormatDate(date)}
}

// foldDays folds day 1..len(active); active[i] marks day i+1 active with one
// approved 10-point log.
func foldDays(t *testing.T, active ...bool) Result {
	t.Helper()
	var acc Accumulator
	for i, a := range active {
		d := day(i + 1)
		var logs []model.TaskLog
		if a {
			logs = []model.TaskLog{approvedLog(d, 10)}
		}
		if err := acc.Fold(d, logs); err != nil {
			t.Fatalf("fold day %d: %v", i+1, err)
		}
	}
	return acc.Result()
}

func TestAccumulatorEmpty(t *testing.T) {
	var acc Accumulator
	if got := acc.Result(); got != (Result{}) {
		t.Errorf("result = %+v, want zero", got)
	}
}

func TestAccumulatorSingleActiveDay(t *testing.T) {
	got := foldDays(t, true)
	if got.Streak != 1 {
		t.Errorf("streak = %d, want 1", got.Streak)
	}
	if got.Points != 10 {
		t.Errorf("points = %d, want 10", got.Points)
	}
}

func TestAccumulatorStreakScenarios(t *testing.T) {
	tests := []struct {
		name   string
		active []bool
		want   int
	}{
		{"three consecutive days", []bool{true, true, true}, 3},
		{"inactive day between resets on return", []bool{true, false, true}, 1},
		{"single missed day holds streak", []bool{true, true, false}, 2},
		{"second missed day breaks streak", []bool{true, true, false, false}, 0},
		{"resume after break counts today", []bool{true, false, false, true, true}, 2},
		{"only inactive days", []bool{false, false, false}, 0},
		{"leading inactive days", []bool{false, false, true, true}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := foldDays(t, tt.active...)
			if got.Streak != tt.want {
				t.Errorf("streak = %d, want %d", got.Streak, tt.want)
			}
		})
	}
}

func TestAccumulatorSkippedDayWithoutRecord(t *testing.T) {
	var acc Accumulator
	if err := acc.Fold(day(1), []model.TaskLog{approvedLog(day(1), 5)}); err != nil {
		t.Fatal(err)
	}
	// day 2 is never folded at all
	if err := acc.Fold(day(3), []model.TaskLog{approvedLog(day(3), 5)}); err != nil {
		t.Fatal(err)
	}
	if got := acc.Result().Streak; got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestAccumulatorSameDayTwice(t *testing.T) {
	var acc Accumulator
	acc.Fold(day(1), []model.TaskLog{approvedLog(day(1), 5)})
	acc.Fold(day(2), []model.TaskLog{approvedLog(day(2), 5)})
	if err := acc.Fold(day(2), []model.TaskLog{approvedLog(day(2), 5)}); err != nil {
		t.Fatalf("refolding same day: %v", err)
	}
	got := acc.Result()
	if got.Streak != 2 {
		t.Errorf("streak = %d, want 2", got.Streak)
	}
	if got.Points != 15 {
		t.Errorf("points = %d, want 15", got.Points)
	}
}

func TestAccumulatorRejectedEarnsNothing(t *testing.T) {
	var acc Accumulator
	rejected := model.TaskLog{Date: FormatDate(day(1)), ParentApproved: model.BoolPtr(false), PointsAwarded: 50}
	if err := acc.Fold(day(1), []model.TaskLog{rejected, pendingLog(day(1))}); err != nil {
		t.Fatal(err)
	}
	got := acc.Result()
	if got.Points != 0 {
		t.Errorf("points = %d, want 0", got.Points)
	}
	// rejected and pending completions still make the day active
	if got.Streak != 1 {
		t.Errorf("streak = %d, want 1", got.Streak)
	}
}

func TestAccumulatorOutOfOrder(t *testing.T) {
	var acc Accumulator
	acc.Fold(day(3), []model.TaskLog{approvedLog(day(3), 10)})
	before := acc.Result()

	err := acc.Fold(day(2), []model.TaskLog{approvedLog(day(2), 10)})
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("err = %v, want ErrOutOfOrder", err)
	}
	if acc.Result() != before {
		t.Errorf("state changed after rejected fold: %+v", acc.Result())
	}
}

func TestAccumulatorPointsMatchSum(t *testing.T) {
	catalog := sampleCatalog(6)
	for seed := uint64(1); seed <= 20; seed++ {
		g := NewGenerator(DefaultGeneratorConfig(), rand.New(rand.NewPCG(seed, seed*7)))
		batches := g.Generate(model.Kid{ID: 1}, catalog, day(1), day(60))

		want := 0
		var acc Accumulator
		for _, b := range batches {
			for _, c := range b.Completions {
				want += c.Log.PointsAwarded
			}
			if err := acc.FoldBatch(b); err != nil {
				t.Fatalf("seed %d: fold: %v", seed, err)
			}
		}
		if got := acc.Result().Points; got != want {
			t.Errorf("seed %d: points = %d, want %d", seed, got, want)
		}
	}
}

func TestAccumulatorStreakIgnoresPoints(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), rand.New(rand.NewPCG(11, 12)))
	batches := g.Generate(model.Kid{ID: 1}, sampleCatalog(5), day(1), day(45))

	var a, b Accumulator
	for _, batch := range batches {
		a.FoldBatch(batch)
		// same activity pattern, different tasks and no points
		var flat []model.TaskLog
		for range batch.Completions {
			flat = append(flat, pendingLog(batch.Date))
		}
		b.Fold(batch.Date, flat)
	}
	if a.Result().Streak != b.Result().Streak {
		t.Errorf("streak differs: %d vs %d", a.Result().Streak, b.Result().Streak)
	}
	if b.Result().Points != 0 {
		t.Errorf("pending-only points = %d, want 0", b.Result().Points)
	}
}

func TestRecomputeEmpty(t *testing.T) {
	got, err := Recompute(nil, day(10))
	if err != nil {
		t.Fatal(err)
	}
	if got != (Result{}) {
		t.Errorf("result = %+v, want zero", got)
	}
}

func TestRecomputeUnorderedHistory(t *testing.T) {
	logs := []model.TaskLog{
		approvedLog(day(3), 5),
		approvedLog(day(1), 10),
		pendingLog(day(2)),
		approvedLog(day(3), 20),
	}
	got, err := Recompute(logs, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Points != 35 {
		t.Errorf("points = %d, want 35", got.Points)
	}
	if got.Streak != 3 {
		t.Errorf("streak = %d, want 3", got.Streak)
	}
}

func TestRecomputeThroughAsOf(t *testing.T) {
	logs := []model.TaskLog{approvedLog(day(1), 10), approvedLog(day(2), 10)}

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"same day as last log", day(2), 2},
		{"one day later holds", day(3), 2},
		{"two days later breaks", day(4), 0},
		{"asOf before history is ignored", day(1), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Recompute(logs, tt.asOf)
			if err != nil {
				t.Fatal(err)
			}
			if got.Streak != tt.want {
				t.Errorf("streak = %d, want %d", got.Streak, tt.want)
			}
			if got.Points != 20 {
				t.Errorf("points = %d, want 20", got.Points)
			}
		})
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), rand.New(rand.NewPCG(3, 4)))
	var logs []model.TaskLog
	for _, b := range g.Generate(model.Kid{ID: 1}, sampleCatalog(8), day(1), day(30)) {
		logs = append(logs, b.Logs()...)
	}
	first, err := Recompute(logs, day(30))
	if err != nil {
		t.Fatal(err)
	}
	second, err := Recompute(logs, day(30))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("recompute not idempotent: %+v vs %+v", first, second)
	}
}

func TestRecomputeMatchesFold(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), rand.New(rand.NewPCG(5, 6)))
	batches := g.Generate(model.Kid{ID: 1}, sampleCatalog(4), day(1), day(30))

	var acc Accumulator
	var logs []model.TaskLog
	for _, b := range batches {
		acc.FoldBatch(b)
		logs = append(logs, b.Logs()...)
	}
	got, err := Recompute(logs, day(30))
	if err != nil {
		t.Fatal(err)
	}
	if got != acc.Result() {
		t.Errorf("recompute = %+v, fold = %+v", got, acc.Result())
	}
}

func TestRecomputeBadDate(t *testing.T) {
	_, err := Recompute([]model.TaskLog{{ID: 9, Date: "03/01/2026"}}, time.Time{})
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestDaysBetween(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}
	// spans the March DST change
	a := time.Date(2026, 3, 7, 23, 30, 0, 0, ny)
	b := time.Date(2026, 3, 9, 0, 15, 0, 0, ny)
	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("DaysBetween = %d, want 2", got)
	}
	if got := DaysBetween(day(5), day(2)); got != -3 {
		t.Errorf("DaysBetween backwards = %d, want -3", got)
	}
}
