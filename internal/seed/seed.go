// Package seed fills a parent's account with demo data and runs the account
// maintenance jobs behind the dev endpoints and the seed command.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dukerupert/happyloop/internal/habit"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/progress"
	"github.com/dukerupert/happyloop/internal/store"
)

// ErrParentNotFound is returned when the target parent does not exist.
var ErrParentNotFound = errors.New("parent not found")

// Options tune a seed run.
type Options struct {
	// Days is the length of the generated history ending today.
	Days int
	// RandomSeed makes runs reproducible. Zero picks a fresh seed per run.
	RandomSeed uint64
}

// KidSummary is a kid's state after a run.
type KidSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Streak int    `json:"streak"`
	Logs   int    `json:"logs"`
}

// Report describes what a run wrote.
type Report struct {
	ParentID        int64        `json:"parent_id"`
	KidsCreated     int          `json:"kids_created"`
	TasksCreated    int          `json:"tasks_created"`
	RewardsCreated  int          `json:"rewards_created"`
	LogsCleared     int64        `json:"logs_cleared,omitempty"`
	LogsWritten     int          `json:"logs_written"`
	EvidenceWritten int          `json:"evidence_written"`
	DaysFailed      int          `json:"days_failed"`
	KidsSkipped     int          `json:"kids_skipped"`
	Kids            []KidSummary `json:"kids"`
}

type Service struct {
	parents  *store.ParentStore
	kids     *store.KidStore
	tasks    *store.TaskStore
	logs     *store.TaskLogStore
	rewards  *store.RewardStore
	progress *progress.Service
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(parents *store.ParentStore, kids *store.KidStore, tasks *store.TaskStore, logs *store.TaskLogStore, rewards *store.RewardStore, prog *progress.Service, opts Options, logger *slog.Logger) *Service {
	if opts.Days <= 0 {
		opts.Days = 30
	}
	return &Service{
		parents:  parents,
		kids:     kids,
		tasks:    tasks,
		logs:     logs,
		rewards:  rewards,
		progress: prog,
		opts:     opts,
		logger:   logger.With("component", "seed"),
		now:      time.Now,
	}
}

// ParentIDByEmail resolves a parent for the command-line entry points.
func (s *Service) ParentIDByEmail(email string) (int64, error) {
	p, err := s.parents.GetByEmail(email)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, fmt.Errorf("%w: %s", ErrParentNotFound, email)
	}
	return p.ID, nil
}

func (s *Service) requireParent(parentID int64) error {
	p, err := s.parents.GetByID(parentID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: id %d", ErrParentNotFound, parentID)
	}
	return nil
}

// rng returns a fresh source for one run so concurrent runs share nothing.
func (s *Service) rng() *rand.Rand {
	seed := s.opts.RandomSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (s *Service) window() (time.Time, time.Time) {
	end := habit.Day(s.now().UTC())
	return end.AddDate(0, 0, -(s.opts.Days - 1)), end
}

// Populate creates two demo kids for a parent, assigns them the whole
// catalog and writes a generated history for each. Points and streaks are
// folded from the days that were actually written.
func (s *Service) Populate(parentID int64) (*Report, error) {
	if err := s.requireParent(parentID); err != nil {
		return nil, err
	}
	rep := &Report{ParentID: parentID}
	log := s.logger.With("parent_id", parentID, "job", "populate")

	created, err := s.SetupSampleTasks()
	if err != nil {
		return nil, err
	}
	rep.TasksCreated = created

	rep.RewardsCreated, err = s.ensureRewards()
	if err != nil {
		// rewards are decoration for the demo; carry on without them
		log.Error("ensure sample rewards", "error", err)
	}

	catalog, err := s.tasks.List()
	if err != nil {
		return nil, err
	}
	taskIDs := make([]int64, len(catalog))
	for i, t := range catalog {
		taskIDs[i] = t.ID
	}

	var kids []model.Kid
	for _, k := range demoKids {
		kid, err := s.kids.Create(parentID, k.Name, k.Age, k.Avatar)
		if err != nil {
			log.Error("create demo kid", "name", k.Name, "error", err)
			continue
		}
		kids = append(kids, *kid)
		if err := s.tasks.Assign(kid.ID, taskIDs...); err != nil {
			log.Error("assign tasks", "kid_id", kid.ID, "error", err)
		}
	}
	if len(kids) == 0 {
		return nil, errors.New("populate: no demo kids could be created")
	}
	rep.KidsCreated = len(kids)

	gen := habit.NewGenerator(habit.DefaultGeneratorConfig(), s.rng())
	start, end := s.window()
	for _, kid := range kids {
		assigned, err := s.tasks.ListForKid(kid.ID)
		if err != nil {
			log.Error("load assigned tasks", "kid_id", kid.ID, "error", err)
			rep.KidsSkipped++
			continue
		}

		var acc habit.Accumulator
		summary := KidSummary{ID: kid.ID, Name: kid.Name}
		for _, batch := range gen.Generate(kid, assigned, start, end) {
			written := s.writeDay(log, kid, batch, rep)
			if err := acc.Fold(batch.Date, written); err != nil {
				return nil, err
			}
			summary.Logs += len(written)
		}

		res := acc.Result()
		if err := s.kids.UpdateStats(kid.ID, res.Points, res.Streak); err != nil {
			log.Error("update kid stats", "kid_id", kid.ID, "error", err)
			continue
		}
		summary.Points, summary.Streak = res.Points, res.Streak
		rep.Kids = append(rep.Kids, summary)
	}

	log.Info("sample data populated",
		"kids", rep.KidsCreated,
		"logs", rep.LogsWritten,
		"evidence", rep.EvidenceWritten,
		"days_failed", rep.DaysFailed,
	)
	return rep, nil
}

// writeDay persists one batch and returns the logs that made it to the
// database. A failed day is logged and counts as inactive.
func (s *Service) writeDay(log *slog.Logger, kid model.Kid, batch habit.DayBatch, rep *Report) []model.TaskLog {
	if !batch.Active() {
		return nil
	}
	n, err := s.logs.InsertDay(batch.Completions)
	if err != nil {
		log.Error("write day", "kid_id", kid.ID, "date", habit.FormatDate(batch.Date), "error", err)
		rep.DaysFailed++
		return nil
	}
	rep.LogsWritten += n
	for _, c := range batch.Completions {
		if c.Evidence != nil {
			rep.EvidenceWritten++
		}
	}
	return batch.Logs()
}

// Reseed regenerates the recent history of a parent's existing kids, creating
// sample kids and tasks when there are none. Logs inside the window are
// cleared first; each kid is then recomputed from its full history.
func (s *Service) Reseed(parentID int64) (*Report, error) {
	if err := s.requireParent(parentID); err != nil {
		return nil, err
	}
	rep := &Report{ParentID: parentID}
	log := s.logger.With("parent_id", parentID, "job", "reseed")

	kids, err := s.kids.ListByParent(parentID)
	if err != nil {
		return nil, err
	}
	if len(kids) == 0 {
		for _, k := range legacyKids {
			kid, err := s.kids.Create(parentID, k.Name, k.Age, k.Avatar)
			if err != nil {
				return nil, err
			}
			kids = append(kids, *kid)
		}
		rep.KidsCreated = len(kids)
	}

	count, err := s.tasks.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		if rep.TasksCreated, err = s.tasks.CreateMany(legacyTasks); err != nil {
			return nil, err
		}
	}
	catalog, err := s.tasks.List()
	if err != nil {
		return nil, err
	}
	taskIDs := make([]int64, len(catalog))
	for i, t := range catalog {
		taskIDs[i] = t.ID
	}

	start, end := s.window()
	kidIDs := make([]int64, len(kids))
	for i, k := range kids {
		kidIDs[i] = k.ID
	}
	rep.LogsCleared, err = s.logs.DeleteByKidsSince(kidIDs, habit.FormatDate(start))
	if err != nil {
		// without the clear every day would collide with existing logs
		return nil, err
	}

	gen := habit.NewGenerator(habit.LightGeneratorConfig(), s.rng())
	for _, kid := range kids {
		if err := s.tasks.Assign(kid.ID, taskIDs...); err != nil {
			log.Error("assign tasks", "kid_id", kid.ID, "error", err)
		}
		summary := KidSummary{ID: kid.ID, Name: kid.Name}
		for _, batch := range gen.Generate(kid, catalog, start, end) {
			summary.Logs += len(s.writeDay(log, kid, batch, rep))
		}

		res, err := s.progress.Recompute(kid.ID)
		if err != nil {
			log.Error("recompute kid", "kid_id", kid.ID, "error", err)
			rep.KidsSkipped++
			continue
		}
		summary.Points, summary.Streak = res.Points, res.Streak
		rep.Kids = append(rep.Kids, summary)
	}

	log.Info("sample data reseeded", "kids", len(kids), "cleared", rep.LogsCleared, "logs", rep.LogsWritten)
	return rep, nil
}

// SetupSampleTasks adds SampleTasks when the catalog is empty and returns how
// many were created.
func (s *Service) SetupSampleTasks() (int, error) {
	n, err := s.tasks.Count()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	return s.tasks.CreateMany(SampleTasks)
}

func (s *Service) ensureRewards() (int, error) {
	names, err := s.rewards.Names()
	if err != nil {
		return 0, err
	}
	if len(names) > 0 {
		return 0, nil
	}
	for _, r := range SampleRewards {
		if _, err := s.rewards.Create(r.Name, r.Description, r.Image, r.PointCost, r.Available); err != nil {
			return 0, err
		}
	}
	return len(SampleRewards), nil
}

// CleanupResult lists what CleanupDuplicateKids kept and removed.
type CleanupResult struct {
	Kept    []model.Kid `json:"kept"`
	Removed []int64     `json:"removed"`
}

// CleanupDuplicateKids keeps the newest kid for each name and deletes the
// older ones together with their history.
func (s *Service) CleanupDuplicateKids(parentID int64) (*CleanupResult, error) {
	if err := s.requireParent(parentID); err != nil {
		return nil, err
	}
	kids, err := s.kids.ListByParent(parentID)
	if err != nil {
		return nil, err
	}

	res := &CleanupResult{Removed: []int64{}}
	seen := make(map[string]bool)
	// ListByParent is newest first, so the first kid per name is kept.
	for _, k := range kids {
		if seen[k.Name] {
			res.Removed = append(res.Removed, k.ID)
			continue
		}
		seen[k.Name] = true
		res.Kept = append(res.Kept, k)
	}

	if _, err := s.kids.DeleteIDs(res.Removed); err != nil {
		return nil, err
	}
	s.logger.Info("duplicate kids removed", "parent_id", parentID, "kept", len(res.Kept), "removed", len(res.Removed))
	return res, nil
}

// DeleteKids removes every kid of a parent and returns the count.
func (s *Service) DeleteKids(parentID int64) (int64, error) {
	if err := s.requireParent(parentID); err != nil {
		return 0, err
	}
	n, err := s.kids.DeleteByParent(parentID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("kids deleted", "parent_id", parentID, "count", n)
	return n, nil
}
