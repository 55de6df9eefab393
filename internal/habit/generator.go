package habit

import (
	"math/rand/v2"
	"time"

	"github.com/dukerupert/happyloop/internal/model"
)

// GeneratorConfig holds the probabilities that shape a generated history.
type GeneratorConfig struct {
	// ActiveProbability is the chance a kid does anything on a given day.
	ActiveProbability float64
	// MinTasks and MaxTasks bound how many distinct tasks an active day completes.
	MinTasks int
	MaxTasks int
	// AIValidatedProbability is the chance a completion passes the AI check.
	AIValidatedProbability float64
	// ApprovedBelow and RejectedBelow split one uniform draw for AI-validated
	// completions: below ApprovedBelow is approved, below RejectedBelow is
	// rejected, the rest stay pending.
	ApprovedBelow float64
	RejectedBelow float64
	// EvidenceProbability is the chance a non-approved completion carries a
	// placeholder photo.
	EvidenceProbability float64
	// EvidenceURL builds placeholder image URLs of the given size.
	EvidenceURL func(width, height int) string
}

// DefaultGeneratorConfig is the profile used to populate a demo account.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		ActiveProbability:      0.7,
		MinTasks:               2,
		MaxTasks:               5,
		AIValidatedProbability: 0.8,
		ApprovedBelow:          0.6,
		RejectedBelow:          0.7,
		EvidenceProbability:    0.2,
		EvidenceURL:            PlaceholderURL,
	}
}

// LightGeneratorConfig completes 1 to 4 tasks on active days.
func LightGeneratorConfig() GeneratorConfig {
	cfg := DefaultGeneratorConfig()
	cfg.MinTasks = 1
	cfg.MaxTasks = 4
	return cfg
}

// Completion is one generated task log and its optional evidence. The log
// and evidence carry no ids; they are assigned on insert.
type Completion struct {
	Log      model.TaskLog
	Evidence *model.MediaUpload
}

// DayBatch is everything generated for one kid on one calendar day. An empty
// batch is an inactive day.
type DayBatch struct {
	Date        time.Time
	Completions []Completion
}

// Active reports whether the kid completed anything that day.
func (b DayBatch) Active() bool {
	return len(b.Completions) > 0
}

// Logs returns the batch's task logs.
func (b DayBatch) Logs() []model.TaskLog {
	logs := make([]model.TaskLog, len(b.Completions))
	for i, c := range b.Completions {
		logs[i] = c.Log
	}
	return logs
}

// Generator produces plausible completion histories for demo data. It draws
// every random decision from its own source, so a seeded source yields the
// same history every time. A Generator is not safe for concurrent use.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng. A nil rng gets a PCG
// seeded from the runtime's random source.
func NewGenerator(cfg GeneratorConfig, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.EvidenceURL == nil {
		cfg.EvidenceURL = PlaceholderURL
	}
	if cfg.MinTasks < 1 {
		cfg.MinTasks = 1
	}
	if cfg.MaxTasks < cfg.MinTasks {
		cfg.MaxTasks = cfg.MinTasks
	}
	return &Generator{cfg: cfg, rng: rng}
}

// Generate returns one batch per calendar day from start through end,
// oldest first. An empty catalog yields nil.
func (g *Generator) Generate(kid model.Kid, catalog []model.Task, start, end time.Time) []DayBatch {
	if len(catalog) == 0 {
		return nil
	}
	days := DateRange(start, end)
	batches := make([]DayBatch, 0, len(days))
	for _, day := range days {
		batches = append(batches, g.generateDay(kid, catalog, day))
	}
	return batches
}

func (g *Generator) generateDay(kid model.Kid, catalog []model.Task, day time.Time) DayBatch {
	batch := DayBatch{Date: day}
	if g.rng.Float64() >= g.cfg.ActiveProbability {
		return batch
	}

	k := g.cfg.MinTasks + g.rng.IntN(g.cfg.MaxTasks-g.cfg.MinTasks+1)
	date := FormatDate(day)
	for _, task := range g.pick(catalog, k) {
		batch.Completions = append(batch.Completions, g.complete(kid, task, date))
	}
	return batch
}

// pick chooses min(k, len(catalog)) distinct tasks uniformly without
// replacement using a partial Fisher-Yates shuffle over indexes.
func (g *Generator) pick(catalog []model.Task, k int) []model.Task {
	if k > len(catalog) {
		k = len(catalog)
	}
	idx := make([]int, len(catalog))
	for i := range idx {
		idx[i] = i
	}
	picked := make([]model.Task, k)
	for i := 0; i < k; i++ {
		j := i + g.rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		picked[i] = catalog[idx[i]]
	}
	return picked
}

func (g *Generator) complete(kid model.Kid, task model.Task, date string) Completion {
	aiValidated := g.rng.Float64() < g.cfg.AIValidatedProbability
	var approved *bool
	if aiValidated {
		switch u := g.rng.Float64(); {
		case u < g.cfg.ApprovedBelow:
			approved = model.BoolPtr(true)
		case u < g.cfg.RejectedBelow:
			approved = model.BoolPtr(false)
		}
	}

	c := Completion{Log: model.TaskLog{
		KidID:          kid.ID,
		TaskID:         task.ID,
		Date:           date,
		AIValidated:    aiValidated,
		ParentApproved: approved,
	}}
	if c.Log.Approved() {
		c.Log.PointsAwarded = task.Points
		return c
	}

	if g.rng.Float64() < g.cfg.EvidenceProbability {
		c.Evidence = &model.MediaUpload{
			StoragePath:   g.cfg.EvidenceURL(300, 200),
			Type:          model.MediaImage,
			ThumbnailPath: g.cfg.EvidenceURL(100, 100),
		}
	}
	return c
}
