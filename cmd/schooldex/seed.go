package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/schooldex/internal/domain/school"
	schoolrepo "github.com/kailas-cloud/schooldex/internal/repository/school"
	queryuc "github.com/kailas-cloud/schooldex/internal/usecase/query"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load schools, ratings and searches from a YAML fixture",
	Long: `Load a YAML fixture into the entity store. Schools are upserted by id;
records without an id get a generated one. After a successful load every
cached result tagged "schools" is dropped from the configured cache.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

// fixture is the seed file layout.
type fixture struct {
	Schools  []school.School `yaml:"schools"`
	Ratings  []ratingRow     `yaml:"ratings"`
	Searches []searchRow     `yaml:"searches"`
}

type ratingRow struct {
	SchoolID string    `yaml:"school_id"`
	Value    int       `yaml:"value"`
	At       time.Time `yaml:"at"`
}

type searchRow struct {
	Query       string    `yaml:"query"`
	ResultCount int       `yaml:"result_count"`
	At          time.Time `yaml:"at"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fx, err := loadFixture(args[0], time.Now())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openStore(ctx, cfg.Database, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	repo := schoolrepo.New(store, nil)
	if err := repo.Upsert(ctx, fx.Schools); err != nil {
		return fmt.Errorf("seed schools: %w", err)
	}
	if err := repo.AddRatings(ctx, fx.ratings()); err != nil {
		return fmt.Errorf("seed ratings: %w", err)
	}
	if err := repo.RecordSearches(ctx, fx.searches()); err != nil {
		return fmt.Errorf("seed searches: %w", err)
	}

	logger.Info("Seed loaded",
		zap.String("file", args[0]),
		zap.Int("schools", len(fx.Schools)),
		zap.Int("ratings", len(fx.Ratings)),
		zap.Int("searches", len(fx.Searches)),
	)

	c, _, closeCache, err := buildCache(ctx, cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("open cache for invalidation: %w", err)
	}
	defer closeCache()
	return invalidateSeeded(ctx, c, logger)
}

// tagInvalidator is the slice of the result cache seeding needs.
type tagInvalidator interface {
	InvalidateByTag(ctx context.Context, tag string) (int, error)
}

// invalidateSeeded drops every cached result derived from the school set.
func invalidateSeeded(ctx context.Context, c tagInvalidator, logger *zap.Logger) error {
	n, err := c.InvalidateByTag(ctx, queryuc.TagSchools)
	if err != nil {
		return fmt.Errorf("invalidate cached results: %w", err)
	}
	logger.Info("Cache invalidated", zap.String("tag", queryuc.TagSchools), zap.Int("keys", n))
	return nil
}

// loadFixture parses and validates a seed file. Missing ids, statuses and
// timestamps are filled in.
func loadFixture(path string, now time.Time) (fixture, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fixture{}, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fixture{}, fmt.Errorf("parse fixture: %w", err)
	}

	ids := make(map[string]struct{}, len(fx.Schools))
	for i := range fx.Schools {
		s := &fx.Schools[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.Status == "" {
			s.Status = school.Active
		}
		if err := s.Validate(now); err != nil {
			return fixture{}, fmt.Errorf("school %d (%s): %w", i, s.ID, err)
		}
		ids[s.ID] = struct{}{}
	}

	for i := range fx.Ratings {
		r := &fx.Ratings[i]
		if r.Value < 1 || r.Value > 5 {
			return fixture{}, fmt.Errorf("rating %d: value must be within [1, 5], got %d", i, r.Value)
		}
		if _, ok := ids[r.SchoolID]; !ok {
			return fixture{}, fmt.Errorf("rating %d: unknown school %q", i, r.SchoolID)
		}
		if r.At.IsZero() {
			r.At = now
		}
	}

	for i := range fx.Searches {
		s := &fx.Searches[i]
		if s.Query == "" {
			return fixture{}, fmt.Errorf("search %d: query is required", i)
		}
		if s.At.IsZero() {
			s.At = now
		}
	}
	return fx, nil
}

func (fx fixture) ratings() []schoolrepo.Rating {
	out := make([]schoolrepo.Rating, 0, len(fx.Ratings))
	for _, r := range fx.Ratings {
		out = append(out, schoolrepo.Rating{ID: uuid.NewString(), SchoolID: r.SchoolID, Value: r.Value, At: r.At})
	}
	return out
}

func (fx fixture) searches() []schoolrepo.Search {
	out := make([]schoolrepo.Search, 0, len(fx.Searches))
	for _, s := range fx.Searches {
		out = append(out, schoolrepo.Search{ID: uuid.NewString(), Query: s.Query, ResultCount: s.ResultCount, At: s.At})
	}
	return out
}
