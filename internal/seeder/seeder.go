package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"charsheet/internal/attributes"
	"charsheet/internal/profiles"
)

var sampleNames = []string{
	"Ana", "Caio", "Beatriz", "Davi", "Helena", "Rafael", "Luiza", "Tomás",
}

var sampleInfo = []string{
	"Investigadora ocultista",
	"Ex-policial atormentado",
	"Médica de plantão",
	"Bardo errante",
	"",
}

// Seeder fills the profile store with sample characters for demos and
// manual testing.
type Seeder struct {
	Profiles     *profiles.Store
	Logger       *slog.Logger
	ProfileCount int

	rng *rand.Rand
}

// NewSeeder creates a new seeder instance
func NewSeeder(store *profiles.Store, logger *slog.Logger, profileCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		Profiles:     store,
		Logger:       logger,
		ProfileCount: profileCount,
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// WithSeed makes the generated data reproducible.
func (s *Seeder) WithSeed(seed uint64) *Seeder {
	s.rng = rand.New(rand.NewPCG(seed, seed))
	return s
}

// Run creates the sample profiles, gives every player a rolled sheet and
// waits for everything to be written.
func (s *Seeder) Run(ctx context.Context) ([]profiles.Profile, error) {
	start := time.Now()
	s.Logger.Info("Seeding profiles...", slog.Int("profileCount", s.ProfileCount))

	created := make([]profiles.Profile, 0, s.ProfileCount)
	for i := 0; i < s.ProfileCount; i++ {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		typ := profiles.TypePlayer
		if i%4 == 3 {
			typ = profiles.TypeGameMaster
		}
		name := sampleNames[i%len(sampleNames)]
		info := sampleInfo[s.rng.IntN(len(sampleInfo))]

		profile, err := s.Profiles.CreateProfile(ctx, name, typ, info)
		if err != nil {
			return created, fmt.Errorf("failed to create profile %s: %w", name, err)
		}
		created = append(created, profile)

		if typ == profiles.TypePlayer {
			if err := s.rollSheet(ctx, profile); err != nil {
				return created, err
			}
		}
	}

	if err := s.Profiles.Flush(ctx); err != nil {
		return created, fmt.Errorf("failed to persist seeded profiles: %w", err)
	}

	s.Logger.Info("Seeding completed successfully",
		slog.Int("profiles", len(created)),
		slog.Duration("elapsed", time.Since(start)))
	return created, nil
}

// rollSheet fills every attribute with a 2d6 roll.
func (s *Seeder) rollSheet(ctx context.Context, profile profiles.Profile) error {
	session, err := s.Profiles.SelectProfile(ctx, profile.ID)
	if err != nil {
		return err
	}
	for i := 0; i < attributes.Size; i++ {
		roll := 2 + s.rng.IntN(6) + s.rng.IntN(6)
		if _, err := session.SetCell(i, strconv.Itoa(roll)); err != nil {
			return errors.Join(fmt.Errorf("failed to roll attribute %d for %s", i, profile.Name), err)
		}
	}
	return session.Logout(ctx)
}
