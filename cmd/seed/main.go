// Command seed resets the store and loads demo data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"thoughtnet/internal/bootstrap"
	"thoughtnet/internal/config"
	"thoughtnet/internal/seed"
)

func main() {
	file := flag.String("file", "", "YAML fixture to load instead of the built-in demo network")
	fake := flag.Int("fake", 0, "Number of random users to add after the fixture")
	fakeSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for -fake")
	clean := flag.Bool("clean", true, "Delete all users and thoughts before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			log.Printf("Close failed: %v", err)
		}
	}()

	fixture, err := seed.DefaultFixture()
	if *file != "" {
		fixture, err = seed.LoadFixture(*file)
	}
	if err != nil {
		log.Fatalf("Failed to read fixture: %v", err)
	}

	s := seed.NewSeeder(rt.Store.Users, rt.Store.Thoughts)
	if *clean {
		if err := s.Wipe(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	res, err := s.Load(ctx, fixture)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d thoughts, %d reactions, %d friendships",
		res.Users, res.Thoughts, res.Reactions, res.Friendships)

	if *fake > 0 {
		res, err := s.Load(ctx, seed.Fake(*fake, *fakeSeed))
		if err != nil {
			log.Fatalf("Fake seeding failed: %v", err)
		}
		log.Printf("Added %d random users with %d thoughts", res.Users, res.Thoughts)
	}
}
