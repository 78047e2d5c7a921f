// Package seed fills a database with a demo account and activities.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/zenplan-api/internal/application"
	"github.com/oksasatya/zenplan-api/internal/domain/entity"
)

// Options controls what Run creates.
type Options struct {
	Name       string
	Email      string
	Password   string
	Activities int
	Seed       int64 // 0 picks a time based seed
}

func DefaultOptions() Options {
	return Options{Name: "Demo User", Email: "demo@zenplan.app", Password: "password123", Activities: 12}
}

var titles = map[entity.Category][]string{
	entity.CategoryNutrition:         {"Cook a vegetable soup", "Prepare lunch boxes", "Try a new fruit"},
	entity.CategorySelfcare:          {"Read before bed", "Take a long bath", "Skin care routine"},
	entity.CategoryExercise:          {"Walk", "Morning run", "Yoga session", "Cycle to work"},
	entity.CategoryHobbies:           {"Practice guitar", "Sketch for 20 minutes", "Water the plants"},
	entity.CategoryStressManagement:  {"Breathing exercise", "Ten minute meditation", "Journal"},
	entity.CategoryMedicalCheckups:   {"Dentist appointment", "Annual blood test", "Eye exam"},
	entity.CategoryHydration:         {"Drink 2 liters of water", "Refill water bottle"},
	entity.CategoryHealth:            {"Sleep before 11pm", "Take vitamins"},
	entity.CategoryEmotionalWellness: {"Gratitude list", "Call a friend"},
	entity.CategorySocialWellness:    {"Family dinner", "Join a club meetup"},
}

// Result reports what Run created.
type Result struct {
	UserID     string
	Created    int
	Completed  int
	NewAccount bool
}

// Run registers the demo account (or reuses it) and adds random activities.
func Run(ctx context.Context, users *application.UserService, lists *application.ListService, opts Options, logger *logrus.Logger) (Result, error) {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(opts.Seed)

	var res Result
	u, err := users.Register(ctx, application.RegisterInput{Name: opts.Name, Email: opts.Email, Password: opts.Password})
	switch {
	case err == nil:
		res.NewAccount = true
	case errors.Is(err, application.ErrEmailTaken):
		if u, err = users.Authenticate(ctx, opts.Email, opts.Password); err != nil {
			return res, fmt.Errorf("demo account exists with another password: %w", err)
		}
	default:
		return res, fmt.Errorf("register demo account: %w", err)
	}
	res.UserID = u.ID

	categories := entity.Categories()
	now := time.Now().UTC()
	for i := 0; i < opts.Activities; i++ {
		c := categories[faker.Number(0, len(categories)-1)]
		options := titles[c]
		at := faker.DateRange(now.Add(-72*time.Hour), now.Add(14*24*time.Hour)).UTC().Truncate(time.Minute)

		a, err := lists.Create(ctx, u.ID, application.CreateActivityInput{
			Title:       options[faker.Number(0, len(options)-1)],
			Category:    c.String(),
			Time:        at.Format(time.RFC3339),
			Description: faker.Sentence(8),
			Note:        faker.Sentence(4),
		})
		if err != nil {
			return res, fmt.Errorf("create activity %d: %w", i, err)
		}
		res.Created++

		if at.Before(now) && faker.Bool() {
			if _, err := lists.Toggle(ctx, u.ID, a.ID); err != nil {
				return res, fmt.Errorf("complete activity %s: %w", a.ID, err)
			}
			res.Completed++
		}
	}
	if logger != nil {
		logger.WithFields(logrus.Fields{"user_id": res.UserID, "created": res.Created, "completed": res.Completed}).Info("seed finished")
	}
	return res, nil
}
