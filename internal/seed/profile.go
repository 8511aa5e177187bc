package seed

import (
	"math/rand"
	"strings"

	"putevoditel/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

func randomProfile(r *rand.Rand) models.Profile {
	score := func() *int {
		if r.Intn(5) == 0 {
			return nil
		}
		v := models.MinScore + r.Intn(models.MaxScore-models.MinScore+1)
		return &v
	}
	p := models.Profile{
		Telephone:        "+7999" + gofakeit.Numerify("#######"),
		Communication:    score(),
		IdeaGeneration:   score(),
		Organisation:     score(),
		Creativity:       score(),
		ResourceSearch:   score(),
		Achievement:      score(),
		CriticalThinking: score(),
		Leadership:       score(),
		WantToFindOut:    gofakeit.Sentence(8),
		WantToLearn:      gofakeit.Sentence(8),
		WantToGet:        gofakeit.Sentence(8),
		Introvert:        gofakeit.Bool(),
		Individualist:    gofakeit.Bool(),
		Optimist:         gofakeit.Bool(),
		Serious:          gofakeit.Bool(),
		Organized:        gofakeit.Bool(),
		Leader:           gofakeit.Bool(),
		WhoAmIExtra1:     clip(gofakeit.JobTitle(), 50),
		WhatIWant1:       clip(gofakeit.HipsterSentence(5), 100),
		WhatIWant2:       clip(gofakeit.HipsterSentence(5), 100),
	}
	return p
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}

// normalizeEmail lowercases the address; fake names may carry capitals.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
