package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardannozami/gym-streak/internal/infra/exercisedb"
)

type ExerciseFinder interface {
	SearchByName(ctx context.Context, name string) ([]exercisedb.Exercise, error)
}

type LookupExerciseUsecase struct {
	finder ExerciseFinder
}

func NewLookupExerciseUsecase(finder ExerciseFinder) *LookupExerciseUsecase {
	return &LookupExerciseUsecase{finder: finder}
}

func (uc *LookupExerciseUsecase) Execute(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Tulis nama latihannya, contoh: #latihan squat", nil
	}

	exercises, err := uc.finder.SearchByName(ctx, query)
	if err != nil {
		return "", err
	}
	if len(exercises) == 0 {
		return fmt.Sprintf("Latihan \"%s\" tidak ditemukan 🤔", query), nil
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Hasil untuk \"%s\":\n", query))
	for i, e := range exercises {
		sb.WriteString(fmt.Sprintf("%d. %s - %s (%s, %s)\n", i+1, e.Name, e.Target, e.BodyPart, e.Equipment))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
