package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/overlap"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/postgres/postgrestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis(name string, at time.Time) *analysis.Analysis {
	return &analysis.Analysis{
		ID:         uuid.NewString(),
		CreatedAt:  at.UTC().Truncate(time.Microsecond),
		ResumeName: name,
		Original: overlap.Result{
			Score:   50,
			Matched: []string{"funnel", "growth", "optimization"},
			Missing: []string{"need", "skills", "strong"},
		},
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Now()
	first := sampleAnalysis("first.pdf", base)
	second := sampleAnalysis("second.pdf", base.Add(time.Second))
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ResumeName, got.ResumeName)
	assert.Equal(t, first.Original, got.Original)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrAnalysisNotFound)

	list, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory(10))
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	var ids []string
	for i := 0; i < 3; i++ {
		a := sampleAnalysis(fmt.Sprintf("r%d", i), time.Now())
		ids = append(ids, a.ID)
		require.NoError(t, m.Save(ctx, a))
	}
	_, err := m.Get(ctx, ids[0])
	assert.ErrorIs(t, err, apperrors.ErrAnalysisNotFound)

	list, err := m.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
}

func TestPostgresStore(t *testing.T) {
	p := NewPostgres(postgrestest.Client(t))
	require.NoError(t, p.Migrate(context.Background()))
	exerciseStore(t, p)

	_, err := p.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrAnalysisNotFound)
	err = p.Save(context.Background(), &analysis.Analysis{ID: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
