package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geargrade/geargrade-backend/internal/domain/planner"
)

func TestGetProjection_EmptyPlannerMatchesBase(t *testing.T) {
	store := newPopulatedStore(t)
	p := planner.NewPlanner(planner.Params{Base: store})
	overview := NewGetOverviewHandler(store, nil, nil)
	h := NewGetProjectionHandler(p, store, overview)

	result, err := h.Handle(context.Background(), GetProjectionQuery{})
	require.NoError(t, err)

	assert.Equal(t, result.BaseCGPA, result.ProjectedCGPA, "пустой планировщик - тождество")
	assert.Zero(t, result.Delta)
	assert.Empty(t, result.Hypothetical)
}

func TestGetProjection_WithHypotheticalSemester(t *testing.T) {
	store := newPopulatedStore(t)
	n := 0
	p := planner.NewPlanner(planner.Params{
		Base:  store,
		NewID: func() string { n++; return fmt.Sprintf("hyp-%d", n) },
	})
	sem := p.AddSemester()

	overview := NewGetOverviewHandler(store, nil, nil)
	h := NewGetProjectionHandler(p, store, overview)

	result, err := h.Handle(context.Background(), GetProjectionQuery{IncludeCourses: true})
	require.NoError(t, err)

	assert.Greater(t, result.ProjectedCGPA, result.BaseCGPA,
		"высшая оценка в гипотетическом семестре поднимает прогноз")
	assert.InDelta(t, result.ProjectedCGPA-result.BaseCGPA, result.Delta, 1e-9)

	require.Len(t, result.Hypothetical, 1)
	assert.Equal(t, sem.ID, result.Hypothetical[0].ID)
	assert.Equal(t, "Future Semester 1", result.Hypothetical[0].Name)
	require.Len(t, result.Hypothetical[0].Courses, 1)
	assert.Equal(t, "S", result.Hypothetical[0].Courses[0].Grade)
}
