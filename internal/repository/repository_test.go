package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"airg/internal/db/dbtest"
	"airg/internal/models"
	"airg/internal/repository"
)

func strPtr(s string) *string { return &s }

func seedProjects(t *testing.T, gdb *gorm.DB, names ...string) (models.Organization, []models.Project) {
	t.Helper()
	org := models.Organization{Name: "Lab", Slug: "lab"}
	require.NoError(t, gdb.Create(&org).Error)

	var projects []models.Project
	for _, name := range names {
		p := models.Project{Name: name, OrganizationID: org.ID}
		require.NoError(t, gdb.Create(&p).Error)
		projects = append(projects, p)
	}
	return org, projects
}

func TestRepositoryCRUD(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	projects := repository.New[models.Project](gdb)
	org, _ := seedProjects(t, gdb)

	p := models.Project{Name: "Survey", OrganizationID: org.ID}
	require.NoError(t, projects.Create(ctx, &p))
	require.Len(t, p.ID, 36)

	got, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Survey", got.Name)

	got.Name = "Systematic survey"
	require.NoError(t, projects.Save(ctx, got))

	one, err := projects.FindOne(ctx, repository.Filter{Where: map[string]any{"organization_id": org.ID}})
	require.NoError(t, err)
	require.Equal(t, "Systematic survey", one.Name)

	require.NoError(t, projects.Delete(ctx, one))
	_, err = projects.FindByID(ctx, p.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, projects.Delete(ctx, one), repository.ErrNotFound)
}

func TestRepositoryFindOneNotFound(t *testing.T) {
	gdb := dbtest.New(t)
	_, err := repository.New[models.Project](gdb).FindOne(context.Background(), repository.Filter{
		Where: map[string]any{"organization_id": "nope"},
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRepositoryDuplicate(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	docs := repository.New[models.Document](gdb)
	_, ps := seedProjects(t, gdb, "one", "two")

	require.NoError(t, docs.Create(ctx, &models.Document{ProjectID: ps[0].ID, Hash: "h1", Status: models.DocumentUploaded}))

	err := docs.Create(ctx, &models.Document{ProjectID: ps[1].ID, Hash: "h1", Status: models.DocumentUploaded})
	require.ErrorIs(t, err, repository.ErrDuplicate)
	require.True(t, repository.IsUniqueViolation(err))
	require.False(t, repository.IsUniqueViolation(errors.New("connection reset")))
}

func TestRepositoryFindByFilter(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	docs := repository.New[models.Document](gdb)
	_, ps := seedProjects(t, gdb, "one", "two")

	for i, title := range []string{"Graph Neural Networks", "Protein folding", "Neural scaling laws", "Other project"} {
		project := ps[0].ID
		if i == 3 {
			project = ps[1].ID
		}
		require.NoError(t, docs.Create(ctx, &models.Document{
			ProjectID: project,
			Hash:      title,
			Title:     strPtr(title),
			Status:    models.DocumentUploaded,
		}))
	}

	rows, err := docs.FindByFilter(ctx, repository.Filter{
		Where: map[string]any{"project_id": ps[0].ID},
		Order: "title ASC",
		Scopes: []func(*gorm.DB) *gorm.DB{func(tx *gorm.DB) *gorm.DB {
			return tx.Where("LOWER(title) LIKE ?", "%neural%")
		}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Graph Neural Networks", *rows[0].Title)
	require.Equal(t, "Neural scaling laws", *rows[1].Title)

	rows, err = docs.FindByFilter(ctx, repository.Filter{Where: map[string]any{"project_id": ps[0].ID}, Limit: 1, Offset: 1, Order: "title ASC"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Neural scaling laws", *rows[0].Title)
}
