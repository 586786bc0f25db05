package services

import (
	"testing"

	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationService_CreateAndList(t *testing.T) {
	e := newEnv(t)
	svc := NewOrganizationService(e.orgRepo)

	holding, err := svc.CreateOrganization(CreateOrganizationInput{Name: "Vinatex", Type: models.OrganizationHolding})
	require.NoError(t, err)

	unit, err := svc.CreateOrganization(CreateOrganizationInput{Name: " Alpha Mill ", ParentID: &holding.ID})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Mill", unit.Name)
	assert.Equal(t, models.OrganizationUnit, unit.Type)

	_, err = svc.CreateOrganization(CreateOrganizationInput{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidOrganizationName)
	_, err = svc.CreateOrganization(CreateOrganizationInput{Name: "X", Type: "team"})
	assert.ErrorIs(t, err, ErrInvalidOrganizationType)
	_, err = svc.CreateOrganization(CreateOrganizationInput{Name: "X", ParentID: ptr(uint64(9999))})
	assert.ErrorIs(t, err, ErrParentNotFound)

	got, err := svc.GetOrganization(holding.ID)
	require.NoError(t, err)
	require.Len(t, got.Children, 1)
	assert.Equal(t, unit.ID, got.Children[0].ID)

	units, err := svc.ListOrganizations(repository.OrganizationFilter{Type: ptr(models.OrganizationUnit)})
	require.NoError(t, err)
	assert.Len(t, units, 1)

	_, err = svc.GetOrganization(9999)
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestOrganizationService_ReparentRejectsCycles(t *testing.T) {
	e := newEnv(t)
	svc := NewOrganizationService(e.orgRepo)

	root, err := svc.CreateOrganization(CreateOrganizationInput{Name: "Root", Type: models.OrganizationHolding})
	require.NoError(t, err)
	mid, err := svc.CreateOrganization(CreateOrganizationInput{Name: "Mid", Type: models.OrganizationDepartment, ParentID: &root.ID})
	require.NoError(t, err)
	leaf, err := svc.CreateOrganization(CreateOrganizationInput{Name: "Leaf", ParentID: &mid.ID})
	require.NoError(t, err)

	_, err = svc.UpdateOrganization(root.ID, UpdateOrganizationInput{ParentID: &leaf.ID})
	assert.ErrorIs(t, err, ErrOrganizationCycle)
	_, err = svc.UpdateOrganization(mid.ID, UpdateOrganizationInput{ParentID: &mid.ID})
	assert.ErrorIs(t, err, ErrOrganizationCycle)
	_, err = svc.UpdateOrganization(mid.ID, UpdateOrganizationInput{ParentID: ptr(uint64(9999))})
	assert.ErrorIs(t, err, ErrParentNotFound)

	descendants, err := svc.Descendants(root.ID)
	require.NoError(t, err)
	require.Len(t, descendants, 2)
	assert.Equal(t, mid.ID, descendants[0].ID)
	assert.Equal(t, leaf.ID, descendants[1].ID)

	moved, err := svc.UpdateOrganization(leaf.ID, UpdateOrganizationInput{ParentID: &root.ID, Name: ptr("Leaf Mill")})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *moved.ParentID)
	assert.Equal(t, "Leaf Mill", moved.Name)

	detached, err := svc.UpdateOrganization(leaf.ID, UpdateOrganizationInput{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)
}

func TestOrganizationService_Delete(t *testing.T) {
	e := newEnv(t)
	svc := NewOrganizationService(e.orgRepo)

	root, err := svc.CreateOrganization(CreateOrganizationInput{Name: "Root", Type: models.OrganizationHolding})
	require.NoError(t, err)
	mid, err := svc.CreateOrganization(CreateOrganizationInput{Name: "Mid", Type: models.OrganizationDepartment, ParentID: &root.ID})
	require.NoError(t, err)
	leaf, err := svc.CreateOrganization(CreateOrganizationInput{Name: "Leaf", ParentID: &mid.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrganization(mid.ID))
	got, err := svc.GetOrganization(leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, *got.ParentID)

	assert.ErrorIs(t, svc.DeleteOrganization(mid.ID), ErrOrganizationNotFound)
}
