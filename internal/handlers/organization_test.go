package handlers

import (
	"fmt"
	"net/http"

	"github.com/reportdesk/report-portal/internal/dto"
	"github.com/reportdesk/report-portal/internal/models"
)

func (suite *APITestSuite) TestOrganizations_ManageTree() {
	cookies := suite.login(suite.admin)

	w := suite.request(http.MethodPost, "/api/organizations", map[string]any{
		"name": "Vinatex",
		"type": "holding",
	}, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var holding dto.OrganizationDTO
	suite.decode(w, &holding)
	suite.Equal(models.OrganizationHolding, holding.Type)

	w = suite.request(http.MethodPost, "/api/organizations", map[string]any{
		"name":      "Công ty May 10",
		"parent_id": holding.ID,
	}, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var child dto.OrganizationDTO
	suite.decode(w, &child)
	suite.Equal(models.OrganizationUnit, child.Type)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/organizations/%d", holding.ID), nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var detail dto.OrganizationDTO
	suite.decode(w, &detail)
	suite.Require().Len(detail.Children, 1)
	suite.Equal("Công ty May 10", detail.Children[0].Name)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/organizations/%d/descendants", holding.ID), nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var descendants dto.OrganizationListResponse
	suite.decode(w, &descendants)
	suite.Len(descendants.Organizations, 1)

	// Moving the holding below its own child would create a cycle.
	w = suite.request(http.MethodPut, fmt.Sprintf("/api/organizations/%d", holding.ID), map[string]any{
		"parent_id": child.ID,
	}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/organizations/%d", holding.ID), nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/organizations/%d", child.ID), nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &detail)
	suite.Nil(detail.ParentID)
}

func (suite *APITestSuite) TestOrganizations_ListByType() {
	cookies := suite.login(suite.clerkA)

	w := suite.request(http.MethodGet, "/api/organizations?type=unit", nil, cookies)

	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.OrganizationListResponse
	suite.decode(w, &list)
	suite.Require().Len(list.Organizations, 2)
	suite.Equal("Alpha Mill", list.Organizations[0].Name)
	suite.Equal("Beta Mill", list.Organizations[1].Name)

	w = suite.request(http.MethodGet, "/api/organizations?type=team", nil, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestOrganizations_WritesRequireAdmin() {
	cookies := suite.login(suite.planner)

	w := suite.request(http.MethodPost, "/api/organizations", map[string]any{"name": "Rogue"}, cookies)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/organizations/%d", suite.unitA.ID), nil, cookies)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestOrganizations_BadID() {
	cookies := suite.login(suite.admin)

	w := suite.request(http.MethodGet, "/api/organizations/9999", nil, cookies)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/organizations/abc", nil, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)
}
