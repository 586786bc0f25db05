package handlers

import (
	"fmt"
	"net/http"

	"github.com/reportdesk/report-portal/internal/dto"
	"github.com/reportdesk/report-portal/internal/models"
)

func (suite *APITestSuite) TestUsers_CreateListUpdateDelete() {
	cookies := suite.login(suite.admin)

	w := suite.request(http.MethodPost, "/api/users", map[string]any{
		"username":        "clerk-a2",
		"password":        "another-secret",
		"role":            "unit",
		"organization_id": suite.unitA.ID,
	}, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.UserDTO
	suite.decode(w, &created)
	suite.Equal("clerk-a2", created.Username)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/users?role=unit&organization_id=%d", suite.unitA.ID), nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.UserListResponse
	suite.decode(w, &list)
	suite.EqualValues(2, list.TotalCount)
	suite.Require().Len(list.Users, 2)
	suite.Equal("clerk-a", list.Users[0].Username)

	// A unit organization cannot host a department user.
	w = suite.request(http.MethodPut, fmt.Sprintf("/api/users/%d", created.ID), map[string]any{"role": "department"}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPut, fmt.Sprintf("/api/users/%d", created.ID), map[string]any{
		"organization_id": suite.unitB.ID,
	}, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var updated dto.UserDTO
	suite.decode(w, &updated)
	suite.Equal(suite.unitB.ID, *updated.OrganizationID)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil, cookies)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil, cookies)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestUsers_Validation() {
	cookies := suite.login(suite.admin)

	w := suite.request(http.MethodPost, "/api/users", map[string]any{
		"username": "planner",
		"password": "long-enough",
		"role":     "admin",
	}, cookies)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPost, "/api/users", map[string]any{
		"username": "newbie",
		"password": "short",
		"role":     "admin",
	}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "at least 8 characters")

	w = suite.request(http.MethodPost, "/api/users", map[string]any{
		"username": "orphan",
		"password": "long-enough",
		"role":     "unit",
	}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/users?role=superuser", nil, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestUsers_CannotDeleteSelf() {
	cookies := suite.login(suite.admin)

	w := suite.request(http.MethodDelete, fmt.Sprintf("/api/users/%d", suite.admin.ID), nil, cookies)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestUsers_RequireAdmin() {
	for _, user := range []*models.User{suite.planner, suite.clerkA} {
		w := suite.request(http.MethodGet, "/api/users", nil, suite.login(user))
		suite.Equal(http.StatusForbidden, w.Code, user.Username)
		suite.Equal("INSUFFICIENT_PERMISSIONS", suite.errorCode(w))
	}
}
