package handlers

import (
	"net/http"

	"github.com/reportdesk/report-portal/internal/dto"
	"github.com/reportdesk/report-portal/internal/models"
)

func (suite *APITestSuite) TestLogin_Success() {
	w := suite.request(http.MethodPost, "/api/auth/login", map[string]string{
		"username": "clerk-a",
		"password": testPassword,
	}, nil)

	suite.Require().Equal(http.StatusOK, w.Code)
	var user dto.UserDTO
	suite.decode(w, &user)
	suite.Equal("clerk-a", user.Username)
	suite.Equal(models.RoleUnit, user.Role)
	suite.Require().NotNil(user.OrganizationID)
	suite.Equal(suite.unitA.ID, *user.OrganizationID)
	suite.NotEmpty(w.Result().Cookies(), "expected session cookie to be set")
}

func (suite *APITestSuite) TestLogin_WrongPassword() {
	w := suite.request(http.MethodPost, "/api/auth/login", map[string]string{
		"username": "clerk-a",
		"password": "not-the-password",
	}, nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("INVALID_CREDENTIALS", suite.errorCode(w))
}

func (suite *APITestSuite) TestLogin_InvalidBody() {
	w := suite.request(http.MethodPost, "/api/auth/login", map[string]string{"username": "clerk-a"}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_INPUT", suite.errorCode(w))
}

func (suite *APITestSuite) TestGetCurrentUser() {
	cookies := suite.login(suite.planner)

	w := suite.request(http.MethodGet, "/api/auth/me", nil, cookies)

	suite.Require().Equal(http.StatusOK, w.Code)
	var user dto.UserDTO
	suite.decode(w, &user)
	suite.Equal(suite.planner.ID, user.ID)
	suite.Equal(models.RoleDepartment, user.Role)
}

func (suite *APITestSuite) TestGetCurrentUser_Unauthenticated() {
	w := suite.request(http.MethodGet, "/api/auth/me", nil, nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("UNAUTHORIZED", suite.errorCode(w))
}

func (suite *APITestSuite) TestLogout_EndsSession() {
	cookies := suite.login(suite.admin)

	w := suite.request(http.MethodPost, "/api/auth/logout", nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/auth/me", nil, w.Result().Cookies())
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"ok"`)
}
