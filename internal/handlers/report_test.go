package handlers

import (
	"fmt"
	"net/http"

	"github.com/reportdesk/report-portal/internal/dto"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
)

// seedReports assigns the revenue template to both units, one overdue, and
// has unit A submit its current one.
func (suite *APITestSuite) seedReports() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	current := suite.assign(planner, tmpl.ID, dueIn(5), suite.unitA)
	suite.assign(planner, tmpl.ID, dueIn(-3), suite.unitB)

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/assignments/%d/submit", current[0].ID),
		rows(map[string]any{"f1": "42", "f2": "done"}), suite.login(suite.clerkA))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (suite *APITestSuite) statusReport(cookies []*http.Cookie, query string) dto.StatusReportResponse {
	w := suite.request(http.MethodGet, "/api/reports/status"+query, nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var report dto.StatusReportResponse
	suite.decode(w, &report)
	return report
}

func (suite *APITestSuite) TestReports_StatusByRole() {
	suite.seedReports()

	all := suite.statusReport(suite.login(suite.admin), "")
	suite.Equal(2, all.Total)

	overdue := suite.statusReport(suite.login(suite.planner), "?status=overdue")
	suite.Require().Equal(1, overdue.Total)
	suite.Equal("Beta Mill", overdue.Rows[0].Organization)
	suite.Equal(string(models.StatusOverdue), overdue.Rows[0].Status)

	mine := suite.statusReport(suite.login(suite.clerkA), "")
	suite.Require().Equal(1, mine.Total)
	suite.Equal("Monthly revenue", mine.Rows[0].ReportName)
	suite.Equal(string(models.StatusCompleted), mine.Rows[0].Status)
}

func (suite *APITestSuite) TestReports_StatusWorkbook() {
	admin := suite.login(suite.admin)

	w := suite.request(http.MethodGet, "/api/reports/status.xlsx", nil, admin)
	suite.Equal(http.StatusNotFound, w.Code)

	suite.seedReports()
	w = suite.request(http.MethodGet, "/api/reports/status.xlsx", nil, admin)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(spreadsheet.ContentType, w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "report_status_")

	w = suite.request(http.MethodGet, "/api/reports/status.xlsx?status=unknown", nil, admin)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestDashboard_Admin() {
	suite.seedReports()

	w := suite.request(http.MethodGet, "/api/dashboard", nil, suite.login(suite.admin))

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var d dto.DashboardDTO
	suite.decode(w, &d)
	suite.Equal(models.RoleAdmin, d.Role)
	suite.Require().NotNil(d.Totals)
	suite.EqualValues(1, d.Totals.Templates)
	suite.EqualValues(2, d.Totals.Assignments)
	suite.EqualValues(4, d.Totals.Users)
	suite.EqualValues(1, d.StatusCounts[models.StatusCompleted])
	suite.EqualValues(1, d.StatusCounts[models.StatusOverdue])
	suite.Len(d.RecentActivity, 2)
	suite.Len(d.ByOrganization, 2)
}

func (suite *APITestSuite) TestDashboard_Department() {
	suite.seedReports()

	w := suite.request(http.MethodGet, "/api/dashboard", nil, suite.login(suite.planner))

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var d dto.DashboardDTO
	suite.decode(w, &d)
	suite.Nil(d.Totals)
	suite.Require().Len(d.RecentSubmissions, 1)
	suite.Require().NotNil(d.RecentSubmissions[0].Assignment)
	suite.Equal(models.StatusCompleted, d.RecentSubmissions[0].Assignment.Status)
	suite.Len(d.ByOrganization, 2)
}

func (suite *APITestSuite) TestDashboard_Unit() {
	suite.seedReports()

	w := suite.request(http.MethodGet, "/api/dashboard", nil, suite.login(suite.clerkB))

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var d dto.DashboardDTO
	suite.decode(w, &d)
	suite.Equal(models.RoleUnit, d.Role)
	suite.Empty(d.Upcoming)
	suite.Require().Len(d.ActionNeeded, 1)
	suite.Equal(models.StatusOverdue, d.ActionNeeded[0].Status)
	suite.EqualValues(1, d.StatusCounts[models.StatusOverdue])
}

func (suite *APITestSuite) TestDashboard_RequiresLogin() {
	w := suite.request(http.MethodGet, "/api/dashboard", nil, nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
}
