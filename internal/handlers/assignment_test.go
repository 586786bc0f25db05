package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/constants"
	"github.com/reportdesk/report-portal/internal/distribution"
	"github.com/reportdesk/report-portal/internal/dto"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
)

func dueIn(days int) string {
	return time.Now().AddDate(0, 0, days).Format(time.DateOnly)
}

func rows(values ...map[string]any) map[string]any {
	return map[string]any{"data": map[string]any{constants.DefaultSheetName: values}}
}

// upload posts body as the multipart file of an assignment upload
func (suite *APITestSuite) upload(id uint64, filename string, body []byte, cookies []*http.Cookie) *httptest.ResponseRecorder {
	return suite.send(suite.uploadRequest(id, filename, body), cookies)
}

func (suite *APITestSuite) uploadRequest(id uint64, filename string, body []byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if body != nil {
		part, err := mw.CreateFormFile(uploadFormField, filename)
		suite.Require().NoError(err)
		_, err = part.Write(body)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/assignments/%d/upload", id), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (suite *APITestSuite) TestAssignments_Create() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)

	assignments := suite.assign(planner, tmpl.ID, dueIn(7), suite.unitA, suite.unitB, suite.unitA)

	suite.Require().Len(assignments, 2)
	for _, a := range assignments {
		suite.Equal(models.StatusPending, a.Status)
		suite.Equal(dueIn(7), a.DueDate)
		suite.Nil(a.CurrentSubmissionID)
	}
}

func (suite *APITestSuite) TestAssignments_CreateValidation() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)

	w := suite.request(http.MethodPost, "/api/assignments", map[string]any{
		"template_id":      tmpl.ID,
		"organization_ids": []uint64{suite.unitA.ID},
		"due_date":         "31/12/2026",
	}, planner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/assignments", map[string]any{
		"template_id":      tmpl.ID,
		"organization_ids": []uint64{},
		"due_date":         dueIn(3),
	}, planner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/assignments", map[string]any{
		"template_id":      tmpl.ID,
		"organization_ids": []uint64{999},
		"due_date":         dueIn(3),
	}, planner)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/assignments", map[string]any{
		"template_id":      tmpl.ID,
		"organization_ids": []uint64{suite.unitA.ID},
		"due_date":         dueIn(3),
	}, suite.login(suite.clerkA))
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestAssignments_SubmitFlow() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	assignments := suite.assign(planner, tmpl.ID, dueIn(7), suite.unitA)
	id := assignments[0].ID
	clerk := suite.login(suite.clerkA)

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/assignments/%d/submit", id), rows(map[string]any{"f1": 1200, "f2": "ok"}), clerk)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var submitted dto.SubmitResponse
	suite.decode(w, &submitted)
	suite.Equal(id, submitted.Submission.AssignmentID)
	suite.JSONEq(`{"Báo cáo":[{"f1":"1200","f2":"ok"}]}`, string(submitted.Submission.Data))

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/assignments/%d", id), nil, clerk)
	suite.Require().Equal(http.StatusOK, w.Code)
	var detail dto.AssignmentDetailDTO
	suite.decode(w, &detail)
	suite.Equal(models.StatusCompleted, detail.Status)
	suite.Require().Len(detail.Submissions, 1)
	suite.Require().NotNil(detail.CurrentSubmissionID)
	suite.Equal(detail.Submissions[0].ID, *detail.CurrentSubmissionID)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/assignments/%d", id), nil, suite.login(suite.clerkB))
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestAssignments_SubmitRejections() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	id := suite.assign(planner, tmpl.ID, dueIn(7), suite.unitA)[0].ID
	path := fmt.Sprintf("/api/assignments/%d/submit", id)
	clerk := suite.login(suite.clerkA)

	w := suite.request(http.MethodPost, path, rows(map[string]any{"f1": "1200"}), clerk)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("MISSING_FIELD", suite.errorCode(w))

	w = suite.request(http.MethodPost, path, rows(map[string]any{"f1": "lots", "f2": "ok"}), clerk)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_FORMAT", suite.errorCode(w))

	w = suite.request(http.MethodPost, path, map[string]any{"data": map[string]any{"Elsewhere": []map[string]any{{"f1": "1"}}}}, clerk)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_INPUT", suite.errorCode(w))

	w = suite.request(http.MethodPost, path, map[string]any{}, clerk)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path, rows(map[string]any{"f1": "1", "f2": "x"}), suite.login(suite.clerkB))
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, path, rows(map[string]any{"f1": "1", "f2": "x"}), planner)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, "/api/assignments/999/submit", rows(map[string]any{"f1": "1", "f2": "x"}), clerk)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestAssignments_Upload() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	id := suite.assign(planner, tmpl.ID, dueIn(7), suite.unitA)[0].ID
	clerk := suite.login(suite.clerkA)

	body, err := spreadsheet.Encode(tmpl.Schema.ToSchema(), schema.NewRowsPayload(map[string][]schema.Row{
		constants.DefaultSheetName: {{"f1": "1500", "f2": "uploaded"}},
	}))
	suite.Require().NoError(err)

	w := suite.upload(id, "revenue.xlsx", body, clerk)

	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var submitted dto.SubmitResponse
	suite.decode(w, &submitted)
	suite.JSONEq(`{"Báo cáo":[{"f1":"1500","f2":"uploaded"}]}`, string(submitted.Submission.Data))
	suite.Empty(submitted.Warnings)
}

func (suite *APITestSuite) TestAssignments_UploadRejections() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	id := suite.assign(planner, tmpl.ID, dueIn(7), suite.unitA)[0].ID
	clerk := suite.login(suite.clerkA)

	w := suite.upload(id, "", nil, clerk)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("MISSING_FIELD", suite.errorCode(w))

	w = suite.upload(id, "notes.txt", []byte("not a workbook"), clerk)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_INPUT", suite.errorCode(w))

	blank, err := spreadsheet.EncodeBlank(tmpl.Schema.ToSchema())
	suite.Require().NoError(err)
	w = suite.upload(id, "blank.xlsx", blank, clerk)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (suite *APITestSuite) TestAssignments_UploadTooLarge() {
	h := NewAssignmentHandler(nil, nil)
	h.maxUploadBytes = 1024
	r := gin.New()
	r.POST("/api/assignments/:id/upload", func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, suite.clerkA.ID)
		c.Set(constants.ContextKeyRole, models.RoleUnit)
	}, h.Upload)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, suite.uploadRequest(1, "big.xlsx", bytes.Repeat([]byte("x"), 4096)))

	suite.Equal(http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	suite.Equal("FILE_TOO_LARGE", suite.errorCode(w))
}

func (suite *APITestSuite) TestAssignments_ListFilters() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	suite.assign(planner, tmpl.ID, dueIn(-1), suite.unitA)
	suite.assign(planner, tmpl.ID, dueIn(10), suite.unitA, suite.unitB)

	w := suite.request(http.MethodGet, "/api/assignments?status=overdue", nil, planner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var overdue dto.AssignmentListResponse
	suite.decode(w, &overdue)
	suite.Require().Len(overdue.Assignments, 1)
	suite.Equal(models.StatusOverdue, overdue.Assignments[0].Status)
	suite.Equal(dueIn(-1), overdue.Assignments[0].DueDate)

	w = suite.request(http.MethodGet, "/api/assignments?due_to="+dueIn(10), nil, planner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var upToDue dto.AssignmentListResponse
	suite.decode(w, &upToDue)
	suite.EqualValues(3, upToDue.TotalCount)

	w = suite.request(http.MethodGet, "/api/assignments", nil, suite.login(suite.clerkB))
	suite.Require().Equal(http.StatusOK, w.Code)
	var mine dto.AssignmentListResponse
	suite.decode(w, &mine)
	suite.Require().Len(mine.Assignments, 1)
	suite.Equal(suite.unitB.ID, mine.Assignments[0].OrganizationID)
	suite.Require().NotNil(mine.Assignments[0].Template)
	suite.Equal("Monthly revenue", mine.Assignments[0].Template.Name)

	w = suite.request(http.MethodGet, "/api/assignments?status=late", nil, planner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/assignments?due_from=yesterday", nil, planner)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestAssignments_ExportAndPublish() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	id := suite.assign(planner, tmpl.ID, dueIn(7), suite.unitA)[0].ID
	clerk := suite.login(suite.clerkA)

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/assignments/%d/export", id), nil, clerk)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/assignments/%d/submit", id), rows(map[string]any{"f1": "1200", "f2": "ok"}), clerk)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/assignments/%d/export", id), nil, clerk)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal(spreadsheet.ContentType, w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "Monthly_revenue_Alpha_Mill_")

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/assignments/%d/publish", id), nil, planner)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var loc distribution.Location
	suite.decode(w, &loc)
	suite.Equal("Documents/Reports/Alpha_Mill/Monthly_revenue_Alpha_Mill.xlsx", loc.Key)
	suite.Equal("https://docs.example.com/sites/reports/Documents/Reports/Alpha_Mill/Monthly_revenue_Alpha_Mill.xlsx", loc.URI)
	suite.True(loc.Uploaded)
	suite.Equal([]string{loc.Key}, suite.uploader.keys())

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/assignments/%d/publish", id), nil, clerk)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestAssignments_PublishBatch() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	assignments := suite.assign(planner, tmpl.ID, dueIn(7), suite.unitA, suite.unitB)

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/assignments/%d/submit", assignments[0].ID),
		rows(map[string]any{"f1": "10", "f2": "ok"}), suite.login(suite.clerkA))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/assignments/export", map[string]any{
		"assignment_ids": []uint64{assignments[0].ID, assignments[1].ID},
	}, planner)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var batch dto.BatchExportResponse
	suite.decode(w, &batch)
	suite.Equal(1, batch.Published)
	suite.Equal(1, batch.Failed)
	suite.Require().Len(batch.Results, 2)
	suite.Equal(assignments[0].ID, batch.Results[0].AssignmentID)
	suite.NotNil(batch.Results[0].Location)
	suite.NotEmpty(batch.Results[1].Error)
	suite.Len(suite.uploader.keys(), 1)

	w = suite.request(http.MethodPost, "/api/assignments/export", map[string]any{"assignment_ids": []uint64{}}, planner)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestAssignments_RefreshOverdue() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	suite.assign(planner, tmpl.ID, dueIn(-2), suite.unitA, suite.unitB)
	suite.assign(planner, tmpl.ID, dueIn(2), suite.unitA)

	w := suite.request(http.MethodPost, "/api/assignments/refresh-overdue", nil, planner)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, "/api/assignments/refresh-overdue", nil, suite.login(suite.admin))
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		Updated int64 `json:"updated"`
	}
	suite.decode(w, &resp)
	suite.EqualValues(2, resp.Updated)
}

func (suite *APITestSuite) TestAssignments_Delete() {
	planner := suite.login(suite.planner)
	tmpl := suite.createTemplate(planner)
	id := suite.assign(planner, tmpl.ID, dueIn(7), suite.unitA)[0].ID
	path := fmt.Sprintf("/api/assignments/%d", id)

	w := suite.request(http.MethodDelete, path, nil, suite.login(suite.clerkA))
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, path, nil, planner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, path, nil, planner)
	suite.Equal(http.StatusNotFound, w.Code)
}
