package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/reportdesk/report-portal/internal/constants"
	"github.com/reportdesk/report-portal/internal/dto"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
)

type schemaResponse struct {
	Field  schema.Field  `json:"field"`
	Schema dto.SchemaDTO `json:"schema"`
}

func (suite *APITestSuite) TestTemplates_DepartmentCreatesOwnTemplate() {
	tmpl := suite.createTemplate(suite.login(suite.planner))

	suite.Require().NotNil(tmpl.DepartmentID)
	suite.Equal(suite.department.ID, *tmpl.DepartmentID)
	suite.Require().NotNil(tmpl.Schema)
	suite.Equal(schema.LayoutRows, tmpl.Schema.Layout)
	suite.Require().Len(tmpl.Schema.Sheets, 1)
	suite.Equal(constants.DefaultSheetName, tmpl.Schema.Sheets[0].Name)
	suite.Equal([]string{"f1", "f2"}, tmpl.Schema.Sheets[0].FieldIDs)
}

func (suite *APITestSuite) TestTemplates_UnitCannotCreate() {
	w := suite.request(http.MethodPost, "/api/templates", map[string]any{"name": "Nope"}, suite.login(suite.clerkA))

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestTemplates_SchemaEditing() {
	cookies := suite.login(suite.planner)
	tmpl := suite.createTemplate(cookies)
	base := fmt.Sprintf("/api/templates/%d", tmpl.ID)

	w := suite.request(http.MethodPost, base+"/fields", map[string]string{"label": "Cost", "type": "number"}, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var added schemaResponse
	suite.decode(w, &added)
	costID := added.Field.ID
	suite.Regexp(`^f_[0-9a-f]{12}$`, costID)
	suite.Equal([]string{"f1", "f2", costID}, added.Schema.Sheets[0].FieldIDs)

	w = suite.request(http.MethodPost, base+"/sheets", map[string]string{"name": "Chi phí"}, cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodPut, base+"/sheets/"+url.PathEscape("Chi phí"), map[string]any{"field_ids": []string{costID}}, cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodPatch, base+"/sheets/"+url.PathEscape("Chi phí"), map[string]string{"name": "Costs"}, cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var renamed schemaResponse
	suite.decode(w, &renamed)
	suite.Require().Len(renamed.Schema.Sheets, 2)
	suite.Equal("Costs", renamed.Schema.Sheets[1].Name)
	suite.Equal([]string{costID}, renamed.Schema.Sheets[1].FieldIDs)

	w = suite.request(http.MethodPatch, base+"/fields/f1", map[string]string{"label": "Net revenue"}, cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodDelete, base+"/fields/f2", nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodDelete, base+"/sheets/Costs", nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, base, nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var stored dto.TemplateDTO
	suite.decode(w, &stored)
	suite.Require().Len(stored.Schema.Sheets, 1)
	suite.Equal([]string{"f1", costID}, stored.Schema.Sheets[0].FieldIDs)
	suite.Equal("Net revenue", stored.Schema.Fields[0].Label)
}

func (suite *APITestSuite) TestTemplates_SchemaErrors() {
	cookies := suite.login(suite.planner)
	tmpl := suite.createTemplate(cookies)
	base := fmt.Sprintf("/api/templates/%d", tmpl.ID)

	w := suite.request(http.MethodPost, base+"/fields", map[string]string{"id": "f1", "label": "Again"}, cookies)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("ALREADY_EXISTS", suite.errorCode(w))

	w = suite.request(http.MethodPost, base+"/fields", map[string]string{"label": "Ratio", "type": "percent"}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, base+"/sheets/"+url.PathEscape(constants.DefaultSheetName), nil, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, base+"/sheets/Missing", nil, cookies)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPut, base+"/schema", map[string]any{
		"fields": []map[string]string{{"id": "f1", "label": "Revenue", "type": "number"}},
		"sheets": []map[string]any{{"name": "P&L", "field_ids": []string{"f1", "f9"}}},
	}, cookies)
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	var body struct {
		Code    string `json:"code"`
		Details struct {
			Fields []string `json:"fields"`
		} `json:"details"`
	}
	suite.decode(w, &body)
	suite.Equal("INVALID_INPUT", body.Code)
	suite.Equal([]string{"f9"}, body.Details.Fields)
}

func (suite *APITestSuite) TestTemplates_ReplaceSchema() {
	cookies := suite.login(suite.planner)
	tmpl := suite.createTemplate(cookies)

	w := suite.request(http.MethodPut, fmt.Sprintf("/api/templates/%d/schema", tmpl.ID), map[string]any{
		"fields": []map[string]string{
			{"id": "f1", "label": "Revenue", "type": "number"},
			{"id": "f3", "label": "Headcount", "type": "number"},
		},
		"sheets": []map[string]any{
			{"name": "Finance", "field_ids": []string{"f1"}},
			{"name": "People", "field_ids": []string{"f3"}},
		},
	}, cookies)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.TemplateDTO
	suite.decode(w, &updated)
	suite.Require().Len(updated.Schema.Sheets, 2)
	suite.Equal(schema.LayoutRows, updated.Schema.Layout)
}

func (suite *APITestSuite) TestTemplates_OtherDepartmentForbidden() {
	tmpl := suite.createTemplate(suite.login(suite.planner))
	other := suite.createOrganization("Phòng Tài chính", models.OrganizationDepartment)
	finance := suite.createUser("finance", models.RoleDepartment, other)

	w := suite.request(http.MethodPut, fmt.Sprintf("/api/templates/%d", tmpl.ID), map[string]string{"name": "Mine now"}, suite.login(finance))

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestTemplates_UpdateAndDelete() {
	cookies := suite.login(suite.planner)
	tmpl := suite.createTemplate(cookies)
	path := fmt.Sprintf("/api/templates/%d", tmpl.ID)

	w := suite.request(http.MethodPut, path, map[string]string{"name": "Quarterly revenue"}, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	var updated dto.TemplateDTO
	suite.decode(w, &updated)
	suite.Equal("Quarterly revenue", updated.Name)

	w = suite.request(http.MethodPut, path, map[string]string{"name": "  "}, cookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, path, nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, path, nil, cookies)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("NOT_FOUND", suite.errorCode(w))
}

func (suite *APITestSuite) TestTemplates_ListPaginated() {
	cookies := suite.login(suite.planner)
	suite.createTemplate(cookies)
	suite.createTemplate(cookies)

	w := suite.request(http.MethodGet, "/api/templates?limit=1", nil, cookies)

	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.TemplateListResponse
	suite.decode(w, &list)
	suite.Len(list.Templates, 1)
	suite.EqualValues(2, list.TotalCount)
	suite.Equal(2, list.TotalPages)
	suite.Nil(list.Templates[0].Schema)
}

func (suite *APITestSuite) TestTemplates_DownloadBlank() {
	tmpl := suite.createTemplate(suite.login(suite.planner))

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/templates/%d/blank", tmpl.ID), nil, suite.login(suite.clerkA))

	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(spreadsheet.ContentType, w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "Monthly_revenue.xlsx")
	suite.Equal("PK", w.Body.String()[:2])
}

func (suite *APITestSuite) TestTemplates_SuggestFieldsWithoutAI() {
	w := suite.request(http.MethodPost, "/api/templates/suggest-fields", map[string]string{
		"description": "monthly production output per workshop",
	}, suite.login(suite.planner))

	suite.Equal(http.StatusServiceUnavailable, w.Code)
}
