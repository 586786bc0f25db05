package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/dto"
	"github.com/reportdesk/report-portal/internal/services"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
)

// ReportHandler serves the status report and the dashboard.
type ReportHandler struct {
	exportService    *services.ExportService
	dashboardService *services.DashboardService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(exportService *services.ExportService, dashboardService *services.DashboardService) *ReportHandler {
	return &ReportHandler{
		exportService:    exportService,
		dashboardService: dashboardService,
	}
}

// StatusReport lists the effective status of every visible assignment
func (h *ReportHandler) StatusReport(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	status, ok := statusQuery(c)
	if !ok {
		return
	}

	rows, err := h.exportService.StatusRows(actor, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStatusReportResponse(rows))
}

// StatusReportWorkbook downloads the status report as a workbook
func (h *ReportHandler) StatusReportWorkbook(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	status, ok := statusQuery(c)
	if !ok {
		return
	}

	body, filename, err := h.exportService.StatusWorkbook(actor, status)
	if err != nil {
		respondError(c, err)
		return
	}

	attachment(c, filename, spreadsheet.ContentType, body)
}

// Dashboard returns the projection for the caller's role
func (h *ReportHandler) Dashboard(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.Dashboard(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardDTO(*dashboard))
}
