package constants

// Session and context keys
const (
	SessionCookieName        = "report_session"
	ContextKeyUserID         = "user_id"
	ContextKeyRole           = "role"
	ContextKeyOrganizationID = "organization_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
)

// Workbook layout
const (
	DefaultSheetName  = "Báo cáo"
	SequenceHeader    = "STT"
	BlankTemplateRows = 10
	MaxSheetNameRunes = 31
	MaxUploadBytes    = 10 << 20
)

// Dashboard projections
const (
	RecentActivityLimit  = 10
	UpcomingReportsLimit = 5
)

// AI suggestions
const (
	MaxSuggestedFields = 30
)
