package types

// Route paths served by the view layer.
const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathAbout          = "/about"
	PathContact        = "/contact"
	PathFAQs           = "/faqs"
	PathDashboard      = "/dashboard"
	PathUserDashboard  = "/user-dashboard"
	PathAdminDashboard = "/admin-dashboard"
	PathWardenPanel    = "/warden-panel"
	PathPostNotice     = "/post-notice"
	PathMyReports      = "/my-reports"
	PathNotice         = "/notice/{id}"
)
