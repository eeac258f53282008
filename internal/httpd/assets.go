package httpd

import _ "embed"

// Pages are embedded verbatim and expanded per request; there is no
// template cache to invalidate and no files to ship next to the binary.
var (
	//go:embed assets/dashboard.html
	dashboardPage string

	//go:embed assets/settings.html
	settingsPage string

	//go:embed assets/saved.html
	savedPage string
)
