// Package dashboard provides the embedded web UI for the menu dashboard.
//
// The page provides the element identifiers the dashboard renders into
// (nextMenuDate, menuSeason, errorMessages and the optional extra nodes)
// and applies node updates received over Server-Sent Events.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
//	assets/
//	  index.html    - dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
