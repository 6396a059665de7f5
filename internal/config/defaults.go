// Package config handles taskdeck configuration.
package config

import "time"

const (
	// AppName names the config directory under the user config dir.
	AppName = "taskdeck"
	// DefaultBaseURL is the API root of a locally running backend.
	DefaultBaseURL = "http://localhost:8000/api"
	// DefaultTimeout bounds a single request including one refresh retry.
	DefaultTimeout = 15 * time.Second
	// DefaultBoardName is shown in the TUI header and the summary.
	DefaultBoardName = "Join"
	// DefaultLocale drives contact grouping and sorting.
	DefaultLocale = "en"
	// DefaultTitleLines is the default number of title lines in TUI cards.
	DefaultTitleLines = 2

	// ConfigFileName is the name of the config file within the config directory.
	ConfigFileName = "config.yml"
	// SessionFileName holds the signed-in user and session cookies.
	SessionFileName = "session.yml"

	// EnvBaseURL overrides server.base_url without touching the file.
	EnvBaseURL = "TASKDECK_BASE_URL"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 2
)
