package config

// Default paths and origins
const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./osn.db"

	// DefaultSPAOrigin is the dev server origin of the single-page frontend
	DefaultSPAOrigin = "http://localhost:5173"

	// DefaultYouTubeAPIBaseURL is the YouTube Data API v3 root
	DefaultYouTubeAPIBaseURL = "https://www.googleapis.com/youtube/v3"
)
