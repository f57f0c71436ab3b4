// Package config provides configuration management for concert-scanner.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Reading credentials from the environment and .env files
//
// # Default Settings
//
// Use DefaultSettings() to get the defaults:
//
//	settings := config.DefaultSettings()
//	// Watches ./images_watchfolder
//	// Appends to ./concerts.csv
//	// Extracts with gemini-2.5-flash
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//	if err := settings.Validate(); err != nil {
//	    // bad provider, empty extension list ...
//	}
//
// # Credentials
//
// Secrets never live in the settings file:
//
//	_ = config.LoadEnvFiles()          // optional .env
//	creds := config.LoadCredentials()  // GEMINI_API_KEY, GCP_PROJECT_ID
package config
