// Package youtube uploads finished videos through the YouTube Data API using
// the resumable upload protocol. OAuth tokens live in the bank's settings
// table so a refreshed access token survives process restarts.
package youtube
