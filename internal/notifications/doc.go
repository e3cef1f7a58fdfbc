// Package notifications posts pipeline events to a Discord webhook. When no
// webhook is configured every notification is a silent no-op so the pipeline
// never depends on Discord being reachable.
package notifications
