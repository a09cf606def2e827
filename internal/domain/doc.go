// Package domain contains the core entities and repository interfaces
// shared across all layers of the application.
package domain
