// Package model contains domain models/data structures shared by every layer.
// Keep it free of persistence and transport dependencies.
package model
