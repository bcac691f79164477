// Package repository provides data access for plans, menu items and the
// checkout staging table.  This file defines sentinel error values reused
// across repositories so that handlers and services can distinguish
// failure scenarios without string matching.
package repository

import "errors"

// ErrPlanNotFound is returned when a plan id does not resolve to a row.
// The selection surface refuses to operate without a resolved plan, so
// handlers translate this into an HTTP 404 response.
var ErrPlanNotFound = errors.New("plan not found")

// ErrNoStaging is returned when a user has no staged selection.  The
// checkout handoff endpoint translates this into an HTTP 404 response.
var ErrNoStaging = errors.New("no staged selection for user")
