// Package sanitizer normalizes free-form input before validation and storage.
//
// All functions are idempotent and never fail: invalid input collapses to the
// empty string or an empty slice, which validation then reports.
package sanitizer
