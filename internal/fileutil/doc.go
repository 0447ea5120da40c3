// Package fileutil holds the small filesystem helpers realmenv needs:
// creating the lock directory and resolving bind-mount sources.
package fileutil
