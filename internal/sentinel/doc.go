// Package sentinel defines the const-declarable error type used for every
// package-level error value in realmenv.
package sentinel
