// Package model defines the persistent entities of the call-preparation
// store: Projects, the Recordings they own, and the immutable
// AnalysisRecords produced by coverage analysis runs.
//
// Entities are plain structs; all persistence goes through internal/store.
// Callers never mutate a returned entity expecting it to persist; every
// write is an explicit store operation.
package model
