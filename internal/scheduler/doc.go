// Package scheduler turns persisted jobs with a future run time into
// one-shot deferred executions.
//
// The job record owns the lifecycle; timers are reconstructed from the store
// at boot and the record is re-read at fire time, so a job canceled between
// arming and firing stays canceled.
package scheduler
