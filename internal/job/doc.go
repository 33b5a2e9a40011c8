// Package job runs background work: due-soon reminders, overdue
// notifications, bulk updates, retention sweeps and productivity reports.
//
// Jobs are persisted in background_jobs before they are queued so that a
// restart recovers anything unfinished. A Registry rebuilds concrete jobs from
// their stored type and payload. A Scheduler enumerates candidates on a tick
// and submits jobs to the Runner at a bounded rate.
//
// Collaborator calls are attempted once per execution. A transient failure
// with attempts left returns a RetryLaterError; the Runner stores the updated
// payload with a not-before time and queues the job again once it passes,
// leaving the worker free for other jobs in between.
package job
