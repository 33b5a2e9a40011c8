// Package domain contains the core business entities of the task service:
// tasks and their lifecycle, labels, comments, attachments and the immutable
// activity log. It is independent of storage and delivery concerns; every
// time-dependent rule takes the current time as an argument.
package domain
