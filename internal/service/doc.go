// Package service contains the task service use cases. It coordinates the
// domain model with the persistence layer in internal/store and hands
// long-running work to internal/job through events.
//
// Key components:
//
// 1. Service interfaces:
//   - TaskService owns the task lifecycle and its audit trail
//   - CommentService, LabelService and AttachmentService manage task children
//   - JobService accepts bulk update and report requests
//
// 2. Transactions:
//   - Every task mutation locks the row, applies the change and appends its
//     activity rows inside one store.RunInTransaction call
//   - Bulk updates open one transaction per task so a failure never undoes
//     the tasks already applied
//
// 3. Errors:
//   - Validation failures surface as *domain.ValidationError
//   - Store failures are wrapped in *ServiceError and keep their sentinel
//   - Access to another user's resource returns ErrNotOwned
package service
