// Package testdb provides helpers for tests that need a real PostgreSQL
// database.
//
// Each test runs in its own transaction, which is rolled back when the test
// completes, so tests can run in parallel against the same schema without
// cleaning up after themselves:
//
//	func TestTaskStore_Create(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        tasks := postgres.NewPostgresTaskStore(tx, nil)
//	        // ...
//	    })
//	}
//
// Tests are skipped when neither TASKS_TEST_DATABASE_URL nor DATABASE_URL is
// set. The schema is migrated once per test binary from the migrations
// embedded in the postgres package.
package testdb
