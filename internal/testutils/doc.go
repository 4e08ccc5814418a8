// Package testutils provides shared test helpers: a migrated temporary
// SQLite database, a review service wired to it, and HTTP request and
// response helpers for API tests.
//
//	db := testutils.OpenSQLiteDB(t)
//	clk := clock.NewFixed(now)
//	svc := testutils.NewReviewService(t, db, clk)
//	server := testutils.CreateTestServer(t, api.NewRouter(api.RouterConfig{Service: svc}))
//	resp := testutils.DoJSON(t, server, http.MethodGet, "/api/review-queue", userID, nil)
package testutils
