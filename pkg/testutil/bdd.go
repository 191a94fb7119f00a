// Package testutil holds shared test helpers. The Given/When/Then wrappers
// name subtests after the lending scenario they exercise, which keeps failure
// output readable when a verification or transition flow breaks mid-scenario.
package testutil

import "testing"

func Given(t *testing.T, scenario string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+scenario, fn)
}

func When(t *testing.T, action string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+action, fn)
}

func Then(t *testing.T, outcome string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+outcome, fn)
}
