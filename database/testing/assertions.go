package testing

import (
	"slices"
	"strings"
	"testing"
)

// AssertCalls asserts that the call log of conn equals expected.
func AssertCalls(t *testing.T, conn *FakeConn, expected ...string) {
	t.Helper()
	actual := conn.Calls()
	if !slices.Equal(actual, expected) {
		t.Errorf("unexpected calls\nexpected:\n%s\nactual:\n%s", formatCalls(expected), formatCalls(actual))
	}
}

// AssertCallsInOrder asserts that expected appear in the call log in this order,
// possibly interleaved with other calls.
func AssertCallsInOrder(t *testing.T, conn *FakeConn, expected ...string) {
	t.Helper()
	actual := conn.Calls()
	next := 0
	for _, call := range actual {
		if next < len(expected) && call == expected[next] {
			next++
		}
	}
	if next < len(expected) {
		t.Errorf("call %q not found in order\nexpected subsequence:\n%s\nactual:\n%s",
			expected[next], formatCalls(expected), formatCalls(actual))
	}
}

// AssertCallCount asserts that call occurs exactly n times in the call log.
func AssertCallCount(t *testing.T, conn *FakeConn, call string, n int) {
	t.Helper()
	count := 0
	for _, c := range conn.Calls() {
		if c == call {
			count++
		}
	}
	if count != n {
		t.Errorf("expected %d calls of %q, got %d\nactual:\n%s", n, call, count, formatCalls(conn.Calls()))
	}
}

// AssertNoCall asserts that call never occurred.
func AssertNoCall(t *testing.T, conn *FakeConn, call string) {
	t.Helper()
	AssertCallCount(t, conn, call, 0)
}

// AssertStatementsClosed asserts that every prepared statement handle and every
// cursor it returned was closed.
func AssertStatementsClosed(t *testing.T, conn *FakeConn) {
	t.Helper()
	conn.mu.Lock()
	stmts := make([]*FakeStatement, 0, len(conn.statements))
	for _, s := range conn.statements {
		stmts = append(stmts, s)
	}
	conn.mu.Unlock()

	for _, s := range stmts {
		if s.PrepareCount() > 0 && !s.Closed() {
			t.Errorf("statement %q was not closed", s.SQL())
		}
		for i, c := range s.Cursors() {
			if !c.Closed() {
				t.Errorf("cursor %d of statement %q was not closed", i, s.SQL())
			}
		}
	}
}

func formatCalls(calls []string) string {
	if len(calls) == 0 {
		return "  (none)"
	}
	var b strings.Builder
	for i, c := range calls {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  ")
		b.WriteString(c)
	}
	return b.String()
}
