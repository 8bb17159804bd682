package mysql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestPlaceholders(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tc := range cases {
		if got := placeholders(tc.n); got != tc.want {
			t.Fatalf("placeholders(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestIsDuplicate(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	if !isDuplicate(dup) {
		t.Fatal("expected 1062 to be a duplicate")
	}
	if !isDuplicate(fmt.Errorf("insert job: %w", dup)) {
		t.Fatal("expected wrapped 1062 to be a duplicate")
	}
	if isDuplicate(&mysql.MySQLError{Number: 1213}) {
		t.Fatal("deadlock is not a duplicate")
	}
	if isDuplicate(errors.New("boom")) {
		t.Fatal("plain error is not a duplicate")
	}
}
