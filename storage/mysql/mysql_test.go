package mysql

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sommelier/searchbench/types"
)

func TestConnectionString(t *testing.T) {
	for i, test := range []struct {
		dsn       string
		want      string
		shouldErr bool
	}{
		{"", "", true},
		{"user:pass@tcp(db:3306)/bench", "charset=utf8mb4", false},
		{"user:pass@tcp(db:3306)/bench?charset=latin1", "charset=latin1", false},
		{"not a dsn", "", true},
	} {
		got, err := Storage{DSN: test.dsn}.connectionString()
		if test.shouldErr {
			if err == nil {
				t.Errorf("Test %d: expected an error for %q", i, test.dsn)
			}
			continue
		}
		if err != nil {
			t.Errorf("Test %d: didn't expect an error: %v", i, err)
			continue
		}
		if !strings.Contains(got, test.want) {
			t.Errorf("Test %d: expected '%s' in DSN, got '%s'", i, test.want, got)
		}
	}
}

func TestNew(t *testing.T) {
	s, err := New(json.RawMessage(`{"dsn":"u@tcp(db)/bench","create":true,"check_expiry":3600000000000}`))
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if !s.Create || s.CheckExpiry.Hours() != 1 || s.Type() != Type {
		t.Errorf("Unexpected storage: %+v", s)
	}
}

func TestEndpointRows(t *testing.T) {
	results := []types.Result{
		{Endpoint: "http://localhost:4000/api/search/semantic", Times: types.Samples{{RTT: time.Second}, {Error: "timeout"}}},
		{Endpoint: "http://localhost:4000/api/search/llm", Times: types.Samples{{Error: "timeout"}}, Down: true},
	}
	rows := endpointRows("1-bench.json", results)
	if got, want := len(rows), 2; got != want {
		t.Fatalf("Expected %d rows, got %d", want, got)
	}
	for i, row := range rows {
		if got := row[1]; got != i {
			t.Errorf("Row %d: expected position %d, got %v", i, i, got)
		}
		if got := row[2]; got != "" {
			t.Errorf("Row %d: expected the empty title, got %v", i, got)
		}
	}
	if mean := rows[0][5].(*int64); mean == nil || *mean != int64(time.Second) {
		t.Errorf("Expected a mean of 1s, got %v", mean)
	}
	if mean := rows[1][5].(*int64); mean != nil {
		t.Errorf("Expected no mean without successful samples, got %d", *mean)
	}
	if got, want := rows[1][4], string(types.StatusDown); got != want {
		t.Errorf("Expected status %s, got %v", want, got)
	}
}

func TestSchemaKeysOnPosition(t *testing.T) {
	if !strings.Contains(schema[1], "PRIMARY KEY (`run`, `position`)") {
		t.Errorf("Expected endpoint rows to be keyed by run and position:\n%s", schema[1])
	}
}
