package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog([]RemoteModule{
		{Name: "Foo", ModuleID: "m1", Tests: []RemoteTest{{Name: "bar", TestID: "t1"}, {Name: "baz", TestID: "t2"}}},
		{Name: "Qux", ModuleID: "m2"},
		{Name: "Foo", ModuleID: "m3"},
	})

	m, ok := c.Module("Foo")
	require.True(t, ok)
	assert.Equal(t, "m1", m.ModuleID, "first registration wins")

	tst, ok := m.Test("baz")
	require.True(t, ok)
	assert.Equal(t, "t2", tst.TestID)

	_, ok = m.Test("missing")
	assert.False(t, ok)

	_, ok = c.Module("foo")
	assert.False(t, ok, "lookup is case sensitive")

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.TestCount())
}

func TestCatalog_ZeroValue(t *testing.T) {
	var c Catalog
	_, ok := c.Module("Foo")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestRemediation(t *testing.T) {
	wrapped := fmt.Errorf("navigate: %w", ErrNetworkUnavailable)
	assert.NotEmpty(t, Remediation(wrapped))
	assert.Contains(t, UserMessage(wrapped), "host and port")
	assert.Empty(t, Remediation(errors.New("other")))
	assert.Equal(t, "other", UserMessage(errors.New("other")))
}

func TestNewTestFailure(t *testing.T) {
	r := TestResult{
		TestID:  "t1",
		Module:  "Foo",
		Name:    "bar",
		File:    "tests/unit/foo-test.js",
		Outcome: OutcomeFailed,
		Diagnostics: []Diagnostic{
			{Message: "boom", Range: SourceRange{File: "tests/unit/foo-test.js", StartLine: 4}},
		},
	}
	f := NewTestFailure(r)
	assert.Equal(t, 5, f.Line)
	assert.Equal(t, "Foo", f.ModuleName)
	assert.Len(t, f.Diagnostics, 1)
}
