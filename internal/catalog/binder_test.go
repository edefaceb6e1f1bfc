package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qte/internal/domain"
)

type fakeEvaluator struct {
	result []byte
	err    error
	block  bool

	url string
	js  string
}

func (f *fakeEvaluator) EvaluateAt(ctx context.Context, url, js string) ([]byte, error) {
	f.url, f.js = url, js
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func TestBinder_Fetch(t *testing.T) {
	eval := &fakeEvaluator{result: []byte(`[
		{"name":"Foo","moduleId":"m1","tests":[{"name":"bar","testId":"t1"}]},
		{"name":"Cart","moduleId":"m2","tests":[]}
	]`)}
	b := NewBinder(eval, "http://localhost:4200/tests/index.html", time.Second, nil)

	catalog, err := b.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4200/tests/index.html?testId=0", eval.url)
	assert.Equal(t, RegistryScript, eval.js)
	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, 1, catalog.TestCount())

	foo, ok := catalog.Module("Foo")
	require.True(t, ok)
	assert.Equal(t, "m1", foo.ModuleID)
	bar, ok := foo.Test("bar")
	require.True(t, ok)
	assert.Equal(t, "t1", bar.TestID)
}

func TestBinder_URL(t *testing.T) {
	b := NewBinder(nil, "http://localhost:4200/tests/index.html?hidepassed", 0, nil)
	assert.Equal(t, "http://localhost:4200/tests/index.html?hidepassed&testId=0", b.URL())
}

func TestBinder_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		eval *fakeEvaluator
	}{
		{"evaluation error", &fakeEvaluator{err: errors.New("net::ERR_CONNECTION_REFUSED")}},
		{"undecodable", &fakeEvaluator{result: []byte(`{"modules":1}`)}},
		{"timeout", &fakeEvaluator{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBinder(tt.eval, "http://localhost:4200/tests/index.html", 20*time.Millisecond, nil)
			catalog, err := b.Fetch(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrCatalogUnavailable))
			assert.Equal(t, 0, catalog.Len())
		})
	}
}
