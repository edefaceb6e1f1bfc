package commands

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qte/internal/config"
	"qte/internal/discovery"
	"qte/internal/domain"
	"qte/internal/execution"
	"qte/internal/storage"
	"qte/internal/tree"
	"qte/internal/ui"
)

const cartSource = `module('Cart', function () {
  test('adds item', function (assert) {
    assert.ok(true);
  });
  test('removes item', function (assert) {
    assert.ok(true);
  });
});
`

const checkoutSource = `module('Checkout', function () {
  test('pays', function (assert) {
    assert.equal(1, 2);
  });
});
`

func testCatalog() domain.Catalog {
	return domain.NewCatalog([]domain.RemoteModule{
		{Name: "Cart", ModuleID: "m1", Tests: []domain.RemoteTest{
			{Name: "adds item", TestID: "t1"},
			{Name: "removes item", TestID: "t2"},
		}},
		{Name: "Checkout", ModuleID: "m2", Tests: []domain.RemoteTest{
			{Name: "pays", TestID: "t3"},
		}},
	})
}

func testApp(t *testing.T) *app {
	t.Helper()
	color.NoColor = true

	root := t.TempDir()
	dir := filepath.Join(root, "tests", "unit")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart-test.js"), []byte(cartSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkout-test.js"), []byte(checkoutSource), 0644))

	cfg := config.New()
	cfg.ProjectPath = root
	cfg.Suites = []config.Suite{{Name: "unit", Dir: "tests/unit"}}
	cfg.ApplyFlags(config.Flags{ReportPath: filepath.Join(root, "out", "report.json")})
	return &app{config: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func loadedWorkspace(t *testing.T, a *app) *workspace {
	t.Helper()
	ws := newWorkspace(a.config, a.logger)
	t.Cleanup(ws.close)
	require.NoError(t, ws.load(context.Background()))
	for _, st := range ws.trees {
		st.tree.SetCatalog(context.Background(), testCatalog())
	}
	return ws
}

func ids(tests []*tree.TestNode) []string {
	var out []string
	for _, t := range tests {
		out = append(out, t.TestID)
	}
	return out
}

func TestWorkspace_Load(t *testing.T) {
	a := testApp(t)
	a.config.Suites = append(a.config.Suites, config.Suite{Name: "acceptance", Dir: "tests/acceptance"})
	ws := loadedWorkspace(t, a)

	require.Len(t, ws.trees, 1, "missing suite directories are skipped")
	assert.Equal(t, "unit", ws.trees[0].suite.Name)
	assert.Len(t, ws.trees[0].tree.Files(), 2)
}

func TestWorkspace_Collect(t *testing.T) {
	a := testApp(t)
	ws := loadedWorkspace(t, a)
	ctx := context.Background()

	tests := []struct {
		name    string
		keys    []string
		want    []string
		wantErr bool
	}{
		{name: "everything", keys: nil, want: []string{"t1", "t2", "t3"}},
		{name: "test id", keys: []string{"t2"}, want: []string{"t2"}},
		{name: "module id", keys: []string{"m2"}, want: []string{"t3"}},
		{name: "relative file", keys: []string{"tests/unit/cart-test.js"}, want: []string{"t1", "t2"}},
		{name: "unknown key", keys: []string{"t9"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ws.collect(ctx, tt.keys)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestRunCommand_ByName(t *testing.T) {
	a := testApp(t)
	ws := loadedWorkspace(t, a)
	all, err := ws.collect(context.Background(), nil)
	require.NoError(t, err)

	rc := NewRunCommand(a, discovery.NewFilter(), nil, nil, nil)

	a.config.Flags.NameFilter = "Cart > *"
	assert.Equal(t, []string{"t1", "t2"}, ids(rc.byName(all)))

	a.config.Flags.NameFilter = "pays"
	assert.Equal(t, []string{"t3"}, ids(rc.byName(all)))

	a.config.Flags.NameFilter = ""
	assert.Len(t, rc.byName(all), 3)
}

type fakeExecutor struct {
	summary *domain.RunSummary
	err     error
}

func (f fakeExecutor) Run(_ context.Context, _ []*tree.TestNode, _ execution.Reporter) (*domain.RunSummary, error) {
	return f.summary, f.err
}

type recordingViewer struct {
	viewed *domain.RunReport
}

func (v *recordingViewer) View(report *domain.RunReport) error {
	v.viewed = report
	return nil
}

func newTestRunCommand(a *app) (*RunCommand, *recordingViewer) {
	formatter := ui.NewFormatter(a.config)
	formatter.SetOutput(io.Discard)
	viewer := &recordingViewer{}
	return NewRunCommand(a, discovery.NewFilter(), storage.NewJSONStorage(a.config), formatter, viewer), viewer
}

func failingSummary() *domain.RunSummary {
	return &domain.RunSummary{
		RunID:  "run-1",
		State:  "completed",
		Passed: 1,
		Failed: 1,
		Results: []domain.TestResult{
			{TestID: "t1", Module: "Cart", Name: "adds item", Outcome: domain.OutcomePassed},
			{TestID: "t3", Module: "Checkout", Name: "pays", Outcome: domain.OutcomeFailed,
				Diagnostics: []domain.Diagnostic{{Message: "1 of 1 assertions failed"}}},
		},
	}
}

func TestRunCommand_Execute(t *testing.T) {
	ctx := context.Background()
	tests := []*tree.TestNode{{TestID: "t1"}, {TestID: "t3"}}

	t.Run("failures exit non-zero and write the report", func(t *testing.T) {
		a := testApp(t)
		rc, viewer := newTestRunCommand(a)

		err := rc.execute(ctx, fakeExecutor{summary: failingSummary()}, tests)
		assert.True(t, IsSilent(err))
		assert.Nil(t, viewer.viewed)

		data, err := os.ReadFile(a.config.GetReportPath())
		require.NoError(t, err)
		var report domain.RunReport
		require.NoError(t, json.Unmarshal(data, &report))
		assert.Equal(t, "run-1", report.Meta.RunID)
		require.Len(t, report.Details, 1)
		assert.Equal(t, "pays", report.Details[0].TestName)
	})

	t.Run("open failures shows the viewer", func(t *testing.T) {
		a := testApp(t)
		a.config.Flags.OpenFailures = true
		rc, viewer := newTestRunCommand(a)

		require.NoError(t, rc.execute(ctx, fakeExecutor{summary: failingSummary()}, tests))
		require.NotNil(t, viewer.viewed)
		assert.Len(t, viewer.viewed.Details, 1)

		data, err := os.ReadFile(a.config.GetReportPath())
		require.NoError(t, err)
		var saved domain.RunReport
		require.NoError(t, json.Unmarshal(data, &saved))
		assert.Equal(t, *viewer.viewed, saved)
	})

	t.Run("run failure is returned after the report", func(t *testing.T) {
		a := testApp(t)
		rc, _ := newTestRunCommand(a)
		summary := &domain.RunSummary{RunID: "run-2", State: "failed"}

		err := rc.execute(ctx, fakeExecutor{summary: summary, err: domain.ErrNetworkUnavailable}, tests)
		assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
		assert.FileExists(t, a.config.GetReportPath())
	})

	t.Run("rejected run", func(t *testing.T) {
		a := testApp(t)
		rc, _ := newTestRunCommand(a)

		err := rc.execute(ctx, fakeExecutor{err: execution.ErrRunInProgress}, tests)
		assert.True(t, errors.Is(err, execution.ErrRunInProgress))
		assert.NoFileExists(t, a.config.GetReportPath())
	})
}

func TestListCommand_Files(t *testing.T) {
	a := testApp(t)
	ws := loadedWorkspace(t, a)
	lc := NewListCommand(a, discovery.NewFilter(), nil)

	a.config.Flags.NameFilter = "*checkout*"
	files := lc.files(ws.trees[0].tree)
	require.Len(t, files, 1)
	assert.Equal(t, "checkout-test.js", filepath.Base(files[0].Path))
}
