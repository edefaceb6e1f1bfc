package domain

// Stage names one lifecycle callback of the in-page test runner
type Stage string

const (
	StageBegin       Stage = "begin"
	StageLog         Stage = "log"
	StageModuleStart Stage = "moduleStart"
	StageModuleDone  Stage = "moduleDone"
	StageTestStart   Stage = "testStart"
	StageTestDone    Stage = "testDone"
	StageDone        Stage = "done"
)

// Stages lists every lifecycle stage in the order the runner first emits them
func Stages() []Stage {
	return []Stage{StageBegin, StageModuleStart, StageTestStart, StageLog, StageTestDone, StageModuleDone, StageDone}
}

// Event is one lifecycle notification from a run.
// The set of implementations is closed: Begin, ModuleStart, TestStart, Log,
// TestDone, ModuleDone, Done and BridgeFailure.
type Event interface {
	Stage() Stage
	event()
}

// Begin is emitted once before any test runs
type Begin struct {
	TotalTests int `json:"totalTests"`
}

// ModuleStart is emitted when the runner enters a module
type ModuleStart struct {
	Name     string `json:"name"`
	ModuleID string `json:"moduleId"`
}

// TestStart is emitted when a test begins
type TestStart struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	TestID string `json:"testId"`
}

// Log is emitted for every assertion a test makes.
// Actual and Expected are nil when the assertion carried no values.
type Log struct {
	Module   string  `json:"module"`
	Name     string  `json:"name"`
	TestID   string  `json:"testId"`
	Result   bool    `json:"result"`
	Message  string  `json:"message"`
	Source   string  `json:"source"`
	Actual   *string `json:"actual"`
	Expected *string `json:"expected"`
}

// TestDone is emitted when a test finishes
type TestDone struct {
	Module  string  `json:"module"`
	Name    string  `json:"name"`
	TestID  string  `json:"testId"`
	Skipped bool    `json:"skipped"`
	Failed  int     `json:"failed"`
	Passed  int     `json:"passed"`
	Total   int     `json:"total"`
	Runtime float64 `json:"runtime"`
}

// ModuleDone is emitted when the runner leaves a module
type ModuleDone struct {
	Name    string  `json:"name"`
	Failed  int     `json:"failed"`
	Passed  int     `json:"passed"`
	Total   int     `json:"total"`
	Runtime float64 `json:"runtime"`
}

// Done is emitted once after the last test
type Done struct {
	Total   int     `json:"total"`
	Failed  int     `json:"failed"`
	Passed  int     `json:"passed"`
	Runtime float64 `json:"runtime"`
}

// BridgeFailure reports a callback payload that could not be turned into an event
type BridgeFailure struct {
	From Stage
	Err  error
}

func (Begin) Stage() Stage { return StageBegin }
func (ModuleStart) Stage() Stage { return StageModuleStart }
func (TestStart) Stage() Stage { return StageTestStart }
func (Log) Stage() Stage { return StageLog }
func (TestDone) Stage() Stage { return StageTestDone }
func (ModuleDone) Stage() Stage { return StageModuleDone }
func (Done) Stage() Stage { return StageDone }
func (f BridgeFailure) Stage() Stage { return f.From }

func (Begin) event() {}
func (ModuleStart) event() {}
func (TestStart) event() {}
func (Log) event() {}
func (TestDone) event() {}
func (ModuleDone) event() {}
func (Done) event() {}
func (BridgeFailure) event() {}
