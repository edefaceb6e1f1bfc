package cli

import (
	"time"

	"qte/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	ProjectPath  string
	Suite        string
	NameFilter   string
	Debug        bool
	Wait         bool
	Timeout      time.Duration
	ReportPath   string
	OpenFailures bool
	RunOnChange  bool
	MetricsAddr  string
	Verbose      bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Suite:        f.Suite,
		NameFilter:   f.NameFilter,
		Debug:        f.Debug,
		Wait:         f.Wait,
		Timeout:      f.Timeout,
		ReportPath:   f.ReportPath,
		OpenFailures: f.OpenFailures,
		RunOnChange:  f.RunOnChange,
		MetricsAddr:  f.MetricsAddr,
		Verbose:      f.Verbose,
	}
}
