package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultHost is where the application's test server listens
	DefaultHost = "http://localhost"
	// DefaultPort is the application's dev server port
	DefaultPort = 4200
	// DefaultIndexPath is the test runner page served by the application
	DefaultIndexPath = "/tests/index.html"
	// DefaultRunTimeout bounds a whole run
	DefaultRunTimeout = 30 * time.Second
	// DefaultCatalogTimeout bounds the catalog round-trip
	DefaultCatalogTimeout = 30 * time.Second
	// DefaultPages is the number of browser pages configured per session
	DefaultPages = 1
	// DefaultTestExtension is the extension of test source files
	DefaultTestExtension = ".js"
	// DefaultReportFile is the default run report file name
	DefaultReportFile = "qte-report.json"
	// DefaultReportDir is the default report directory
	DefaultReportDir = "tmp"
	// DefaultConfigFile is the optional config file looked up in the project root
	DefaultConfigFile = "qte.yaml"
	// EnvPrefix prefixes every environment variable qte reads
	EnvPrefix = "QTE_"
)

// DefaultSuites mirror the conventional test layout of the application
var DefaultSuites = []Suite{
	{Name: "unit", Dir: "tests/unit"},
	{Name: "integration", Dir: "tests/integration"},
	{Name: "acceptance", Dir: "tests/acceptance"},
}

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"node_modules",
	"bower_components",
	"dist",
	"tmp",
	"vendor",
}
