package execution

import (
	"net/url"
	"strings"

	"qte/internal/tree"
)

// Query builds the runner URL selecting tests. A single test is selected by
// module and name; several tests by repeated testId parameters, in order.
// Names the runner would read as an exclusion ("!name") or a regular
// expression ("/re/") are selected by testId instead.
func Query(indexURL string, tests []*tree.TestNode) string {
	if len(tests) == 0 {
		return indexURL
	}

	var params []string
	if len(tests) == 1 && literalFilter(tests[0].Name) {
		t := tests[0]
		params = append(params,
			"moduleId="+url.QueryEscape(t.ModuleID),
			"filter="+url.QueryEscape(t.Name))
	} else {
		for _, t := range tests {
			params = append(params, "testId="+url.QueryEscape(t.TestID))
		}
	}

	sep := "?"
	if strings.Contains(indexURL, "?") {
		sep = "&"
	}
	return indexURL + sep + strings.Join(params, "&")
}

func literalFilter(name string) bool {
	return name != "" && !strings.HasPrefix(name, "!") && !strings.HasPrefix(name, "/")
}
