package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"qte/internal/discovery"
	"qte/internal/tree"
	"qte/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	app       *app
	filter    *discovery.Filter
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(a *app, filter *discovery.Filter, formatter *ui.Formatter) *ListCommand {
	return &ListCommand{
		app:       a,
		filter:    filter,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws := newWorkspace(lc.app.config, lc.app.logger)
	defer ws.close()

	if err := ws.load(ctx); err != nil {
		return err
	}
	if len(ws.trees) == 0 {
		color.Yellow("No tests found")
		return nil
	}
	if err := ws.bind(ctx); err != nil {
		return err
	}

	for _, st := range ws.trees {
		if lc.app.config.Flags.NameFilter == "" {
			lc.formatter.PrintTree(st.tree)
			continue
		}
		lc.formatter.PrintFiles(st.suite.Name, lc.files(st.tree))
	}
	return nil
}

// files returns the tree's files narrowed by the name filter
func (lc *ListCommand) files(t *tree.Tree) []*tree.FileNode {
	files := t.Files()
	pattern := lc.app.config.Flags.NameFilter

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	keep := make(map[string]bool)
	for _, p := range lc.filter.FilterByName(paths, pattern) {
		keep[p] = true
	}

	var out []*tree.FileNode
	for _, f := range files {
		if keep[f.Path] {
			out = append(out, f)
		}
	}
	return out
}
