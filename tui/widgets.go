package tui

import (
	"fmt"
	"sort"
	"strings"

	"codeberg.org/tslocum/cview"
	"github.com/riadafridishibly/sqlitevacuum/display"
	"github.com/riadafridishibly/sqlitevacuum/status"
)

// maxErrorsShown bounds the error modal, the log file has all of them.
const maxErrorsShown = 20

func (a *App) replaceHomeWithTilde(p string) string {
	if !a.replaceHome || a.userHomeDir == "" {
		return p
	}
	if after, ok := strings.CutPrefix(p, a.userHomeDir); ok {
		p = "~" + after
	}
	return p
}

// sortByDelta orders the biggest wins first, ties by path.
func sortByDelta(items []status.Outcome) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Delta != items[j].Delta {
			return items[i].Delta > items[j].Delta
		}
		return items[i].Path < items[j].Path
	})
}

func (a *App) buildTable() *cview.Table {
	theme := a.currentTheme
	table := a.table
	table.Clear()
	sortByDelta(a.items)
	for row := range a.items {
		item := &a.items[row]

		deltaColor := theme.yellow
		if item.Delta < 0 {
			deltaColor = theme.red
		}
		deltaCell := cview.NewTableCell(fmt.Sprintf(" %s ", display.FormatSize(item.Delta)))
		deltaCell.SetTextColor(deltaColor)
		deltaCell.SetAlign(cview.AlignRight)
		// always bind the reference to 0th column
		deltaCell.SetReference(item)
		table.SetCell(row, 0, deltaCell)

		sizeCell := cview.NewTableCell(fmt.Sprintf(" %s -> %s ", display.FormatSize(item.SizeBefore), display.FormatSize(item.SizeAfter)))
		sizeCell.SetTextColor(theme.green)
		sizeCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 1, sizeCell)

		pathCell := cview.NewTableCell(cview.Escape(a.replaceHomeWithTilde(item.Path)))
		pathCell.SetTextColor(theme.fg)
		pathCell.SetAlign(cview.AlignLeft)
		pathCell.SetExpansion(1)
		table.SetCell(row, 2, pathCell)
	}

	table.SetBorder(false)
	table.SetBorders(false)
	table.SetSelectable(true, false)
	table.SetSeparator(' ')

	return table
}

func (a *App) selectedItem() (*status.Outcome, bool) {
	row, _ := a.table.GetSelection()
	cell := a.table.GetCell(row, 0)
	if cell == nil {
		return nil, false
	}
	item, ok := cell.GetReference().(*status.Outcome)
	if !ok {
		a.logger.Debugf("expected *status.Outcome, but found %T", cell.GetReference())
	}
	return item, ok
}

func (a *App) showItemDetail() {
	item, ok := a.selectedItem()
	if !ok {
		return
	}

	var detail strings.Builder
	fmt.Fprintf(&detail, "Path: %s\n", item.Path)
	fmt.Fprintf(&detail, "Before: %s\n", display.FormatSize(item.SizeBefore))
	fmt.Fprintf(&detail, "After: %s\n", display.FormatSize(item.SizeAfter))
	fmt.Fprintf(&detail, "Reclaimed: %s\n", display.FormatSize(item.Delta))
	fmt.Fprintf(&detail, "Took: %s\n", item.Duration)

	a.detailModal.SetText(detail.String())
	a.showDetail = true
	a.setRoot(a.detailModal, false)
}

func errorsText(errs []*status.Error) string {
	if len(errs) == 0 {
		return "No errors"
	}
	start := max(len(errs)-maxErrorsShown, 0)
	var b strings.Builder
	if start > 0 {
		fmt.Fprintf(&b, "(%d earlier errors in the log file)\n", start)
	}
	for _, err := range errs[start:] {
		fmt.Fprintf(&b, "%s\n", cview.Escape(fmt.Sprintf("[%s] %s", err.Kind, err.Error())))
	}
	return b.String()
}

func (a *App) showErrors() {
	a.detailModal.SetText(errorsText(a.errs))
	a.showDetail = true
	a.setRoot(a.detailModal, false)
}
