// Package ui is the terminal dashboard of the health events console.
package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Ashfaaq98/health-console/internal/dashboard"
)

// Options configures the dashboard.
type Options struct {
	Theme string
}

// UI represents the terminal user interface
type UI struct {
	app    *tview.Application
	coord  *Coordinator
	logger *log.Logger

	// Layout components
	root       *tview.Flex
	appTitle   *tview.TextView
	filterView *tview.TextView
	eventTable *tview.Table
	detailView *tview.TextView
	statusBar  *tview.TextView

	// rows rendered in eventTable; UI goroutine only
	rows []Row

	// Theme state
	theme        Theme
	themeName    string
	hasTrueColor bool

	// Runtime
	running    atomic.Bool
	busy       int32 // atomic; a list refresh is in flight
	helpActive bool
	lastFocus  tview.Primitive

	ctx    context.Context
	cancel context.CancelFunc
}

var tableHeaders = []string{"", "Account ID", "Event ARN", "Service", "Region", "Event Type Code", "Category", "Start Time", "Last Updated", "Status", "Detail"}

// NewUI creates a new terminal user interface
func NewUI(ctx context.Context, coord *Coordinator, opts Options, logger *log.Logger) *UI {
	if logger == nil {
		logger = log.New(log.Writer(), "[UI] ", log.LstdFlags)
	}
	uiCtx, cancel := context.WithCancel(ctx)

	ui := &UI{
		app:          tview.NewApplication(),
		coord:        coord,
		logger:       logger,
		ctx:          uiCtx,
		cancel:       cancel,
		hasTrueColor: detectTrueColor(),
	}
	ui.themeName, ui.theme = themeByName(opts.Theme)

	ui.setupLayout()
	ui.setupKeybindings()
	ui.applyTheme()
	return ui
}

// Start runs the TUI until the context is done or the operator quits.
// The first list refresh starts in the background.
func (ui *UI) Start(ctx context.Context) error {
	ui.logger.Println("Starting TUI application")

	ui.running.Store(true)
	ui.refreshAsync()

	go func() {
		select {
		case <-ctx.Done():
		case <-ui.ctx.Done():
		}
		ui.cancel()
		ui.app.Stop()
	}()

	ui.startRedrawHeartbeat()

	err := ui.app.Run()
	ui.running.Store(false)
	ui.logger.Printf("app.Run() returned with error: %v", err)
	return err
}

// Stop stops the TUI application
func (ui *UI) Stop() {
	ui.logger.Println("Stopping TUI application")
	ui.cancel()
	ui.app.Stop()
}

// Redraw schedules a re-render. It is safe to call from any goroutine and
// is what session hooks call after background state changes.
func (ui *UI) Redraw() {
	if !ui.running.Load() {
		return
	}
	ui.app.QueueUpdateDraw(ui.render)
}

func (ui *UI) setupLayout() {
	ui.appTitle = tview.NewTextView().SetDynamicColors(true)

	ui.filterView = tview.NewTextView().SetDynamicColors(true)
	ui.filterView.SetTitle(" Filters ")
	ui.filterView.SetBorder(true)
	ui.filterView.SetTitleAlign(tview.AlignLeft)

	ui.eventTable = tview.NewTable()
	ui.eventTable.SetTitle(" Health Events ")
	ui.eventTable.SetBorder(true)
	ui.eventTable.SetTitleAlign(tview.AlignLeft)
	ui.eventTable.SetSelectable(true, false)
	// Pin header row so it stays visible when selecting/scrolling.
	ui.eventTable.SetFixed(1, 0)

	ui.detailView = tview.NewTextView()
	ui.detailView.SetTitle(" Event Details ")
	ui.detailView.SetBorder(true)
	ui.detailView.SetTitleAlign(tview.AlignLeft)
	ui.detailView.SetDynamicColors(true)
	ui.detailView.SetWordWrap(true)
	ui.detailView.SetScrollable(true)

	ui.statusBar = tview.NewTextView().SetDynamicColors(true)

	main := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.eventTable, 0, 3, true).
		AddItem(ui.detailView, 0, 2, false)

	ui.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.appTitle, 1, 0, false).
		AddItem(ui.filterView, 4, 0, false).
		AddItem(main, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)

	ui.app.SetRoot(ui.root, true)
	ui.app.SetFocus(ui.eventTable)

	ui.eventTable.SetSelectedFunc(func(row, col int) {
		if r, ok := ui.rowAt(row); ok {
			ui.coord.Toggle(r.Event.EventArn)
			ui.render()
		}
	})
	ui.eventTable.SetSelectionChangedFunc(func(row, col int) {
		ui.renderDetail()
	})
}

func (ui *UI) rowAt(tableRow int) (Row, bool) {
	if tableRow < 1 || tableRow-1 >= len(ui.rows) {
		return Row{}, false
	}
	return ui.rows[tableRow-1], true
}

// selectedRow returns the highlighted table row.
func (ui *UI) selectedRow() (Row, bool) {
	row, _ := ui.eventTable.GetSelection()
	return ui.rowAt(row)
}

func (ui *UI) setupKeybindings() {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// While a modal or form is active, allow it to handle all keys.
		if ui.isDialogActive() {
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC:
			ui.app.Stop()
			return nil
		case tcell.KeyEsc:
			ui.setStatusDirect("[%s]Ready[-:-:-]", ui.theme.TagAccent)
			return nil
		case tcell.KeyTab:
			ui.cycleFocus()
			return nil
		case tcell.KeyRight:
			if ui.app.GetFocus() == ui.eventTable {
				go ui.runAction("Loading next page...", ui.coord.NextPage)
				return nil
			}
		case tcell.KeyLeft:
			if ui.app.GetFocus() == ui.eventTable {
				go ui.runAction("Loading previous page...", ui.coord.PrevPage)
				return nil
			}
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				ui.app.Stop()
				return nil
			case 'r':
				ui.refreshAsync()
				return nil
			case 'R':
				go ui.runAction("Reloading page details...", ui.coord.RetryPage)
				return nil
			case 'A':
				go ui.runAction("Loading allowed accounts...", func(ctx context.Context) error {
					_, err := ui.coord.RefreshAccounts(ctx)
					return err
				})
				return nil
			case 'f':
				ui.showFilterForm()
				return nil
			case 'F':
				ui.coord.ResetFilters()
				ui.refreshAsync()
				return nil
			case 'N', 'n':
				go ui.runAction("Loading next page...", ui.coord.NextPage)
				return nil
			case 'P', 'p':
				go ui.runAction("Loading previous page...", ui.coord.PrevPage)
				return nil
			case 's':
				ui.summarizeSelected()
				return nil
			case 'a':
				if r, ok := ui.selectedRow(); ok {
					ui.coord.ToggleArn(r.Event.EventArn)
					ui.render()
				}
				return nil
			case 'j':
				ui.moveSelection(1)
				return nil
			case 'k':
				ui.moveSelection(-1)
				return nil
			case 't':
				ui.setTheme(nextTheme(ui.themeName))
				return nil
			case 'h', '?':
				ui.showHelp()
				return nil
			}
		}
		return event
	})
}

func (ui *UI) refreshAsync() {
	if !atomic.CompareAndSwapInt32(&ui.busy, 0, 1) {
		ui.setStatusDirect("[%s]Refresh already in progress[-:-:-]", ui.theme.TagWarning)
		return
	}
	go func() {
		defer atomic.StoreInt32(&ui.busy, 0)
		ui.runAction("Refreshing health events...", ui.coord.Refresh)
	}()
}

// runAction shows label, runs fn and re-renders. Call it off the UI goroutine.
func (ui *UI) runAction(label string, fn func(ctx context.Context) error) {
	if ui.running.Load() {
		ui.app.QueueUpdateDraw(func() {
			ui.setStatusDirect("[%s]%s[-:-:-]", ui.theme.TagWarning, label)
		})
	}
	if err := fn(ui.ctx); err != nil && !IsStale(err) {
		ui.logger.Printf("%s failed: %v", strings.TrimSuffix(label, "..."), err)
	}
	ui.Redraw()
}

func (ui *UI) summarizeSelected() {
	r, ok := ui.selectedRow()
	if !ok {
		return
	}
	if label, enabled := ui.coord.SummaryAction(r.Event.EventArn); !enabled {
		ui.setStatusDirect("[%s]%s[-:-:-]", ui.theme.TagWarning, tview.Escape(label))
		return
	}
	if ui.coord.Expanded() != r.Event.EventArn {
		ui.coord.Toggle(r.Event.EventArn)
	}
	_ = ui.coord.Summarize(ui.ctx, r.Event.EventArn)
	ui.render()
}

// render redraws every widget from coordinator state. UI goroutine only.
func (ui *UI) render() {
	ui.renderTitle()
	ui.renderFilters()
	ui.renderTable()
	ui.renderDetail()
	ui.renderStatus()
}

func (ui *UI) renderTitle() {
	page, total, events := ui.coord.PageInfo()
	if total == 0 {
		page = 0
	}
	ui.appTitle.SetText(fmt.Sprintf(" [%s]Health Events Console[-]  [%s]user:[-] %s  [%s]events:[-] %d  [%s]page:[-] %d/%d",
		ui.theme.TagAccent, ui.theme.TagMuted, tview.Escape(ui.coord.Session().UserID()),
		ui.theme.TagMuted, events, ui.theme.TagMuted, page, total))
}

func (ui *UI) renderFilters() {
	f := ui.coord.Session().Filters().Current()
	tag := func(label, value string) string {
		color := ui.theme.TagMuted
		if value != "All" {
			color = ui.theme.TagAccent
		}
		return fmt.Sprintf("[%s]%s:[-] [%s]%s[-]", ui.theme.TagTextPrimary, label, color, tview.Escape(value))
	}
	accounts := ui.coord.Session().Accounts().Accounts()
	ui.filterView.SetText(strings.Join([]string{
		tag("Management Account", f.ManagementAccount) + "  " + tag("Event ARN", f.EventArn),
		tag("Type", f.EventType) + "  " + tag("Category", f.EventCategory) + "  " + tag("Status", f.EventStatus) +
			"  " + tag("Service", f.Service) + "  " + tag("Region", f.Region) +
			fmt.Sprintf("  [%s](%d allowed accounts)[-]", ui.theme.TagMuted, len(accounts)),
	}, "\n"))
}

func (ui *UI) renderTable() {
	selected, _ := ui.eventTable.GetSelection()
	ui.rows = ui.coord.Rows()
	ui.eventTable.Clear()

	for col, header := range tableHeaders {
		ui.eventTable.SetCell(0, col, tview.NewTableCell(header).
			SetTextColor(ui.theme.TableHeader).
			SetBackgroundColor(ui.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}

	if len(ui.rows) == 0 {
		msg := "No events loaded. Press r to refresh, f to set filters."
		if atomic.LoadInt32(&ui.busy) == 1 {
			msg = "Loading..."
		}
		ui.eventTable.SetCell(1, 0, tview.NewTableCell(msg).
			SetTextColor(ui.theme.TableRowMuted).
			SetSelectable(false))
		return
	}

	for i, r := range ui.rows {
		ev := r.Event
		marker := "▸"
		if r.Expanded {
			marker = "▾"
		}
		detail, detailColor := "...", ui.theme.TableRowMuted
		switch r.State {
		case DetailLoaded:
			detail, detailColor = "ok", ui.theme.TableRow
			if r.Summary.State == dashboard.SummaryLoading {
				detail = "summarizing"
			}
		case DetailFailed:
			detail, detailColor = "failed", ui.theme.DetailFailed
		}

		cells := []string{marker, ev.AccountID, ui.coord.DisplayArn(ev.EventArn), ev.Service, ev.Region,
			ev.EventTypeCode, ev.EventTypeCategory, ev.StartTime, ev.LastUpdatedTime, ev.StatusCode, detail}
		for col, text := range cells {
			cell := tview.NewTableCell(tview.Escape(text)).SetTextColor(ui.theme.TableRow)
			switch col {
			case 9:
				cell.SetTextColor(ui.theme.statusColor(ev.StatusCode))
			case 10:
				cell.SetTextColor(detailColor)
			}
			ui.eventTable.SetCell(i+1, col, cell)
		}
	}

	if selected < 1 {
		selected = 1
	}
	if selected > len(ui.rows) {
		selected = len(ui.rows)
	}
	ui.eventTable.Select(selected, 0)
}

func (ui *UI) renderDetail() {
	r, ok := ui.selectedRow()
	if !ok {
		ui.detailView.SetText(fmt.Sprintf("[%s]Select an event and press Enter to expand it.[-]", ui.theme.TagMuted))
		return
	}
	arn := r.Event.EventArn
	if expanded := ui.coord.Expanded(); expanded != "" {
		for _, row := range ui.rows {
			if row.Event.EventArn == expanded {
				r, arn = row, expanded
				break
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]Event ARN:[-] %s\n\n", ui.theme.TagAccent, tview.Escape(arn))

	if !r.Expanded {
		fmt.Fprintf(&sb, "[%s]Press Enter to expand, s to summarize.[-]", ui.theme.TagMuted)
		ui.detailView.SetText(sb.String())
		return
	}

	for _, f := range ui.coord.DetailFields(arn) {
		fmt.Fprintf(&sb, "[%s]%s:[-] %s\n", ui.theme.TagAccent, tview.Escape(f.Name), tview.Escape(f.Value))
	}

	label, enabled := ui.coord.SummaryAction(arn)
	switch {
	case r.State == DetailFailed:
		fmt.Fprintf(&sb, "\n[%s::b]%s[-:-:-]\n", ui.theme.TagError, tview.Escape(label))
	case enabled:
		fmt.Fprintf(&sb, "\n[%s]%s[-]\n", ui.theme.TagSuccess, tview.Escape(label))
	default:
		fmt.Fprintf(&sb, "\n[%s]%s[-]\n", ui.theme.TagWarning, tview.Escape(label))
	}

	switch r.Summary.State {
	case dashboard.SummarySucceeded:
		text := r.Summary.Text
		if text == "" {
			text = "No summary returned"
		}
		fmt.Fprintf(&sb, "\n[%s::b]%s[-:-:-]\n", ui.theme.TagAccent, tview.Escape(text))
	case dashboard.SummaryFailed:
		fmt.Fprintf(&sb, "\n[%s::b]%s[-:-:-]\n", ui.theme.TagError, tview.Escape(r.Summary.Message))
	}

	ui.detailView.SetText(sb.String())
}

func (ui *UI) renderStatus() {
	st := ui.coord.Status()
	if st.Text == "" {
		ui.setStatusDirect("[%s]Ready[-:-:-]", ui.theme.TagAccent)
		return
	}
	color := ui.theme.TagSuccess
	if st.IsError {
		color = ui.theme.TagError
	}
	ui.setStatusDirect("[%s]%s[-:-:-]", color, tview.Escape(st.Text))
}

// setStatusDirect updates the status bar immediately. Use this only from the
// UI goroutine.
func (ui *UI) setStatusDirect(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05")
	ui.statusBar.SetText(fmt.Sprintf("[%s]%s[-] [%s]|[-] %s [%s]|[-] %s",
		ui.theme.TagMuted, timestamp,
		ui.theme.TagTextPrimary,
		message,
		ui.theme.TagMuted,
		ui.buildShortcutHints()))
}

// buildShortcutHints returns the most relevant shortcuts for the focused panel.
func (ui *UI) buildShortcutHints() string {
	type kv struct{ key, label string }
	hints := []kv{{"h", "help"}}
	if ui.app.GetFocus() == ui.eventTable {
		hints = append(hints, kv{"Enter", "expand"}, kv{"s", "summarize"}, kv{"N/P", "page"})
	}
	hints = append(hints, kv{"f", "filter"}, kv{"r", "refresh"}, kv{"q", "quit"})

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, fmt.Sprintf("[%s]%s[-]:%s", ui.theme.TagAccent, h.key, h.label))
	}
	return strings.Join(parts, " ")
}

// showFilterForm opens the filter form. Apply stores the selections and
// refreshes the list.
func (ui *UI) showFilterForm() {
	form := tview.NewForm()
	form.SetTitle(" Filters ")
	form.SetBorder(true)
	form.SetBackgroundColor(ui.theme.Surface)
	form.SetFieldBackgroundColor(ui.theme.Surface)
	form.SetFieldTextColor(ui.theme.TextPrimary)
	form.SetLabelColor(ui.theme.TextPrimary)
	form.SetButtonBackgroundColor(ui.theme.SelectionBg)
	form.SetButtonTextColor(ui.theme.SelectionFg)
	form.SetBorderColor(ui.theme.FocusBorder)

	labels := map[string]string{
		dashboard.FieldManagementAccount: "Management Account",
		dashboard.FieldEventArn:          "Event ARN",
		dashboard.FieldEventType:         "Event Type",
		dashboard.FieldEventCategory:     "Event Category",
		dashboard.FieldEventStatus:       "Event Status",
		dashboard.FieldService:           "Service",
		dashboard.FieldRegion:            "Region",
	}
	selections := make(map[string]string, len(dashboard.FilterFields))

	for _, field := range dashboard.FilterFields {
		field := field
		current, _ := ui.coord.Session().Filters().Get(field)
		selections[field] = current

		if field == dashboard.FieldEventArn {
			form.AddInputField(labels[field], current, 60, nil, func(text string) {
				selections[field] = text
			})
			continue
		}
		options := ui.coord.FilterOptions(field)
		initial := 0
		for i, o := range options {
			if o == current {
				initial = i
			}
		}
		form.AddDropDown(labels[field], options, initial, func(option string, _ int) {
			selections[field] = option
		})
	}

	form.AddButton("Apply", func() {
		for field, value := range selections {
			if err := ui.coord.SetFilter(field, value); err != nil {
				ui.logger.Printf("Filter %s rejected: %v", field, err)
			}
		}
		ui.restoreMainLayout()
		ui.refreshAsync()
	})
	form.AddButton("Cancel", ui.restoreMainLayout)
	form.SetCancelFunc(ui.restoreMainLayout)

	ui.lastFocus = ui.app.GetFocus()
	ui.app.SetRoot(centered(form, 90, 19), true)
	ui.app.SetFocus(form)
}

func (ui *UI) showHelp() {
	help := strings.Join([]string{
		"Navigation",
		"  j/k, Up/Down   move selection",
		"  Enter          expand or collapse the selected event",
		"  N/P, Right/Left next or previous page",
		"  Tab            switch panel",
		"",
		"Actions",
		"  r              refresh the event list",
		"  R              retry loading the current page's details",
		"  A              reload allowed accounts",
		"  f / F          edit filters / reset filters",
		"  s              summarize the selected event",
		"  a              show full or truncated ARN",
		"  t              cycle theme",
		"  q              quit",
	}, "\n")
	ui.helpActive = true
	ui.showModal("Help", help)
}

// showModal displays a modal dialog
func (ui *UI) showModal(title, text string) {
	modal := tview.NewModal()
	modal.SetText(text)
	modal.SetTitle(fmt.Sprintf(" %s ", title))
	modal.AddButtons([]string{"Close"})

	modal.SetBackgroundColor(ui.theme.Surface)
	modal.SetTextColor(ui.theme.TextPrimary)
	modal.SetBorderColor(ui.theme.FocusBorder)
	modal.SetButtonBackgroundColor(ui.theme.SelectionBg)
	modal.SetButtonTextColor(ui.theme.SelectionFg)

	modal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		ui.restoreMainLayout()
	})
	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyEnter, tcell.KeyRune:
			ui.restoreMainLayout()
			return nil
		}
		return event
	})

	ui.lastFocus = ui.app.GetFocus()
	ui.app.SetRoot(modal, true)
	ui.app.SetFocus(modal)
}

// restoreMainLayout restores the main layout after closing a modal or form.
func (ui *UI) restoreMainLayout() {
	ui.helpActive = false
	ui.app.SetRoot(ui.root, true)

	target := ui.lastFocus
	if target == nil {
		target = ui.eventTable
	}
	ui.app.SetFocus(target)
	ui.highlightFocus(target)
	ui.render()
}

func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// cycleFocus cycles focus between the table and the detail pane
func (ui *UI) cycleFocus() {
	target := tview.Primitive(ui.eventTable)
	if ui.app.GetFocus() == ui.eventTable {
		target = ui.detailView
	}
	ui.app.SetFocus(target)
	ui.highlightFocus(target)
	ui.renderStatus()
}

func (ui *UI) moveSelection(delta int) {
	if ui.app.GetFocus() != ui.eventTable {
		return
	}
	row, col := ui.eventTable.GetSelection()
	row += delta
	if row < 1 {
		row = 1
	}
	max := ui.eventTable.GetRowCount() - 1
	if max < 1 {
		max = 1
	}
	if row > max {
		row = max
	}
	ui.eventTable.Select(row, col)
}

func (ui *UI) highlightFocus(focused tview.Primitive) {
	ui.eventTable.SetBorderColor(ui.theme.Border)
	ui.detailView.SetBorderColor(ui.theme.Border)
	switch focused {
	case ui.eventTable:
		ui.eventTable.SetBorderColor(ui.theme.FocusBorder)
	case ui.detailView:
		ui.detailView.SetBorderColor(ui.theme.FocusBorder)
	}
}

// startRedrawHeartbeat periodically requests a redraw to mitigate terminals
// that miss repaints.
func (ui *UI) startRedrawHeartbeat() {
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ui.ctx.Done():
				return
			case <-ticker.C:
				if ui.running.Load() {
					ui.app.QueueUpdate(func() {})
				}
			}
		}
	}()
}

// isDialogActive returns true when a dialog or the help view is focused to
// bypass global shortcuts.
func (ui *UI) isDialogActive() bool {
	if ui.helpActive {
		return true
	}
	switch ui.app.GetFocus().(type) {
	case *tview.Form, *tview.Modal, *tview.InputField, *tview.DropDown, *tview.Button:
		return true
	default:
		return false
	}
}

// applyTheme pushes theme colors to widgets
func (ui *UI) applyTheme() {
	ui.appTitle.SetBackgroundColor(ui.theme.Surface)
	ui.appTitle.SetTextColor(ui.theme.TextPrimary)

	ui.filterView.SetBackgroundColor(ui.theme.Surface)
	ui.filterView.SetTextColor(ui.theme.TextPrimary)
	ui.filterView.SetBorderColor(ui.theme.Border)

	ui.eventTable.SetSelectedStyle(tcell.StyleDefault.Background(ui.theme.SelectionBg).Foreground(ui.theme.SelectionFg))
	ui.eventTable.SetBackgroundColor(ui.theme.Surface)

	ui.detailView.SetTextColor(ui.theme.TextPrimary)
	ui.detailView.SetBackgroundColor(ui.theme.Surface)

	ui.statusBar.SetTextColor(ui.theme.TextPrimary)
	ui.statusBar.SetBackgroundColor(ui.theme.Surface)

	ui.highlightFocus(ui.app.GetFocus())
	ui.render()
}

// setTheme applies a named theme
func (ui *UI) setTheme(name string) {
	ui.themeName, ui.theme = themeByName(name)
	ui.applyTheme()
	ui.setStatusDirect("[%s]Theme: %s[-:-:-]", ui.theme.TagAccent, ui.themeName)
}

// GetStats returns UI statistics
func (ui *UI) GetStats() map[string]interface{} {
	page, total, events := ui.coord.PageInfo()
	return map[string]interface{}{
		"events_loaded":  events,
		"page":           page,
		"total_pages":    total,
		"rows_rendered":  len(ui.rows),
		"expanded_event": ui.coord.Expanded(),
		"theme":          ui.themeName,
		"true_color":     ui.hasTrueColor,
	}
}
