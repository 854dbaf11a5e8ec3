package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"vesna/internal/driver"
	"vesna/internal/ui"
)

type annotateOutcome struct {
	result *driver.Result
	err    error
}

// runAnnotateWithUI запускает пайплайн в горутине и рисует прогресс через
// Bubble Tea, читая события стадий из канала до его закрытия.
func runAnnotateWithUI(ctx context.Context, title string, files []string, dir string, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.StageEvent, 256)
	outcomeCh := make(chan annotateOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Observer = func(ev driver.StageEvent) { events <- ev }
		res, err := driver.Annotate(ctx, dir, optsCopy)
		outcomeCh <- annotateOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
