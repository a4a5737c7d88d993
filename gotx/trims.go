package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gotx/pkg/input"
	"github.com/itohio/gotx/pkg/mixer"
)

var stickNames = [input.NumSticks]string{"RUD", "ELE", "THR", "AIL"}

// switchNames lists the physical switches in id order starting at 1.
var switchNames = []string{"THR", "RUD", "ELE", "ID0", "ID1", "ID2", "AIL", "GEA", "TRN"}

// createTrimBar creates a -/+ button pair and a value label per stick.
func createTrimBar(state *appState) fyne.CanvasObject {
	row := container.NewHBox()
	for i := range input.NumSticks {
		label := widget.NewLabel(formatTrim(i, state.store.Model().Trims[i]))
		state.trimLabels[i] = label

		down := widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() {
			handleTrim(state, i, false)
		})
		up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() {
			handleTrim(state, i, true)
		})
		row.Add(container.NewHBox(down, label, up))
	}
	return row
}

// handleTrim handles a trim button click.
func handleTrim(state *appState, stick int, up bool) {
	if state.chain == nil {
		return
	}
	v := state.chain.runner.Engine().AdjustTrim(mixer.TrimEvent{Stick: stick, Up: up})
	state.trimLabels[stick].SetText(formatTrim(stick, v))
}

// updateTrimLabels updates the trim labels from a runner status.
// Only touches labels whose value changed.
func updateTrimLabels(state *appState, trims [input.NumSticks]int8) {
	for i, v := range trims {
		text := formatTrim(i, v)
		if state.trimLabels[i].Text != text {
			state.trimLabels[i].SetText(text)
		}
	}
}

func formatTrim(stick int, v int8) string {
	return fmt.Sprintf("%s %+4d", stickNames[stick], v)
}

// handleTrainerCalibrate snapshots the trainer inputs as their centers.
func handleTrainerCalibrate(state *appState) {
	if state.chain == nil {
		return
	}
	if !state.chain.runner.Engine().CalibrateTrainer() {
		dialog.ShowInformation("Trainer", "No valid trainer signal to calibrate from", state.window)
		return
	}
	if err := saveConfig(state); err != nil {
		dialog.ShowError(err, state.window)
	}
}

// createSwitchPanel creates the switch toggles. They drive the simulated
// transmitter only; a real one reports its own switches.
func createSwitchPanel(state *appState) fyne.CanvasObject {
	group := widget.NewCheckGroup(switchNames, func(selected []string) {
		handleSwitches(state, selected)
	})
	group.Disable()
	state.switches = group
	return container.NewVBox(widget.NewLabel("Switches"), group)
}

// handleSwitches forwards the toggled switches to the simulated transmitter.
func handleSwitches(state *appState, selected []string) {
	if state.chain == nil {
		return
	}
	if sim, ok := state.chain.device.(interface{ SetSwitches(uint32) }); ok {
		sim.SetSwitches(uint32(checkedSwitches(selected)))
	}
}

// checkedSwitches returns the switch mask for the selected names.
func checkedSwitches(selected []string) input.Switches {
	var sw input.Switches
	for _, name := range selected {
		for i, n := range switchNames {
			if n == name {
				sw = sw.Set(i+1, true)
			}
		}
	}
	return sw
}
