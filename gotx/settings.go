package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/link"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createFrameTab(state),
		createRadioTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig writes the active model and radio settings with the rest of
// the configuration.
func saveConfig(state *appState) error {
	state.cfg.Model = state.store.Model().Clone()
	state.cfg.Radio = *state.store.Radio()
	if err := state.cfg.Save(state.configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := link.Ports()
	portOptions := []string{}
	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}

	currentPort := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if opt == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected == "" {
				return
			}
			changed := state.cfg.Serial.Port != portSelect.Selected
			state.cfg.Serial.Port = portSelect.Selected
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				changed = changed || state.cfg.Serial.BaudRate != baud
				state.cfg.Serial.BaudRate = baud
			}
			if err := saveConfig(state); err != nil {
				dialog.ShowError(err, state.window)
				return
			}

			// Reconnect with the new port
			if changed && state.chain != nil && !state.useMock {
				handleConnect(state) // disconnect
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createFrameTab creates the pulse frame configuration tab. Changes go
// through a store reload so the frame is never built from a half written
// model.
func createFrameTab(state *appState) *container.TabItem {
	m := state.store.Model()

	protocols := []string{config.ProtoPPM.String(), config.ProtoPPM16.String(), config.ProtoPPMSim.String()}
	protocolSelect := widget.NewSelect(protocols, nil)
	protocolSelect.SetSelectedIndex(int(m.Protocol))

	roles := []string{config.RoleMaster.String(), config.RoleSlave.String()}
	roleSelect := widget.NewSelect(roles, nil)
	roleSelect.SetSelectedIndex(int(m.Role))

	channelsEntry := widget.NewEntry()
	channelsEntry.SetText(strconv.Itoa(m.PPM.Channels))

	delayEntry := widget.NewEntry()
	delayEntry.SetText(strconv.Itoa(m.PPM.Delay))

	frameLengthEntry := widget.NewEntry()
	frameLengthEntry.SetText(strconv.Itoa(m.PPM.FrameLength))

	start2Entry := widget.NewEntry()
	start2Entry.SetText(strconv.Itoa(m.PPM.Start2))

	channels2Entry := widget.NewEntry()
	channels2Entry.SetText(strconv.Itoa(m.PPM.Channels2))

	multiplierEntry := widget.NewEntry()
	multiplierEntry.SetText(strconv.Itoa(int(m.PPM.InputMultiplier)))

	polarityCheck := widget.NewCheck("", nil)
	polarityCheck.SetChecked(m.PPM.PositivePol)

	extendedCheck := widget.NewCheck("", nil)
	extendedCheck.SetChecked(m.ExtendedLimits)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Protocol", Widget: protocolSelect},
			{Text: "Trainer Role", Widget: roleSelect},
			{Text: "Channels", Widget: channelsEntry},
			{Text: "Delay (x50 us)", Widget: delayEntry},
			{Text: "Frame Length (us)", Widget: frameLengthEntry},
			{Text: "Positive Polarity", Widget: polarityCheck},
			{Text: "Extended Limits", Widget: extendedCheck},
			{Text: "PPM16 Start Channel", Widget: start2Entry},
			{Text: "PPM16 Channels", Widget: channels2Entry},
			{Text: "Trainer Input Multiplier", Widget: multiplierEntry},
		},
		OnSubmit: func() {
			state.store.BeginReload()
			next := state.store.Model().Clone()
			next.Protocol = config.Protocol(max(0, protocolSelect.SelectedIndex()))
			next.Role = config.Role(max(0, roleSelect.SelectedIndex()))
			next.PPM.PositivePol = polarityCheck.Checked
			next.ExtendedLimits = extendedCheck.Checked
			setInt(&next.PPM.Channels, channelsEntry.Text)
			setInt(&next.PPM.Delay, delayEntry.Text)
			setInt(&next.PPM.FrameLength, frameLengthEntry.Text)
			setInt(&next.PPM.Start2, start2Entry.Text)
			setInt(&next.PPM.Channels2, channels2Entry.Text)
			if v, err := strconv.ParseInt(multiplierEntry.Text, 10, 8); err == nil {
				next.PPM.InputMultiplier = int8(v)
			}

			if err := state.store.Commit(next); err != nil {
				dialog.ShowError(fmt.Errorf("frame settings rejected: %w", err), state.window)
				return
			}
			state.monitor.SetModel(next)
			if err := saveConfig(state); err != nil {
				dialog.ShowError(err, state.window)
			}
		},
	}

	return container.NewTabItem("Frame", form)
}

// createRadioTab creates the radio wide settings tab.
func createRadioTab(state *appState) *container.TabItem {
	r := state.store.Radio()

	throttleCheck := widget.NewCheck("", nil)
	throttleCheck.SetChecked(r.ThrottleReversed)

	inactivityEntry := widget.NewEntry()
	inactivityEntry.SetText(strconv.Itoa(int(r.InactivityMinutes)))

	trainerCheck := widget.NewCheck("", nil)
	trainerCheck.SetChecked(state.store.Model().TrainerOn)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Throttle Reversed", Widget: throttleCheck},
			{Text: "Inactivity Alarm (min, 0=off)", Widget: inactivityEntry},
			{Text: "Trainer Enabled", Widget: trainerCheck},
		},
		OnSubmit: func() {
			next := *state.store.Radio()
			next.ThrottleReversed = throttleCheck.Checked
			if v, err := strconv.ParseUint(inactivityEntry.Text, 10, 8); err == nil {
				next.InactivityMinutes = uint8(v)
			}
			if err := state.store.SetRadio(next); err != nil {
				dialog.ShowError(fmt.Errorf("radio settings rejected: %w", err), state.window)
				return
			}
			err := state.store.UpdateModel(func(m *config.Model) error {
				m.TrainerOn = trainerCheck.Checked
				return nil
			})
			if err != nil {
				dialog.ShowError(err, state.window)
				return
			}
			if err := saveConfig(state); err != nil {
				dialog.ShowError(err, state.window)
			}
		},
	}

	return container.NewTabItem("Radio", form)
}

// createMockTab creates the simulated transmitter configuration tab.
// Changes apply on the next connect.
func createMockTab(state *appState) *container.TabItem {
	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.Period.String())

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(strconv.Itoa(state.cfg.Mock.Noise))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Sample Rate", Widget: sampleRateEntry},
			{Text: "Sweep Period", Widget: periodEntry},
			{Text: "Noise (ADC counts)", Widget: noiseEntry},
		},
		OnSubmit: func() {
			if sr, err := time.ParseDuration(sampleRateEntry.Text); err == nil && sr > 0 {
				state.cfg.Mock.SampleRate = sr
			}
			if p, err := time.ParseDuration(periodEntry.Text); err == nil && p > 0 {
				state.cfg.Mock.Period = p
			}
			setInt(&state.cfg.Mock.Noise, noiseEntry.Text)
			if err := saveConfig(state); err != nil {
				dialog.ShowError(err, state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}

// setInt stores text into dst if it parses.
func setInt(dst *int, text string) {
	if v, err := strconv.Atoi(text); err == nil {
		*dst = v
	}
}
