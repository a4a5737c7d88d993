package main

import (
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
	"github.com/itohio/gotx/pkg/link"
	"github.com/itohio/gotx/pkg/mixer"
	"github.com/itohio/gotx/pkg/monitor"
	"github.com/itohio/gotx/pkg/sample"
	"github.com/itohio/gotx/pkg/tx"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated transmitter instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of ADC samples to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Runtime.AverageSamples = *averageSamplesFlag
	}

	application := app.NewWithID("com.itohio.gotx")

	window := application.NewWindow("gotx")
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		store:      config.NewStore(cfg.Model, cfg.Radio),
		window:     window,
		useMock:    *mockFlag,
		throttle:   updateThrottle{interval: updateInterval},
	}

	toolbar := createToolbar(state)
	state.monitor = monitor.New(cfg)

	content := container.NewBorder(
		toolbar,
		createTrimBar(state),
		nil,
		createSwitchPanel(state),
		state.monitor,
	)

	window.SetContent(content)
	window.ShowAndRun()

	closeTxChain(state.chain)
}

// txChain tracks the goroutines of one connection for graceful shutdown.
type txChain struct {
	device       link.Device
	runner       *tx.Runner
	samplesDone  chan struct{} // closed when the mixer goroutine exits
	capturesDone chan struct{} // closed when the capture goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	store      *config.Store
	monitor    *monitor.MonitorWidget
	window     fyne.Window
	connectBtn *widget.Button
	trainerBtn *widget.Button
	trimLabels [input.NumSticks]*widget.Label
	switches   *widget.CheckGroup
	useMock    bool
	chain      *txChain // nil if not connected

	throttle updateThrottle
}

// createToolbar creates the toolbar with Connect, Settings and trainer calibration buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	trainerBtn := widget.NewButtonWithIcon("Calibrate trainer", theme.MediaRecordIcon(), func() {
		handleTrainerCalibrate(state)
	})
	trainerBtn.Disable()
	state.trainerBtn = trainerBtn

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		container.NewHBox(trainerBtn),
		nil,
	)
}

// closeTxChain closes the device and waits for the runner goroutines to
// drain. The device closes its channels which ends both goroutines.
func closeTxChain(chain *txChain) {
	if chain == nil {
		return
	}

	if chain.device != nil {
		if err := chain.device.Close(); err != nil {
			log.Printf("Error closing device: %v", err)
		}
	}
	if chain.samplesDone != nil {
		<-chain.samplesDone
	}
	if chain.capturesDone != nil {
		<-chain.capturesDone
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.chain != nil && state.chain.device.IsConnected() {
		closeTxChain(state.chain)
		state.chain = nil
		state.trainerBtn.Disable()
		state.switches.Disable()
		log.Printf("Disconnected")
		return
	}

	var device link.Device
	if state.useMock {
		mock := link.NewMock(&state.cfg.Mock)
		mock.SetSwitches(uint32(checkedSwitches(state.switches.Selected)))
		device = mock
		log.Printf("Using simulated transmitter")
	} else {
		device = link.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, link.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", deviceName(state), err), state.window)
		return
	}
	log.Printf("Connected to %s", deviceName(state))

	runner := tx.New(state.cfg, state.store, device)
	runner.Engine().SetAudio(mixer.AudioFunc(playTone))

	// Throttle updates to ~60 FPS so the UI keeps up with the mixer cadence
	runner.OnUpdate(func(history []sample.Frame, st tx.Status) {
		if !state.throttle.allow() {
			return
		}
		UpdateWidgetOnMainThread(func() {
			state.monitor.UpdateData(history, st)
			updateTrimLabels(state, st.Trims)
		})
	})

	var convert sample.Converter
	if n := state.cfg.Runtime.AverageSamples; n > 1 {
		convert = sample.NewAveragingConverter(state.store, n, 500)
	} else {
		convert = sample.NewConverter(state.store, 500)
	}
	samples := convert(device.Samples())

	chain := &txChain{
		device:       device,
		runner:       runner,
		samplesDone:  make(chan struct{}),
		capturesDone: make(chan struct{}),
	}
	go func() {
		defer close(chain.samplesDone)
		runner.ProcessSamples(samples)
	}()
	go func() {
		defer close(chain.capturesDone)
		runner.ProcessCaptures(device.Captures())
	}()
	state.chain = chain

	state.trainerBtn.Enable()
	if state.useMock {
		state.switches.Enable()
	}
}

func deviceName(state *appState) string {
	if state.useMock {
		return "simulated transmitter"
	}
	return state.cfg.Serial.Port
}

// playTone stands in for the audio collaborator.
func playTone(t mixer.Tone) {
	log.Printf("Tone: %s", t)
}
