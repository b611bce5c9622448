package monitor

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/kellerith/rox-farm-go/internal/logging"
)

const (
	alertSampleRate = beep.SampleRate(44100)
	alertFrequency  = 880.0
	alertDuration   = 400 * time.Millisecond
)

// ToneAlerter plays a short sine beep for operator attention. Audio init
// failure downgrades alerts to log lines instead of failing the run.
type ToneAlerter struct {
	logger *logging.Logger

	mu      sync.Mutex
	audioOK bool
}

// NewToneAlerter initializes the speaker once for the process lifetime
func NewToneAlerter() *ToneAlerter {
	a := &ToneAlerter{logger: logging.NewLogger("alert")}

	if err := speaker.Init(alertSampleRate, alertSampleRate.N(time.Second/10)); err != nil {
		a.logger.WarnWithFields("Audio unavailable, alerts will be log-only",
			map[string]interface{}{"error": err.Error()})
		return a
	}
	a.audioOK = true
	return a
}

// Alert logs the reason and plays the tone when audio is available
func (a *ToneAlerter) Alert(reason string) {
	a.logger.WarnWithFields("Alert", map[string]interface{}{"reason": reason})

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.audioOK {
		return
	}

	tone, err := generators.SineTone(alertSampleRate, alertFrequency)
	if err != nil {
		a.logger.WarnWithFields("Tone generation failed",
			map[string]interface{}{"error": err.Error()})
		return
	}
	speaker.Play(beep.Take(alertSampleRate.N(alertDuration), tone))
}
