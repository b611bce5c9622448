package farm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/events"
	"github.com/kellerith/rox-farm-go/internal/input"
	"github.com/kellerith/rox-farm-go/internal/logging"
	"github.com/kellerith/rox-farm-go/internal/ocr"
	"github.com/kellerith/rox-farm-go/internal/vision"
)

// CaptchaBrightness is the math-region average brightness above which the
// CAPTCHA dialog is considered present.
const CaptchaBrightness = 160.0

// retryOffsets are the capture shifts tried when the first OCR read is
// low-signal. A slightly moved crop often clears a glyph cut in half.
var retryOffsets = [][2]int{{-3, 0}, {3, 2}, {0, -3}}

// CaptchaSolver detects and answers the garden watering arithmetic check
type CaptchaSolver struct {
	vision     *vision.Service
	recognizer ocr.Recognizer
	dispatcher input.Dispatcher
	bus        events.EventBus
	recorder   Recorder
	logger     *logging.Logger

	pause func(ctx context.Context, d time.Duration) bool

	alerter Alerter

	mu                sync.Mutex
	solved            int
	failed            int
	consecutiveFailed int
}

// NewCaptchaSolver wires a solver to its capture, recognition and input
// dependencies.
func NewCaptchaSolver(vs *vision.Service, rec ocr.Recognizer, disp input.Dispatcher, bus events.EventBus, recorder Recorder) *CaptchaSolver {
	return &CaptchaSolver{
		vision:     vs,
		recognizer: rec,
		dispatcher: disp,
		bus:        bus,
		recorder:   recorder,
		logger:     logging.NewLogger("captcha"),
		pause:      sleepWithContext,
		alerter:    NopAlerter{},
	}
}

// WithAlerter routes repeated solve failures to an operator alert
func (s *CaptchaSolver) WithAlerter(a Alerter) *CaptchaSolver {
	if a != nil {
		s.alerter = a
	}
	return s
}

// SolvedCount returns how many CAPTCHAs were solved this run
func (s *CaptchaSolver) SolvedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solved
}

// Detect reports whether the CAPTCHA dialog is visible by probing the
// math region's brightness. The dialog is a bright modal over the garden.
func (s *CaptchaSolver) Detect(pos *calibration.GardenPositions) (bool, error) {
	r := pos.MathRegion
	img, err := s.vision.CaptureRegion(r.X, r.Y, r.W, r.H)
	if err != nil {
		return false, err
	}
	brightness := vision.AverageBrightness(img)
	if brightness <= CaptchaBrightness {
		return false, nil
	}
	s.bus.Publish(events.NewCaptchaDetectedEvent(brightness))
	return true, nil
}

// Solve reads the expression, computes the answer and types it. One full
// re-read retry when the first attempt fails to produce a solvable
// expression. DryRun dispatchers make this a detect-and-report pass.
func (s *CaptchaSolver) Solve(ctx context.Context, pos *calibration.GardenPositions) error {
	for attempt := 0; attempt < 2; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt > 0 {
			if !s.pause(ctx, 800*time.Millisecond) {
				return ctx.Err()
			}
			s.vision.InvalidateCache()
		}

		expr, answer, raw, err := s.read(ctx, pos)
		if err != nil {
			s.logger.WarnWithFields("Expression read failed",
				map[string]interface{}{"attempt": attempt + 1, "error": err.Error()})
			continue
		}

		s.logger.InfoWithFields("Captcha solved",
			map[string]interface{}{"expression": expr, "answer": answer, "raw": raw})
		if err := s.typeAnswer(ctx, pos, answer); err != nil {
			return fmt.Errorf("failed to type answer: %w", err)
		}

		s.mu.Lock()
		s.solved++
		s.consecutiveFailed = 0
		s.mu.Unlock()
		s.bus.Publish(events.NewCaptchaSolvedEvent(expr, answer))
		s.recorder.RecordCaptcha(expr, answer, true)
		return nil
	}

	s.mu.Lock()
	s.failed++
	s.consecutiveFailed++
	streak := s.consecutiveFailed
	s.mu.Unlock()
	if streak >= 2 {
		s.alerter.Alert(fmt.Sprintf("captcha unreadable %d times in a row", streak))
	}
	s.bus.Publish(events.NewCaptchaFailedEvent("unreadable after retry"))
	s.recorder.RecordCaptcha("", 0, false)
	return fmt.Errorf("captcha unreadable after retry")
}

// read captures the math region, collecting shifted shots when the first
// read is low-signal, and returns the solved expression.
func (s *CaptchaSolver) read(ctx context.Context, pos *calibration.GardenPositions) (string, int, string, error) {
	r := pos.MathRegion

	var candidates []string
	collect := func(x, y int) {
		img, err := s.vision.CaptureRegion(x, y, r.W, r.H)
		if err != nil {
			return
		}
		lines, err := s.recognizer.RecognizeImage(ctx, img)
		if err != nil {
			return
		}
		candidates = append(candidates, lines...)
	}

	collect(r.X, r.Y)
	if !hasSignal(candidates) {
		for _, off := range retryOffsets {
			s.vision.InvalidateCache()
			collect(r.X+off[0], r.Y+off[1])
			if hasSignal(candidates) {
				break
			}
		}
	}

	raw := strings.Join(candidates, " ")
	for _, candidate := range candidates {
		normalized := normalizeExpression(candidate)
		a, op, b, ok := extractExpression(normalized)
		if !ok {
			continue
		}
		answer, err := evaluate(a, op, b)
		if err != nil {
			continue
		}
		return fmt.Sprintf("%d%c%d", a, op, b), answer, raw, nil
	}

	// No operator survived OCR; try digit-pair recovery over all shots
	if a, op, b, ok := recoverFromDigits(candidates); ok {
		answer, err := evaluate(a, op, b)
		if err == nil {
			return fmt.Sprintf("%d%c%d", a, op, b), answer, raw, nil
		}
	}

	return "", 0, raw, fmt.Errorf("no expression in %q", raw)
}

// typeAnswer taps the input field, clears it, types the digits on the
// numpad, confirms, then dismisses the dialog with OK.
func (s *CaptchaSolver) typeAnswer(ctx context.Context, pos *calibration.GardenPositions, answer int) error {
	steps := []func() error{
		func() error { return s.dispatcher.Click(pos.Input.X, pos.Input.Y, 4) },
		func() error { return s.clickPad(pos, "clear") },
		func() error { return s.dispatcher.TypeDigits(answer, pos.Numpad) },
		func() error { return s.clickPad(pos, "confirm") },
		func() error { return s.dispatcher.Click(pos.OK.X, pos.OK.Y, 4) },
	}
	for _, step := range steps {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := step(); err != nil {
			return err
		}
		if !s.pause(ctx, 300*time.Millisecond) {
			return ctx.Err()
		}
	}
	return nil
}

func (s *CaptchaSolver) clickPad(pos *calibration.GardenPositions, key string) error {
	xy, ok := pos.Numpad[key]
	if !ok {
		return fmt.Errorf("numpad key %q not derived", key)
	}
	return s.dispatcher.Click(xy.X, xy.Y, 3)
}

// hasSignal reports whether any candidate contains at least two digits,
// the minimum a readable expression produces.
func hasSignal(candidates []string) bool {
	for _, c := range candidates {
		digits := 0
		for _, r := range c {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 2 {
			return true
		}
	}
	return false
}

var (
	plusMisread  = regexp.MustCompile(`([0-9])\s*[tT]\s*([0-9])`)
	minusMisread = regexp.MustCompile(`([0-9])\s*[lI|]\s*([0-9])`)
	exprAnchored = regexp.MustCompile(`^([0-9]{1,3})([+*/-])([0-9]{1,3})$`)
	exprEmbedded = regexp.MustCompile(`([0-9]{1,3})([+*/-])([0-9]{1,3})`)
)

// normalizeExpression maps known OCR misreads onto arithmetic operators
// and strips everything that cannot be part of an expression. The t and l
// substitutions only apply between digits so tokens like "total" survive
// being stripped instead of becoming operators.
func normalizeExpression(raw string) string {
	s := strings.NewReplacer("×", "*", "x", "*", "X", "*", "÷", "/").Replace(raw)
	s = plusMisread.ReplaceAllString(s, "$1+$2")
	s = minusMisread.ReplaceAllString(s, "$1-$2")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || strings.ContainsRune("+*/-", r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// extractExpression pulls A op B out of a normalized string, whole-string
// match first, then the first embedded occurrence.
func extractExpression(s string) (a int, op byte, b int, ok bool) {
	m := exprAnchored.FindStringSubmatch(s)
	if m == nil {
		m = exprEmbedded.FindStringSubmatch(s)
	}
	if m == nil {
		return 0, 0, 0, false
	}
	a, _ = strconv.Atoi(m[1])
	b, _ = strconv.Atoi(m[3])
	return a, m[2][0], b, true
}

// recoverFromDigits handles shots where the operator glyph was lost
// entirely. With 2-4 digits across the candidates, try the digit-pair
// splits with each operator in preference order and keep the first
// plausible result.
func recoverFromDigits(candidates []string) (int, byte, int, bool) {
	var digits []int
	for _, c := range candidates {
		for _, r := range normalizeExpression(c) {
			if r >= '0' && r <= '9' {
				digits = append(digits, int(r-'0'))
			}
		}
		if len(digits) > 0 {
			break // one shot's digits only, mixing shots duplicates glyphs
		}
	}
	if len(digits) < 2 || len(digits) > 4 {
		return 0, 0, 0, false
	}

	var splits [][2]int
	switch len(digits) {
	case 2:
		splits = [][2]int{{digits[0], digits[1]}}
	case 3:
		splits = [][2]int{
			{digits[0], digits[1]*10 + digits[2]},
			{digits[0]*10 + digits[1], digits[2]},
		}
	case 4:
		splits = [][2]int{{digits[0]*10 + digits[1], digits[2]*10 + digits[3]}}
	}

	for _, op := range []byte{'+', '*', '-'} {
		for _, split := range splits {
			result, err := evaluate(split[0], op, split[1])
			if err == nil && result >= 0 {
				return split[0], op, split[1], true
			}
		}
	}
	return 0, 0, 0, false
}

// evaluate computes the expression with integer arithmetic. Division is
// accepted only when exact; the dialog never asks for fractions.
func evaluate(a int, op byte, b int) (int, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		if a-b < 0 {
			return 0, fmt.Errorf("negative result for %d-%d", a, b)
		}
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		if a%b != 0 {
			return 0, fmt.Errorf("inexact division %d/%d", a, b)
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", string(op))
	}
}
