package farm

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	classifier := &Classifier{
		ReadyTokens: []string{"water", "ready"},
		IdleTokens:  []string{"growing", "empty"},
	}

	tests := []struct {
		name          string
		lines         []string
		wantState     GameState
		wantRemaining time.Duration
	}{
		{"ready token", []string{"Water Now!"}, StateActionAvailable, 0},
		{"idle token", []string{"still growing"}, StateIdle, 0},
		{"countdown mm:ss", []string{"02:15"}, StateOnCooldown, 2*time.Minute + 15*time.Second},
		{"countdown hh:mm:ss", []string{"1:02:03"}, StateOnCooldown, time.Hour + 2*time.Minute + 3*time.Second},
		{"countdown with misreads", []string{"0l:3O"}, StateOnCooldown, time.Minute + 30*time.Second},
		{"seconds out of range", []string{"02:75"}, StateUnknown, 0},
		{"minutes out of range", []string{"1:75:00"}, StateUnknown, 0},
		{"empty input", nil, StateUnknown, 0},
		{"blank lines only", []string{"  ", ""}, StateUnknown, 0},
		{"garbage", []string{"@@##"}, StateUnknown, 0},
		{"first hit wins", []string{"ready", "05:00"}, StateActionAvailable, 0},
		{"first line decides", []string{"02:00", "ready"}, StateOnCooldown, 2 * time.Minute},
		{"token case insensitive", []string{"READY to go"}, StateActionAvailable, 0},
		{"token inside longer line", []string{"the crop is growing fine"}, StateIdle, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifier.Classify(RecognitionResult{Lines: tc.lines})
			if got.State != tc.wantState {
				t.Errorf("State = %v, want %v", got.State, tc.wantState)
			}
			if got.Remaining != tc.wantRemaining {
				t.Errorf("Remaining = %v, want %v", got.Remaining, tc.wantRemaining)
			}
		})
	}
}

func TestClassifyNoTokensConfigured(t *testing.T) {
	classifier := &Classifier{}

	got := classifier.Classify(RecognitionResult{Lines: []string{"10:00"}})
	if got.State != StateOnCooldown {
		t.Errorf("State = %v, want OnCooldown", got.State)
	}

	got = classifier.Classify(RecognitionResult{Lines: []string{"anything"}})
	if got.State != StateUnknown {
		t.Errorf("State = %v, want Unknown", got.State)
	}
}

func TestParseCountdown(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"00:30", 30 * time.Second, true},
		{"59:59", 59*time.Minute + 59*time.Second, true},
		{"2:03:04", 2*time.Hour + 3*time.Minute + 4*time.Second, true},
		{"0:00:00", 0, true},
		{"60:00", 0, false},
		{"00:60", 0, false},
		{"1:2:3:4", 0, false},
		{"123:00", 0, false},
		{"ab:cd", 0, false},
		{"", 0, false},
		{"I0:S5", 10*time.Minute + 55*time.Second, true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := parseCountdown(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("duration = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGameStateString(t *testing.T) {
	tests := []struct {
		state GameState
		want  string
	}{
		{StateIdle, "idle"},
		{StateActionAvailable, "action_available"},
		{StateOnCooldown, "on_cooldown"},
		{StateUnknown, "unknown"},
		{GameState(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("GameState(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}
