package window

import "testing"

func TestParseRect(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Rect
		wantErr bool
	}{
		{"plain", "0,25,1036,772", Rect{0, 25, 1036, 772}, false},
		{"spaces", " 10, 20, 800, 600 ", Rect{10, 20, 800, 600}, false},
		{"negative origin", "-5,0,640,480", Rect{-5, 0, 640, 480}, false},
		{"too few parts", "10,20,800", Rect{}, true},
		{"non-numeric", "a,b,c,d", Rect{}, true},
		{"zero width", "0,0,0,600", Rect{}, true},
		{"negative height", "0,0,800,-1", Rect{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRect(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRect(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRect(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFixedFinder(t *testing.T) {
	want := Rect{X: 0, Y: 25, W: 1036, H: 772}
	finder := NewFixedFinder(want)

	got, err := finder.Find()
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != want {
		t.Errorf("Find() = %+v, want %+v", got, want)
	}
}
