package led

import (
	"testing"
)

func TestNewOutput(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BackendConfig
		wantErr bool
	}{
		{"noop", BackendConfig{Type: BackendNoop}, false},
		{"sysfs", BackendConfig{Type: "SYSFS", SysfsRoot: t.TempDir()}, false},
		{"auto", BackendConfig{}, false},
		{"unknown", BackendConfig{Type: "spi"}, true},
		{"modbus without endpoint", BackendConfig{Type: BackendModbus}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewOutput(tt.cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && out == nil {
				t.Error("NewOutput() returned nil output")
			}
		})
	}
}

func TestNoopOutput(t *testing.T) {
	out := NewNoop(nil)
	if err := out.Configure("any"); err != nil {
		t.Errorf("Configure() error = %v", err)
	}
	if err := out.SetLevel("any", High); err != nil {
		t.Errorf("SetLevel() error = %v", err)
	}
}

func TestDefaultLEDs(t *testing.T) {
	tests := []struct {
		board string
		want  []string
	}{
		{"FriendlyElec NanoPC-T6", []string{"system", "user"}},
		{"Orange Pi 5 Plus", []string{"blue", "green"}},
		{"Raspberry Pi 4 Model B Rev 1.4", []string{"act"}},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.board, func(t *testing.T) {
			specs := DefaultLEDs(tt.board)
			if len(specs) != len(tt.want) {
				t.Fatalf("DefaultLEDs() = %v, want %v", specs, tt.want)
			}
			for i, s := range specs {
				if s.Name != tt.want[i] {
					t.Errorf("LED %d = %q, want %q", i, s.Name, tt.want[i])
				}
			}
		})
	}
}

func TestDetectBoard(t *testing.T) {
	if DetectBoard() == "" {
		t.Error("DetectBoard() should never be empty")
	}
}
