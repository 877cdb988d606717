package browser

import (
	"runtime"
	"testing"
)

func TestOpenSupported(t *testing.T) {
	switch runtime.GOOS {
	case "darwin", "linux", "windows":
	default:
		t.Skipf("Unsupported platform: %s", runtime.GOOS)
	}
	if _, _, err := Command(runtime.GOOS, "https://example.com"); err != nil {
		t.Errorf("Command() error = %v", err)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantLast string
		wantErr  bool
	}{
		{"darwin", "open", "https://c.example/api/you", false},
		{"linux", "xdg-open", "https://c.example/api/you", false},
		{"windows", "rundll32", "https://c.example/api/you", false},
		{"plan9", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := Command(tt.goos, "https://c.example/api/you")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Command() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if args[len(args)-1] != tt.wantLast {
				t.Errorf("last arg = %q, want %q", args[len(args)-1], tt.wantLast)
			}
		})
	}
}
