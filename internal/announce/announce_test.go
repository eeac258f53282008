package announce

import "testing"

func TestPortFromListen(t *testing.T) {
	tests := []struct {
		listen  string
		want    int
		wantErr bool
	}{
		{listen: ":80", want: 80},
		{listen: "0.0.0.0:8080", want: 8080},
		{listen: "192.168.1.40:80", want: 80},
		{listen: "", wantErr: true},
		{listen: "no-port", wantErr: true},
		{listen: ":notaport", wantErr: true},
		{listen: ":0", wantErr: true},
		{listen: ":70000", wantErr: true},
	}

	for _, tt := range tests {
		got, err := PortFromListen(tt.listen)
		if tt.wantErr {
			if err == nil {
				t.Errorf("PortFromListen(%q) expected error, got %d", tt.listen, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("PortFromListen(%q) error = %v", tt.listen, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PortFromListen(%q) = %d, want %d", tt.listen, got, tt.want)
		}
	}
}
