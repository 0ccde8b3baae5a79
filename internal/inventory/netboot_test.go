package inventory

import "testing"

func TestValidateSystemName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"default", false},
		{"web1", false},
		{"web1.example.com", false},
		{"192.168.1.5", false},
		{"AA:BB:CC:DD:EE:FF", false},
		{"aa:bb:cc:dd:ee:ff", false},
		{"", true},
		{"not a hostname!", true},
		{"-leading-dash", true},
	}

	for _, tt := range tests {
		err := ValidateSystemName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ValidateSystemName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestNetbootFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc   string
		system *System
		iface  string
		want   string
	}{
		{
			desc:   "reserved default name",
			system: &System{Name: "default"},
			iface:  "eth0",
			want:   "default",
		},
		{
			desc: "mac encoded with dashes",
			system: &System{
				Name:       "web1",
				Interfaces: map[string]Interface{"eth0": {MAC: "AA:BB:CC:DD:EE:FF"}},
			},
			iface: "eth0",
			want:  "01-aa-bb-cc-dd-ee-ff",
		},
		{
			desc: "ip encoded as hex",
			system: &System{
				Name:       "web1",
				Interfaces: map[string]Interface{"eth0": {IP: "192.168.1.5"}},
			},
			iface: "eth0",
			want:  "C0A80105",
		},
		{
			desc: "system name used when interface carries no address",
			system: &System{
				Name:       "10.0.0.2",
				Interfaces: map[string]Interface{"eth0": {}},
			},
			iface: "eth0",
			want:  "0A000002",
		},
	}

	for _, tt := range tests {
		got, err := NetbootFilename(tt.system, tt.iface)
		if err != nil {
			t.Fatalf("%s: NetbootFilename() error = %v", tt.desc, err)
		}
		if got != tt.want {
			t.Fatalf("%s: NetbootFilename() = %q, want %q", tt.desc, got, tt.want)
		}
	}
}

func TestNetbootFilenameErrors(t *testing.T) {
	t.Parallel()

	system := &System{
		Name:       "web1",
		Interfaces: map[string]Interface{"eth0": {}},
	}
	if _, err := NetbootFilename(system, "eth1"); err == nil {
		t.Fatal("NetbootFilename() error = nil for unknown interface, want non-nil")
	}
	if _, err := NetbootFilename(system, "eth0"); err == nil {
		t.Fatal("NetbootFilename() error = nil for addressless interface, want non-nil")
	}

	system.Interfaces["eth0"] = Interface{MAC: "nonsense"}
	if _, err := NetbootFilename(system, "eth0"); err == nil {
		t.Fatal("NetbootFilename() error = nil for bad MAC, want non-nil")
	}
}
