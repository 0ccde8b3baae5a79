package arch

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  Architecture
	}{
		{"x86_64", X86_64},
		{"x86-64", X86_64},
		{"amd64", X86_64},
		{"X86_64", X86_64},
		{" x86_64 ", X86_64},
		{"i386", X86},
		{"i686", X86},
		{"386", X86},
		{"ia64", IA64},
		{"itanium", IA64},
		{"ia-64", IA64},
		{"standard", Standard},
		{"", Standard},
		{"sparc", Architecture("")},
	}

	for _, tt := range tests {
		if got := Normalize(tt.value); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestParseUnsupported(t *testing.T) {
	t.Parallel()

	if _, err := Parse("sparc"); err == nil {
		t.Fatal("Parse(\"sparc\") error = nil, want non-nil")
	}
}

func TestMustParsePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("MustParse(\"sparc\") did not panic")
		}
	}()
	MustParse("sparc")
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	for _, a := range Supported() {
		if !a.IsValid() {
			t.Fatalf("(%q).IsValid() = false, want true", a)
		}
	}
	if Architecture("sparc").IsValid() {
		t.Fatal("(\"sparc\").IsValid() = true, want false")
	}
}

func TestUsesPXELinux(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arch Architecture
		want bool
	}{
		{X86, true},
		{X86_64, true},
		{Standard, true},
		{IA64, false},
	}

	for _, tt := range tests {
		if got := tt.arch.UsesPXELinux(); got != tt.want {
			t.Fatalf("(%q).UsesPXELinux() = %v, want %v", tt.arch, got, tt.want)
		}
	}
}
