package interpreter

import "testing"

func TestParseLoopMode(t *testing.T) {
	cases := map[string]LoopMode{
		"":       LoopFixed,
		"fixed":  LoopFixed,
		" While": LoopWhile,
	}
	for in, want := range cases {
		got, err := ParseLoopMode(in)
		if err != nil {
			t.Fatalf("ParseLoopMode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLoopMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseLoopMode("until"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestLoopPolicyValidate(t *testing.T) {
	if err := DefaultLoopPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	bad := []LoopPolicy{
		{Mode: "sometimes"},
		{Mode: LoopFixed, Iterations: -1},
		{Mode: LoopWhile, MaxIterations: -3},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", p)
		}
	}
}

func TestWithLoopPolicyNormalizes(t *testing.T) {
	interp := New(WithLoopPolicy(LoopPolicy{}))
	if got := interp.LoopPolicy(); got != DefaultLoopPolicy() {
		t.Fatalf("zero policy should normalize to the default, got %+v", got)
	}
	interp = New(WithLoopPolicy(LoopPolicy{Mode: "WHILE", MaxIterations: 10}))
	if got := interp.LoopPolicy(); got.Mode != LoopWhile || got.MaxIterations != 10 {
		t.Fatalf("unexpected policy %+v", got)
	}
	if got := interp.LoopPolicy().String(); got != "while (max 10)" {
		t.Fatalf("unexpected description %q", got)
	}
}
