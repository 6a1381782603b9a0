package main

import (
	"reflect"
	"testing"
)

func TestPeekFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"space separated", []string{"-config", "run.yaml"}, "run.yaml"},
		{"equals form", []string{"-config=run.yaml"}, "run.yaml"},
		{"double dash", []string{"--config", "run.yaml"}, "run.yaml"},
		{"double dash equals", []string{"--config=run.yaml"}, "run.yaml"},
		{"among other flags", []string{"-radius", "5", "-config", "run.yaml", "-tui"}, "run.yaml"},
		{"absent", []string{"-radius", "5"}, ""},
		{"empty args", nil, ""},
		{"value matching the name is not a flag", []string{"-lang", "config", "foo.yaml"}, ""},
		{"bare word is not a flag", []string{"config", "run.yaml"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := peekFlag(tt.args, "config"); got != tt.want {
				t.Errorf("peekFlag(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseCenter(t *testing.T) {
	got, err := parseCenter("53.3498,-6.2603")
	if err != nil {
		t.Fatalf("parseCenter: %v", err)
	}
	if got.Lat != 53.3498 || got.Lng != -6.2603 {
		t.Errorf("center = %+v", got)
	}

	if _, err := parseCenter(" 53.35 , -6.26 "); err != nil {
		t.Errorf("spaced input should parse: %v", err)
	}

	for _, bad := range []string{"", "53.35", "53.35,-6.26,7", "north,south"} {
		if _, err := parseCenter(bad); err == nil {
			t.Errorf("parseCenter(%q) should fail", bad)
		}
	}
}

func TestSplitTrim(t *testing.T) {
	got := splitTrim(" plumber, electrician ,,roofer ")
	want := []string{"plumber", "electrician", "roofer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitTrim = %v, want %v", got, want)
	}
	if out := splitTrim(""); out != nil {
		t.Errorf("empty input = %v, want nil", out)
	}
}
