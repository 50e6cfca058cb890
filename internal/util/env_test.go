package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"OFF", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
		{" true ", false, true},
	}
	for _, tt := range tests {
		t.Setenv("HISOBOT_TEST_BOOL", tt.value)
		if got := ParseBoolEnv("HISOBOT_TEST_BOOL", tt.defaultValue); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
		}
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("HISOBOT_TEST_STR", "")
	if got := EnvOrDefault("HISOBOT_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("EnvOrDefault empty = %q, want fallback", got)
	}
	t.Setenv("HISOBOT_TEST_STR", "set")
	if got := EnvOrDefault("HISOBOT_TEST_STR", "fallback"); got != "set" {
		t.Errorf("EnvOrDefault set = %q, want set", got)
	}
}
