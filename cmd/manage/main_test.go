package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		raw     string
		want    uint
		wantErr bool
	}{
		{raw: "3", want: 3},
		{raw: "20240101", want: 20240101},
		{raw: "0", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseVersion(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVersion(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseVersion(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCommandArgumentValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "migrate to needs a version", args: []string{"migrate", "to"}, wantErr: "accepts 1 arg"},
		{name: "migrate to rejects garbage", args: []string{"migrate", "to", "latest"}, wantErr: "invalid migration version"},
		{name: "social image needs flags", args: []string{"social-image"}, wantErr: "required flag"},
		{name: "publish takes no args", args: []string{"publish-scheduled", "now"}, wantErr: "unknown command"},
		{name: "regen takes no args", args: []string{"regen-social-images", "launch-day"}, wantErr: "unknown command"},
		{name: "regen rejects unknown flags", args: []string{"regen-social-images", "--all"}, wantErr: "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
