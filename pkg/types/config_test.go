package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ConnectionConfig
		wantErr error
	}{
		{
			name:    "empty identity returns ErrIdentityMissing",
			config:  ConnectionConfig{Identity: "", Filename: "/tmp/data.sqlite"},
			wantErr: ErrIdentityMissing,
		},
		{
			name:    "valid file config",
			config:  ConnectionConfig{Identity: "main", Filename: "/tmp/data.sqlite"},
			wantErr: nil,
		},
		{
			name:    "ephemeral config without filename is valid",
			config:  ConnectionConfig{Identity: "mem", Ephemeral: true},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	t.Setenv(EnvDebugSQL, "")

	c := ConnectionConfig{Identity: "main"}
	c.ApplyDefaults()
	if c.Filename != DefaultFilename {
		t.Errorf("Filename = %q, want %q", c.Filename, DefaultFilename)
	}
	if c.BusyTimeout != DefaultBusyTimeout {
		t.Errorf("BusyTimeout = %v, want %v", c.BusyTimeout, DefaultBusyTimeout)
	}
	if c.Debug {
		t.Error("Debug should stay off without the environment override")
	}

	c = ConnectionConfig{Identity: "main", Filename: "x.db", BusyTimeout: time.Second}
	c.ApplyDefaults()
	if c.Filename != "x.db" || c.BusyTimeout != time.Second {
		t.Errorf("explicit values overwritten: %+v", c)
	}
}

func TestConfigApplyDefaultsDebugEnv(t *testing.T) {
	t.Setenv(EnvDebugSQL, "1")

	c := ConnectionConfig{Identity: "main"}
	c.ApplyDefaults()
	if !c.Debug {
		t.Error("expected Debug from environment")
	}
}

func TestDefinitionNormalize(t *testing.T) {
	short := Shorthand("string")
	if !short.IsShorthand() {
		t.Fatal("expected shorthand definition")
	}
	if got := short.Normalize(); got.Type != "string" || got.PrimaryKey {
		t.Errorf("Normalize() = %+v", got)
	}

	full := Full(Attribute{Type: "integer", PrimaryKey: true, AutoIncrement: true})
	if full.IsShorthand() {
		t.Fatal("expected full definition")
	}
	got := full.Normalize()
	if !got.PrimaryKey || !got.AutoIncrement || got.Type != "integer" {
		t.Errorf("Normalize() = %+v", got)
	}
}

func TestErrorIsUnique(t *testing.T) {
	native := errors.New("constraint failed")
	err := NewError(CodeUnique, native.Error(), native)

	if !IsUnique(err) {
		t.Error("expected IsUnique")
	}
	if !errors.Is(err, native) {
		t.Error("expected the native error in the chain")
	}
	if len(err.InvalidAttributes) != 0 || err.InvalidAttributes == nil {
		t.Errorf("InvalidAttributes = %#v, want empty list", err.InvalidAttributes)
	}
	if IsUnique(native) {
		t.Error("native error must not report IsUnique")
	}
}
