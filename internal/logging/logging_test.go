package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/KDT2006/roguelobby/internal/config"
)

func TestNew(t *testing.T) {
	cases := []struct {
		cfg     config.Log
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{config.Log{Level: "debug", Format: "console"}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{config.Log{Level: "warn", Format: "json"}, zapcore.WarnLevel, zapcore.InfoLevel},
		{config.Log{Level: "error", Format: ""}, zapcore.ErrorLevel, zapcore.WarnLevel},
	}

	for _, tc := range cases {
		log, err := New(tc.cfg)
		if err != nil {
			t.Fatalf("%+v: %v", tc.cfg, err)
		}
		core := log.Core()
		if !core.Enabled(tc.enabled) || core.Enabled(tc.muted) {
			t.Errorf("%+v: level gate wrong", tc.cfg)
		}
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(config.Log{Level: "loud", Format: "json"}); err == nil {
		t.Errorf("bad level accepted")
	}
	if _, err := New(config.Log{Level: "info", Format: "xml"}); err == nil {
		t.Errorf("bad format accepted")
	}
}
