package cliconfig

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"SCRIPTD_SCRIPT_DIR":       "/env/scripts",
				"SCRIPTD_IDENTITY":         "com.env.Script",
				"SCRIPTD_NAME":             "Env",
				"SCRIPTD_VERSION":          "2.5",
				"SCRIPTD_AUTHORS":          "ann, bob",
				"SCRIPTD_SETTINGS_BACKEND": "redis",
				"SCRIPTD_REDIS_ADDR":       "redis:6379",
				"SCRIPTD_REDIS_DB":         "3",
				"SCRIPTD_IDLE_INITIAL":     "10ms",
				"SCRIPTD_IDLE_MAX":         "2s",
				"SCRIPTD_WATCH":            "true",
				"SCRIPTD_LOG_JSON":         "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				ScriptDir:       "/env/scripts",
				Identity:        "com.env.Script",
				Name:            "Env",
				Version:         2.5,
				Authors:         []string{"ann", "bob"},
				SettingsBackend: "redis",
				RedisAddr:       "redis:6379",
				RedisDB:         3,
				IdleInitial:     10 * time.Millisecond,
				IdleMax:         2 * time.Second,
				Watch:           true,
				LogJSON:         true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"SCRIPTD_SCRIPT_DIR": "/env/scripts",
				"SCRIPTD_NAME":       "Env",
			},
			changed: map[string]bool{"script-dir": true},
			initial: Config{ScriptDir: "/flag/scripts"},
			expected: Config{
				ScriptDir: "/flag/scripts",
				Name:      "Env",
			},
			wantErr: false,
		},
		{
			name:     "returns error for invalid duration",
			envVars:  map[string]string{"SCRIPTD_IDLE_MAX": "not-a-duration"},
			changed:  map[string]bool{},
			wantErr:  true,
			expected: Config{},
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"SCRIPTD_REDIS_DB": "zero"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid float",
			envVars: map[string]string{"SCRIPTD_VERSION": "v1"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:     "handles bool 'false' as false",
			envVars:  map[string]string{"SCRIPTD_WATCH": "false"},
			changed:  map[string]bool{},
			initial:  Config{Watch: true},
			expected: Config{Watch: false},
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
