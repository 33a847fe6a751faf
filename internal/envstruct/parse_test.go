package envstruct_test

import (
	"github.com/myrjola/culprit/internal/envstruct"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPopulate(t *testing.T) {
	type empty struct{}
	type unexported struct {
		secret string `env:"SECRET"` //nolint:unused // Tests that unexported fields error out.
	}
	type simple struct {
		Value string `env:"VALUE"`
	}
	type defaulted struct {
		Value string `env:"VALUE" envDefault:"fallback"`
	}
	type typed struct {
		Name    string `env:"NAME"`
		Count   int    `env:"COUNT"`
		Enabled bool   `env:"ENABLED"`
	}
	type unsupported struct {
		Ratio float64 `env:"RATIO"`
	}

	emptyEnv := func(string) (string, bool) { return "", false }
	env := func(vars map[string]string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			val, ok := vars[key]
			return val, ok
		}
	}

	tests := []struct {
		name            string
		v               any
		env             func(string) (string, bool)
		want            any
		wantErr         error
		wantErrContains string
	}{
		{
			name:    "nil",
			v:       nil,
			env:     emptyEnv,
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "not pointer",
			v:       simple{},
			env:     emptyEnv,
			want:    simple{},
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "empty struct",
			v:       &empty{},
			env:     emptyEnv,
			want:    &empty{},
			wantErr: nil,
		},
		{
			name:    "empty env",
			v:       &simple{},
			env:     emptyEnv,
			want:    &simple{},
			wantErr: envstruct.ErrEnvNotSet,
		},
		{
			name:    "env is set",
			v:       &simple{},
			env:     env(map[string]string{"VALUE": "set"}),
			want:    &simple{Value: "set"},
			wantErr: nil,
		},
		{
			name:    "picks correct env variable",
			v:       &simple{},
			env:     env(map[string]string{"OTHER": "other", "VALUE": "set"}),
			want:    &simple{Value: "set"},
			wantErr: nil,
		},
		{
			name:    "handles default value",
			v:       &defaulted{},
			env:     emptyEnv,
			want:    &defaulted{Value: "fallback"},
			wantErr: nil,
		},
		{
			name:    "parses int and bool fields",
			v:       &typed{},
			env:     env(map[string]string{"NAME": "watson", "COUNT": "3", "ENABLED": "true"}),
			want:    &typed{Name: "watson", Count: 3, Enabled: true},
			wantErr: nil,
		},
		{
			name:            "invalid int",
			v:               &typed{},
			env:             env(map[string]string{"NAME": "watson", "COUNT": "three", "ENABLED": "true"}),
			want:            &typed{Name: "watson", Enabled: true},
			wantErrContains: "parse int",
		},
		{
			name:            "invalid bool",
			v:               &typed{},
			env:             env(map[string]string{"NAME": "watson", "COUNT": "3", "ENABLED": "yep"}),
			want:            &typed{Name: "watson", Count: 3},
			wantErrContains: "parse bool",
		},
		{
			name:    "unsupported field kind",
			v:       &unsupported{},
			env:     env(map[string]string{"RATIO": "0.5"}),
			want:    &unsupported{},
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "cannot set unexported field",
			v:       &unexported{},
			env:     env(map[string]string{"SECRET": "hush"}),
			want:    &unexported{},
			wantErr: envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := envstruct.Populate(tt.v, tt.env)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrContains != "":
				require.ErrorContains(t, err, tt.wantErrContains)
			default:
				require.NoError(t, err)
			}
			require.EqualValues(t, tt.want, tt.v)
		})
	}
}
