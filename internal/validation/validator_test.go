package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/movieflix/internal/apperror"
)

type sample struct {
	Email string `json:"email" validate:"required"`
	Order string `json:"order" validate:"oneof=ASC DESC"`
	Limit int    `json:"limit" validate:"min=1,max=100"`
	Port  int    `koanf:"port" validate:"min=1"`
}

func valid() sample {
	return sample{Email: "a@b.c", Order: "ASC", Limit: 6, Port: 3000}
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(valid()))
}

func TestStruct_Failures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*sample)
		wantField string
		wantMsg   string
	}{
		{
			name:      "required uses json name",
			mutate:    func(s *sample) { s.Email = "" },
			wantField: "email",
			wantMsg:   "email is required",
		},
		{
			name:      "oneof lists choices",
			mutate:    func(s *sample) { s.Order = "SIDEWAYS" },
			wantField: "order",
			wantMsg:   "order must be one of ASC, DESC",
		},
		{
			name:      "max",
			mutate:    func(s *sample) { s.Limit = 1000 },
			wantField: "limit",
			wantMsg:   "limit must be at most 100",
		},
		{
			name:      "koanf tag used when no json tag",
			mutate:    func(s *sample) { s.Port = 0 },
			wantField: "port",
			wantMsg:   "port must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)

			err := Struct(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}
