package response

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"academic-records-core/internal/domain"
)

func TestFromErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", domain.NewNotFound("x", "missing"), CodeNotFound},
		{"validation", domain.NewValidation("x", "bad gpa"), CodeBadRequest},
		{"conflict", domain.NewConflict("x", "duplicate email"), CodeConflict},
		{"timeout", domain.NewTimeout("x", "store not ready"), CodeUnavailable},
		{"storage", domain.WrapStorage("x", "insert", errors.New("boom")), CodeServerError},
		{"unknown", errors.New("mystery"), CodeServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, FromError(tc.err).Code)
		})
	}
}

func TestFromErrorHidesInternalDetail(t *testing.T) {
	r := FromError(domain.WrapStorage("user.Create", "insert user", errors.New("table users is corrupt")))
	assert.Equal(t, "internal error", r.Msg)
}

func TestOKKeepsDataNonNull(t *testing.T) {
	r := OK(nil)
	assert.Equal(t, CodeOK, r.Code)
	assert.NotNil(t, r.Data)
}
