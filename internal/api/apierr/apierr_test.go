package apierr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[domain.ErrorKind]int{
		domain.KindBadRequest:   http.StatusBadRequest,
		domain.KindNotFound:     http.StatusNotFound,
		domain.KindConflict:     http.StatusConflict,
		domain.KindUnauthorized: http.StatusUnauthorized,
		domain.KindForbidden:    http.StatusForbidden,
		domain.KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(&domain.Error{Kind: kind}), kind)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestResponse_HidesInternalDetails(t *testing.T) {
	code, body := Response(domain.Internal("", errors.New("password=secret")))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", body.Error.Message)
	assert.Nil(t, body.Error.Details)

	code, body = Response(domain.Conflict("slot taken", map[string]any{"conflictingBookingId": "b1"}))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, domain.KindConflict, body.Error.Code)
	assert.Equal(t, "b1", body.Error.Details["conflictingBookingId"])
}

func TestStatus_RoundTrip(t *testing.T) {
	err := domain.Conflict("slot taken", map[string]any{
		"conflictingBookingId": "b1",
		"conflictingTimeSlots": []string{"MCD", "MAB"},
	})
	st := Status(err)
	assert.Equal(t, codes.AlreadyExists, st.Code())

	require.Len(t, st.Details(), 1)
	info, ok := st.Details()[0].(*errdetails.ErrorInfo)
	require.True(t, ok)
	assert.Equal(t, "conflict", info.Reason)
	assert.Equal(t, "MCD,MAB", info.Metadata["conflictingTimeSlots"])

	back := FromStatus(st)
	assert.Equal(t, domain.KindConflict, back.Kind)
	assert.Equal(t, "b1", back.Details["conflictingBookingId"])
}
