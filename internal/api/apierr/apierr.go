// Package apierr maps domain errors onto gRPC status codes and HTTP responses.
package apierr

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "roombooking"

// Body is the JSON error envelope written by the REST transport.
type Body struct {
	Error Payload `json:"error"`
}

type Payload struct {
	Code    domain.ErrorKind `json:"code"`
	Message string           `json:"message"`
	Details map[string]any   `json:"details,omitempty"`
}

func Code(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindBadRequest:
		return codes.InvalidArgument
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindConflict:
		return codes.AlreadyExists
	case domain.KindUnauthorized:
		return codes.Unauthenticated
	case domain.KindForbidden:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}

func HTTPStatus(err error) int {
	return runtime.HTTPStatusFromCode(Code(domain.KindOf(err)))
}

// Response renders err as an HTTP status and body. Internal causes are not exposed.
func Response(err error) (int, Body) {
	de := domain.AsError(err)
	payload := Payload{Code: de.Kind, Message: de.Message, Details: de.Details}
	if de.Kind == domain.KindInternal {
		payload.Details = nil
	}
	return runtime.HTTPStatusFromCode(Code(de.Kind)), Body{Error: payload}
}

// Status converts err into a gRPC status carrying an ErrorInfo with the kind and details.
func Status(err error) *status.Status {
	de := domain.AsError(err)
	st := status.New(Code(de.Kind), de.Message)

	info := &errdetails.ErrorInfo{
		Reason:   string(de.Kind),
		Domain:   errorDomain,
		Metadata: metadata(de),
	}
	withDetails, detailErr := st.WithDetails(info)
	if detailErr != nil {
		return st
	}
	return withDetails
}

// FromStatus rebuilds a domain error from a status produced by Status.
func FromStatus(st *status.Status) *domain.Error {
	kind := kindFromCode(st.Code())
	out := &domain.Error{Kind: kind, Message: st.Message()}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && len(info.Metadata) > 0 {
			out.Details = make(map[string]any, len(info.Metadata))
			for k, v := range info.Metadata {
				out.Details[k] = v
			}
		}
	}
	return out
}

func kindFromCode(code codes.Code) domain.ErrorKind {
	switch code {
	case codes.InvalidArgument:
		return domain.KindBadRequest
	case codes.NotFound:
		return domain.KindNotFound
	case codes.AlreadyExists:
		return domain.KindConflict
	case codes.Unauthenticated:
		return domain.KindUnauthorized
	case codes.PermissionDenied:
		return domain.KindForbidden
	default:
		return domain.KindInternal
	}
}

// metadata flattens details into strings; slices are joined with commas.
func metadata(de *domain.Error) map[string]string {
	if de.Kind == domain.KindInternal || len(de.Details) == 0 {
		return nil
	}
	out := make(map[string]string, len(de.Details))
	for k, v := range de.Details {
		switch val := v.(type) {
		case []string:
			out[k] = strings.Join(val, ",")
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
