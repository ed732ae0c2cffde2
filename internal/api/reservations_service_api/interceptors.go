package reservations_service_api

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/roombooking/internal/api/apierr"
	"github.com/Domenick1991/roombooking/internal/auth"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type TokenParser interface {
	Parse(token string) (domain.Actor, error)
}

// AuthInterceptor resolves the bearer token of calls to ServiceName. Other
// services, such as health, pass through untouched.
func AuthInterceptor(tokens TokenParser) grpc.UnaryServerInterceptor {
	prefix := "/" + ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		for _, value := range md.Get("authorization") {
			token, ok := auth.BearerToken(value)
			if !ok {
				continue
			}
			actor, err := tokens.Parse(token)
			if err != nil {
				return nil, apierr.Status(domain.Unauthorized("invalid or expired token")).Err()
			}
			return handler(auth.WithActor(ctx, actor), req)
		}
		return handler(ctx, req)
	}
}

// ErrorInterceptor converts domain errors into statuses and logs each call.
func ErrorInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := log.WithFields(logrus.Fields{
			"method":  info.FullMethod,
			"latency": time.Since(start).String(),
		})
		if err == nil {
			entry.Info("grpc call completed")
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			entry.WithError(err).Warn("grpc call failed")
			return nil, err
		}
		st := apierr.Status(err)
		if domain.KindOf(err) == domain.KindInternal {
			entry.WithError(err).Error("grpc call failed")
		} else {
			entry.WithField("code", st.Code().String()).Warn("grpc call rejected")
		}
		return nil, st.Err()
	}
}
