package fcm

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

const (
	TransportHTTP = "http"
	TransportSDK  = "sdk"
)

// NewSender builds the Sender for transport. The sdk transport needs a token
// source up front, so unavailable credentials are returned as an error rather
// than silently switching transports.
func NewSender(ctx context.Context, transport, endpoint, projectID string, credentials *ServiceAccountProvider) (Sender, error) {
	switch transport {
	case "", TransportHTTP:
		return NewHTTPSender(endpoint, projectID), nil
	case TransportSDK:
		ts, err := credentials.TokenSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("sdk transport needs credentials at startup: %w", err)
		}
		return NewSDKSender(ctx, projectID, ts)
	default:
		return nil, fmt.Errorf("unsupported fcm transport %q", transport)
	}
}

// SDKSender delivers through the Firebase Admin SDK messaging client.
// It authenticates with its own token source, so the accessToken argument
// of Send is ignored.
type SDKSender struct {
	messagingClient *messaging.Client
}

// NewSDKSender creates a Firebase messaging client for projectID backed by ts.
// opts are passed through to the Firebase app, e.g. option.WithEndpoint.
func NewSDKSender(ctx context.Context, projectID string, ts oauth2.TokenSource, opts ...option.ClientOption) (*SDKSender, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &SDKSender{messagingClient: messagingClient}, nil
}

func (s *SDKSender) Send(ctx context.Context, _ string, deviceToken string, data map[string]string) Result {
	_, err := s.messagingClient.Send(ctx, &messaging.Message{
		Token: deviceToken,
		Data:  data,
		Webpush: &messaging.WebpushConfig{
			Headers: webpushHeaders(),
		},
	})
	return sdkResult(deviceToken, err)
}

// sdkResult classifies the error returned by messaging.Client.Send
func sdkResult(deviceToken string, err error) Result {
	if err == nil {
		return Result{Token: deviceToken, Success: true, StatusCode: http.StatusOK}
	}

	result := Result{Token: deviceToken, Error: err.Error()}
	if resp := errorutils.HTTPResponse(err); resp != nil {
		result.StatusCode = resp.StatusCode
	}
	result.Invalid = messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err) || errorutils.IsNotFound(err)
	return result
}
