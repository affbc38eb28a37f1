package fcm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func TestNewSDKSender(t *testing.T) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access"})

	sender, err := NewSDKSender(context.Background(), "okshouse", ts)
	require.NoError(t, err)
	assert.NotNil(t, sender.messagingClient)

	var _ Sender = sender
}

// fcmErrors are v1 API error bodies keyed by device token
var fcmErrors = map[string]struct {
	status int
	body   string
}{
	"unregistered": {http.StatusNotFound, `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND","details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"UNREGISTERED"}]}}`},
	"malformed":    {http.StatusBadRequest, `{"error":{"code":400,"message":"The registration token is not a valid FCM registration token","status":"INVALID_ARGUMENT"}}`},
	"denied":       {http.StatusForbidden, `{"error":{"code":403,"message":"SenderId mismatch","status":"PERMISSION_DENIED"}}`},
}

func newSDKTestSender(t *testing.T) *SDKSender {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message struct {
				Token string `json:"token"`
			} `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		if e, ok := fcmErrors[req.Message.Token]; ok {
			w.WriteHeader(e.status)
			_, _ = w.Write([]byte(e.body))
			return
		}
		_, _ = w.Write([]byte(`{"name":"projects/okshouse/messages/1"}`))
	}))
	t.Cleanup(srv.Close)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access"})
	sender, err := NewSDKSender(context.Background(), "okshouse", ts, option.WithEndpoint(srv.URL+"/v1"))
	require.NoError(t, err)
	return sender
}

func TestSDKSenderClassifiesErrors(t *testing.T) {
	sender := newSDKTestSender(t)

	tests := []struct {
		token       string
		wantSuccess bool
		wantStatus  int
		wantInvalid bool
	}{
		{token: "ok-device", wantSuccess: true, wantStatus: http.StatusOK},
		{token: "unregistered", wantStatus: http.StatusNotFound, wantInvalid: true},
		{token: "malformed", wantStatus: http.StatusBadRequest, wantInvalid: true},
		{token: "denied", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			res := sender.Send(context.Background(), "", tt.token, map[string]string{"title": "t"})
			assert.Equal(t, tt.token, res.Token)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantInvalid, res.Invalid)
			if !tt.wantSuccess {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}

func TestSDKResultWithoutHTTPResponse(t *testing.T) {
	res := sdkResult("device", errors.New("connection reset"))
	assert.False(t, res.Success)
	assert.Zero(t, res.StatusCode)
	assert.False(t, res.Invalid)
	assert.Equal(t, "connection reset", res.Error)

	res = sdkResult("device", nil)
	assert.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestNewSender(t *testing.T) {
	ctx := context.Background()

	t.Run("http", func(t *testing.T) {
		for _, transport := range []string{"", TransportHTTP} {
			sender, err := NewSender(ctx, transport, "", "okshouse", NewServiceAccountProvider(CredentialsConfig{FallbackPaths: []string{}}))
			require.NoError(t, err)
			assert.IsType(t, &HTTPSender{}, sender)
		}
	})

	t.Run("sdk without credentials fails", func(t *testing.T) {
		creds := NewServiceAccountProvider(CredentialsConfig{FallbackPaths: []string{}})
		sender, err := NewSender(ctx, TransportSDK, "", "okshouse", creds)
		assert.ErrorIs(t, err, ErrNoCredentials)
		assert.Nil(t, sender)
	})

	t.Run("sdk with credentials", func(t *testing.T) {
		tokens := newTokenServer(t, 3600)
		creds := NewServiceAccountProvider(CredentialsConfig{JSON: serviceAccountJSON(t, tokens.URL)})
		sender, err := NewSender(ctx, TransportSDK, "", "okshouse", creds)
		require.NoError(t, err)
		assert.IsType(t, &SDKSender{}, sender)
	})

	t.Run("unknown transport", func(t *testing.T) {
		_, err := NewSender(ctx, "grpc", "", "okshouse", NewServiceAccountProvider(CredentialsConfig{}))
		assert.ErrorContains(t, err, "unsupported fcm transport")
	})
}
