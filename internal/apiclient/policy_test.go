package apiclient

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		body   string
		want   Action
	}{
		{
			name:   "login is passed through",
			path:   "/login",
			status: http.StatusUnauthorized,
			body:   `{"detail":"bad credentials"}`,
			want:   Action{Passthrough: true, Kind: KindUnauthorized},
		},
		{
			name:   "login server error is passed through",
			path:   "/login",
			status: http.StatusInternalServerError,
			want:   Action{Passthrough: true, Kind: KindUnknown},
		},
		{
			name:   "unauthorized expires the session",
			path:   "/me",
			status: http.StatusUnauthorized,
			want:   Action{Kind: KindUnauthorized, Notice: NoticeSessionExpired, ExpireSession: true},
		},
		{
			name:   "unauthorized wins over detail",
			path:   "/transactions",
			status: http.StatusUnauthorized,
			body:   `{"detail":"Could not validate credentials"}`,
			want:   Action{Kind: KindUnauthorized, Notice: NoticeSessionExpired, ExpireSession: true},
		},
		{
			name:   "forbidden",
			path:   "/users",
			status: http.StatusForbidden,
			body:   `{"detail":"superuser only"}`,
			want:   Action{Kind: KindForbidden, Notice: NoticeForbidden},
		},
		{
			name:   "detail message",
			path:   "/chart-of-accounts",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":"account_code is required"}`,
			want:   Action{Kind: KindValidation, Notice: "account_code is required"},
		},
		{
			name:   "detail on server error",
			path:   "/reports/trial-balance",
			status: http.StatusInternalServerError,
			body:   `{"detail":"report engine offline"}`,
			want:   Action{Kind: KindValidation, Notice: "report engine offline"},
		},
		{
			name:   "structured detail is not a message",
			path:   "/transactions",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","amount"],"msg":"field required"}]}`,
			want:   Action{Kind: KindUnknown, Notice: NoticeGeneric},
		},
		{
			name:   "non json body",
			path:   "/transactions",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			want:   Action{Kind: KindUnknown, Notice: NoticeGeneric},
		},
		{
			name:   "path containing login elsewhere is not exempt",
			path:   "/users/login-history",
			status: http.StatusUnauthorized,
			want:   Action{Kind: KindUnauthorized, Notice: NoticeSessionExpired, ExpireSession: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.path, tt.status, []byte(tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Incorrect password", Message(responseError("POST", "/login", 401, []byte(`{"detail":"Incorrect password"}`))))
	assert.Equal(t, "User locked", Message(responseError("POST", "/login", 400, []byte(`{"message":"User locked"}`))))
	assert.Equal(t, "POST /login: 500 Internal Server Error", Message(responseError("POST", "/login", 500, nil)))
	assert.Equal(t, "dial failed", Message(errors.New("dial failed")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "unauthorized", KindUnauthorized.String())
	assert.Equal(t, "forbidden", KindForbidden.String())
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestErrorUnwrapsNetworkCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := networkError("GET", "/me", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "GET /me: connection refused", err.Error())
}
