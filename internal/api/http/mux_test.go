package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/m-zajac/orgcontributors/internal/api/http/mock"
	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMux(t *testing.T) {
	t.Parallel()

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "metrics")
	})

	tests := []struct {
		name           string
		path           string
		strategy       *scriptedStrategy
		muxTimeout     time.Duration
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "valid contributors request",
			path:           "/contributors/JetBrains",
			strategy:       &scriptedStrategy{updates: [][]app.Contributor{testContributors}},
			muxTimeout:     time.Second,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "valid progress request",
			path:           "/contributors/JetBrains/progress?variant=channels",
			strategy:       &scriptedStrategy{updates: [][]app.Contributor{testContributors}},
			muxTimeout:     time.Second,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "job exceeding handler timeout",
			path:           "/contributors/JetBrains",
			strategy:       &scriptedStrategy{hang: true},
			muxTimeout:     time.Millisecond,
			wantStatusCode: http.StatusGatewayTimeout,
		},
		{
			name:           "variants",
			path:           "/variants",
			muxTimeout:     time.Second,
			wantStatusCode: http.StatusOK,
			wantBody:       `["blocking","background","callbacks","concurrent","progress","channels"]` + "\n",
		},
		{
			name:           "metrics",
			path:           "/metrics",
			muxTimeout:     time.Second,
			wantStatusCode: http.StatusOK,
			wantBody:       "metrics",
		},
		{
			name:           "invalid path",
			path:           "/invalid_path",
			muxTimeout:     time.Second,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := mock.NewMockService(ctrl)
			if tt.strategy != nil {
				service.EXPECT().
					Load(gomock.Any(), gomock.Any(), app.RequestSpec{Org: "JetBrains"}, gomock.Any(), gomock.Nil()).
					DoAndReturn(launching(*tt.strategy))
			}

			mux := NewMux(service, app.Concurrent, tt.muxTimeout, metrics, newTestLogger())

			server := httptest.NewServer(mux)
			defer server.Close()

			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatusCode, resp.StatusCode)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}
