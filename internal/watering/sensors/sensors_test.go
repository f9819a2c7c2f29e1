package sensors

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	status   int
	err      error
	lastReq  *http.Request
	response *http.Response
}

func (f *fakeClient) Do(req *http.Request) (*http.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

func TestActivateSuccess(t *testing.T) {
	client := &fakeClient{status: http.StatusOK}
	a := NewWithClient(client, "http://valve.local", zap.NewNop())

	require.NoError(t, a.Activate(context.Background(), 3))
	assert.Equal(t, "http://valve.local/sectors/3/activate", client.lastReq.URL.String())
	assert.Equal(t, http.MethodPost, client.lastReq.Method)
}

func TestDeactivateAcceptsNoContent(t *testing.T) {
	client := &fakeClient{status: http.StatusNoContent}
	a := NewWithClient(client, "http://valve.local", zap.NewNop())

	require.NoError(t, a.Deactivate(context.Background(), 7))
	assert.Equal(t, "http://valve.local/sectors/7/deactivate", client.lastReq.URL.String())
}

func TestCallFailsOnTransportError(t *testing.T) {
	client := &fakeClient{err: assert.AnError}
	a := NewWithClient(client, "http://valve.local", zap.NewNop())

	err := a.Activate(context.Background(), 1)
	assert.Error(t, err)
}

func TestCallFailsOnUnexpectedStatus(t *testing.T) {
	client := &fakeClient{status: http.StatusInternalServerError}
	a := NewWithClient(client, "http://valve.local", zap.NewNop())

	err := a.Activate(context.Background(), 1)
	assert.ErrorContains(t, err, "unexpected status 500")
}
