package etsource

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

const fixtureHTML = `
<html><body>
<div class="temperature_text"><strong>18도</strong></div>
<div class="info_list">
  <div class="sort"><span class="term">precipitation</span><span class="desc">5mm</span></div>
</div>
</body></html>
`

type fakeClient struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	status int
	body   string
	err    error
}

func (f *fakeClient) Do(req *http.Request) (*http.Response, error) {
	r := f.responses[f.calls]
	f.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewBufferString(r.body)),
	}, nil
}

func TestFetchParsesTemperatureAndPrecipitation(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{{status: http.StatusOK, body: fixtureHTML}}}
	s := NewWithClient(client, "http://fixture.local", zap.NewNop())

	reading, err := s.Fetch(context.Background(), "seoul")
	require.NoError(t, err)
	assert.InDelta(t, 18*0.02, reading.ETCm, 0.0001)
	assert.InDelta(t, 0.5, reading.RainCm, 0.0001)
}

func TestFetchRejectsEmptyRegion(t *testing.T) {
	s := NewWithClient(&fakeClient{}, "http://fixture.local", zap.NewNop())
	_, err := s.Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestFetchRetriesOnTransientFailure(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{status: http.StatusInternalServerError, body: ""},
		{status: http.StatusOK, body: fixtureHTML},
	}}
	s := NewWithClient(client, "http://fixture.local", zap.NewNop())
	s.retries = 3

	reading, err := s.Fetch(context.Background(), "seoul")
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	assert.InDelta(t, 18*0.02, reading.ETCm, 0.0001)
}

func TestFetchFailsAfterExhaustingRetries(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{status: http.StatusInternalServerError},
		{status: http.StatusInternalServerError},
	}}
	s := NewWithClient(client, "http://fixture.local", zap.NewNop())
	s.retries = 2

	_, err := s.Fetch(context.Background(), "seoul")
	assert.Error(t, err)
	assert.Equal(t, 2, client.calls)
}

func TestParseNumericValueHandlesNegativeAndDecimal(t *testing.T) {
	v, err := parseNumericValue("-3.5도")
	require.NoError(t, err)
	assert.Equal(t, -3.5, v)

	v, err = parseNumericValue("12mm")
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	_, err = parseNumericValue("no digits here")
	assert.Error(t, err)
}
