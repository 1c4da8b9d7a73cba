package historical

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
)

func TestAnalyzeReturnsGeneratedSeries(t *testing.T) {
	backend := &stubBackend{output: `{"summary":"**Stable** air quality.","chartData":[{"date":"Jan 1","aqi":999.5}]}`}
	svc := newTestService(backend, nil, nil)

	resp, err := svc.Analyze(context.Background(), Request{
		City: "Delhi", State: "Delhi", Country: "India",
		From: "2024-01-01", To: "2024-01-30",
	})
	require.NoError(t, err)
	require.Equal(t, "**Stable** air quality.", resp.Summary)
	require.Len(t, resp.ChartData, 30)
	require.Equal(t, DataPoint{Date: "Jan 1", AQI: 75}, resp.ChartData[0])
	require.Equal(t, "Jan 30", resp.ChartData[29].Date)
	for _, p := range resp.ChartData {
		require.GreaterOrEqual(t, p.AQI, 10)
	}

	input, ok := backend.last.Input.(promptInput)
	require.True(t, ok)
	require.Equal(t, resp.ChartData, input.HistoricalData)
	require.Equal(t, dateRange{From: "2024-01-01", To: "2024-01-30"}, input.DateRange)
	require.Contains(t, backend.last.Prompt, "- Date: Jan 1, AQI: 75")
	require.Contains(t, backend.last.Prompt, "Do not invent data not present.")
	require.Empty(t, backend.last.Tools)
}

func TestAnalyzeSingleDay(t *testing.T) {
	svc := newTestService(&stubBackend{output: `{"summary":"One day."}`}, nil, nil)

	resp, err := svc.Analyze(context.Background(), Request{
		City: "Delhi", State: "Delhi", Country: "India",
		From: "2024-06-15", To: "2024-06-15",
	})
	require.NoError(t, err)
	require.Equal(t, []DataPoint{{Date: "Jun 15", AQI: 90}}, resp.ChartData)
}

func TestAnalyzeValidatesInput(t *testing.T) {
	backend := &stubBackend{output: `{"summary":"x"}`}
	svc := newTestService(backend, nil, nil)

	for _, req := range []Request{
		{City: "Delhi", State: "Delhi", Country: "India", From: "2024-02-01", To: "2024-01-01"},
		{City: "Delhi", State: "Delhi", Country: "India", From: "01/01/2024", To: "2024-01-02"},
		{City: "Delhi", State: "Delhi", Country: "India", From: "2024-01-01", To: ""},
		{City: "Delhi", State: "Delhi", Country: "India", From: "2022-01-01", To: "2024-01-01"},
		{City: "Delhi", Country: "India", From: "2024-01-01", To: "2024-01-02"},
	} {
		_, err := svc.Analyze(context.Background(), req)
		require.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err), "request %+v", req)
	}
	require.Zero(t, backend.calls)
}

func TestAnalyzeRetriesOverload(t *testing.T) {
	backend := &stubBackend{
		errs:   []error{errors.New("got status 503"), errors.New("The model is overloaded. Please try again later.")},
		output: `{"summary":"Recovered."}`,
	}
	var slept []time.Duration
	svc := newTestService(backend, nil, &slept)

	resp, err := svc.Analyze(context.Background(), Request{
		City: "Delhi", State: "Delhi", Country: "India", From: "2024-01-01", To: "2024-01-03",
	})
	require.NoError(t, err)
	require.Equal(t, "Recovered.", resp.Summary)
	require.Equal(t, 3, backend.calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestAnalyzeNonOverloadFailsImmediately(t *testing.T) {
	backend := &stubBackend{errs: []error{errors.New("invalid argument")}}
	var slept []time.Duration
	svc := newTestService(backend, nil, &slept)

	_, err := svc.Analyze(context.Background(), Request{
		City: "Delhi", State: "Delhi", Country: "India", From: "2024-01-01", To: "2024-01-03",
	})
	require.Equal(t, apperrors.CodeLLM, apperrors.CodeOf(err))
	require.Equal(t, 1, backend.calls)
	require.Empty(t, slept)
}

func TestAnalyzeExhaustedRetries(t *testing.T) {
	overloaded := errors.New("503 overloaded")
	backend := &stubBackend{errs: []error{overloaded, overloaded, overloaded, overloaded}}
	var slept []time.Duration
	svc := newTestService(backend, nil, &slept)

	_, err := svc.Analyze(context.Background(), Request{
		City: "Delhi", State: "Delhi", Country: "India", From: "2024-01-01", To: "2024-01-03",
	})
	require.Equal(t, apperrors.CodeLLMOverloaded, apperrors.CodeOf(err))
	require.Equal(t, "The AI service is currently overloaded and unable to handle the request. Please try again later.", apperrors.MessageOf(err))
	require.Equal(t, 3, backend.calls)
	require.Len(t, slept, 2)
}

func TestAnalyzeRejectsBlankSummary(t *testing.T) {
	for _, out := range []string{`{"summary":"   "}`, `{"summary":""}`, `not json`} {
		svc := newTestService(&stubBackend{output: out}, nil, nil)
		_, err := svc.Analyze(context.Background(), Request{
			City: "Delhi", State: "Delhi", Country: "India", From: "2024-01-01", To: "2024-01-01",
		})
		require.Equal(t, apperrors.CodeInvalidOutput, apperrors.CodeOf(err), out)
	}
}

func TestAnalyzeReusesArchivedDays(t *testing.T) {
	archive := &stubArchive{stored: []ArchivedPoint{
		{Day: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), AQI: 140},
	}}
	svc := newTestService(&stubBackend{output: `{"summary":"ok"}`}, archive, nil)

	resp, err := svc.Analyze(context.Background(), Request{
		City: "Delhi", State: "Delhi", Country: "India", From: "2024-01-01", To: "2024-01-03",
	})
	require.NoError(t, err)
	require.Equal(t, []DataPoint{{Date: "Jan 1", AQI: 75}, {Date: "Jan 2", AQI: 140}, {Date: "Jan 3", AQI: 75}}, resp.ChartData)
	require.Equal(t, "delhi|delhi|india", archive.key)
	require.Len(t, archive.saved, 2)
	require.Equal(t, 1, archive.saved[0].Day.Day())
	require.Equal(t, 3, archive.saved[1].Day.Day())
}

func TestAnalyzeIgnoresArchiveFailures(t *testing.T) {
	archive := &stubArchive{loadErr: errors.New("connection refused"), saveErr: errors.New("connection refused")}
	svc := newTestService(&stubBackend{output: `{"summary":"ok"}`}, archive, nil)

	resp, err := svc.Analyze(context.Background(), Request{
		City: "Delhi", State: "Delhi", Country: "India", From: "2024-01-01", To: "2024-01-02",
	})
	require.NoError(t, err)
	require.Len(t, resp.ChartData, 2)
}

func newTestService(backend generation.Backend, archive Archive, slept *[]time.Duration) *service {
	svc := NewService(Config{}, backend, archive, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	svc.generator = Generator{Float: func() float64 { return 0.5 }}
	svc.policy.Sleep = func(_ context.Context, d time.Duration) error {
		if slept != nil {
			*slept = append(*slept, d)
		}
		return nil
	}
	return svc
}

type stubBackend struct {
	errs   []error
	output string
	calls  int
	last   generation.Request
}

func (s *stubBackend) Generate(_ context.Context, req generation.Request) (generation.Response, error) {
	s.calls++
	s.last = req
	if s.calls <= len(s.errs) {
		return generation.Response{}, s.errs[s.calls-1]
	}
	return generation.Response{Output: json.RawMessage(s.output)}, nil
}

type stubArchive struct {
	stored  []ArchivedPoint
	saved   []ArchivedPoint
	key     string
	loadErr error
	saveErr error
}

func (s *stubArchive) Load(_ context.Context, key string, _, _ time.Time) ([]ArchivedPoint, error) {
	s.key = key
	return s.stored, s.loadErr
}

func (s *stubArchive) Save(_ context.Context, key string, points []ArchivedPoint) error {
	s.saved = append(s.saved, points...)
	return s.saveErr
}
