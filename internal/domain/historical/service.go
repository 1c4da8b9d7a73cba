package historical

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
	"github.com/yanqian/air-quality-advisor/internal/domain/location"
	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
	"github.com/yanqian/air-quality-advisor/pkg/retry"
)

const defaultPrompt = "You are an environmental data scientist. Analyze the provided historical air quality data for the specified location and time range."

const defaultMaxRangeDays = 366

// Service exposes historical trend analysis.
type Service interface {
	Analyze(ctx context.Context, req Request) (Response, error)
}

type service struct {
	cfg       Config
	backend   generation.Backend
	archive   Archive
	generator Generator
	policy    retry.Policy
	logger    *slog.Logger
}

// NewService wires up the historical domain. archive may be nil.
func NewService(cfg Config, backend generation.Backend, archive Archive, logger *slog.Logger) Service {
	log := logger.With("component", "historical.service")
	return &service{
		cfg:       cfg,
		backend:   backend,
		archive:   archive,
		generator: NewGenerator(),
		policy:    generation.OverloadPolicy(cfg.Retry, log),
		logger:    log,
	}
}

func (s *service) Analyze(ctx context.Context, req Request) (Response, error) {
	loc := location.Location{City: req.City, State: req.State, Country: req.Country}.Normalize()
	if err := loc.Validate(); err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err)
	}
	from, to, err := s.parseRange(req.From, req.To)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err)
	}

	series := s.series(ctx, loc, from, to)
	s.logger.Info("historical series prepared", "location", loc.String(), "points", len(series))

	resp, err := generation.GenerateWithRetry(ctx, s.backend, generation.Request{
		Name:   "historicalAirQuality",
		System: s.systemPrompt(),
		Prompt: buildPrompt(loc, from, to, series),
		Input: promptInput{
			City:           loc.City,
			State:          loc.State,
			Country:        loc.Country,
			DateRange:      dateRange{From: from.Format(DateLayout), To: to.Format(DateLayout)},
			HistoricalData: series,
		},
		Output: outputSchema(),
	}, s.policy, "The AI service failed to analyze the historical data. Please try again.")
	if err != nil {
		s.logger.Error("historical analysis failed", "location", loc.String(), "code", apperrors.CodeOf(err), "error", err)
		return Response{}, err
	}

	var out modelOutput
	if err := generation.Decode(resp.Output, &out); err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidOutput, "The AI service returned an invalid analysis. Please try again.", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidOutput, "The AI service returned an invalid analysis. Please try again.", generation.Invalid("summary is blank"))
	}

	// The model's echo of the series is ignored so the chart stays exact.
	return Response{Summary: out.Summary, ChartData: series}, nil
}

func (s *service) parseRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	from, err := time.Parse(DateLayout, strings.TrimSpace(rawFrom))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be formatted as YYYY-MM-DD")
	}
	to, err := time.Parse(DateLayout, strings.TrimSpace(rawTo))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to must be formatted as YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must not be after to")
	}
	limit := s.cfg.MaxRangeDays
	if limit <= 0 {
		limit = defaultMaxRangeDays
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > limit {
		return time.Time{}, time.Time{}, fmt.Errorf("date range cannot exceed %d days", limit)
	}
	return from, to, nil
}

// series reuses archived days and generates the rest. Archive failures only cost consistency.
func (s *service) series(ctx context.Context, loc location.Location, from, to time.Time) []DataPoint {
	known := make(map[string]int)
	if s.archive != nil {
		stored, err := s.archive.Load(ctx, loc.Key(), from, to)
		if err != nil {
			s.logger.Warn("history archive load failed", "location", loc.String(), "error", err)
		}
		for _, p := range stored {
			known[p.Day.Format(DateLayout)] = p.AQI
		}
	}

	days := Days(from, to)
	points := make([]DataPoint, 0, len(days))
	var fresh []ArchivedPoint
	for _, day := range days {
		aqi, ok := known[day.Format(DateLayout)]
		if !ok {
			aqi = s.generator.Value(day)
			fresh = append(fresh, ArchivedPoint{Day: day, AQI: aqi})
		}
		points = append(points, DataPoint{Date: day.Format(LabelLayout), AQI: aqi})
	}

	if s.archive != nil && len(fresh) > 0 {
		if err := s.archive.Save(ctx, loc.Key(), fresh); err != nil {
			s.logger.Warn("history archive save failed", "location", loc.String(), "error", err)
		}
	}
	return points
}

func (s *service) systemPrompt() string {
	if p := strings.TrimSpace(s.cfg.Prompt); p != "" {
		return p
	}
	return defaultPrompt
}

type dateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type promptInput struct {
	City           string      `json:"city"`
	State          string      `json:"state"`
	Country        string      `json:"country"`
	DateRange      dateRange   `json:"dateRange"`
	HistoricalData []DataPoint `json:"historicalData"`
}

type modelOutput struct {
	Summary   string          `json:"summary" validate:"required"`
	ChartData json.RawMessage `json:"chartData"`
}

func outputSchema() generation.Schema {
	return generation.Object(map[string]generation.Schema{
		"summary": generation.String("An analysis of the historical air quality trends, highlighting key patterns, highs, and lows, formatted in Markdown."),
		"chartData": generation.Array("The exact historical data points provided as input.",
			generation.Object(map[string]generation.Schema{
				"date": generation.String("The date in 'MMM d' format, e.g. 'Jan 1'."),
				"aqi":  generation.Integer("The average AQI for that day.", 0, 500),
			}), 0, -1),
	})
}

func buildPrompt(loc location.Location, from, to time.Time, series []DataPoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", loc.String())
	fmt.Fprintf(&b, "Date Range: From %s to %s\n\n", from.Format(DateLayout), to.Format(DateLayout))
	b.WriteString("Historical Data:\n")
	for _, p := range series {
		fmt.Fprintf(&b, "- Date: %s, AQI: %d\n", p.Date, p.AQI)
	}
	b.WriteString("\nBased on this data, write a concise summary of the air quality trends. Format the summary using Markdown. ")
	b.WriteString("Use bold text to highlight key patterns, and use bullet points to list out significant periods of high or low pollution. ")
	b.WriteString("Provide a brief explanation for potential causes if possible (e.g., \"a spike in mid-summer could be related to heat and stagnant air\"). ")
	b.WriteString("Do not invent data not present. The 'chartData' should be the exact data provided to you.")
	return b.String()
}
