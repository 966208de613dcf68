package evaluate

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// AnalyzerReport is the serialized form of one analyzer result.
type AnalyzerReport struct {
	AnalyzerID string         `json:"analyzer_id"`
	Score      int            `json:"score"`
	Metrics    map[string]any `json:"metrics,omitempty"`
	Feedback   []string       `json:"feedback,omitempty"`
	Status     string         `json:"status"`
	Err        string         `json:"error,omitempty"`
}

// TranscriptReport is the transcript envelope of the response.
type TranscriptReport struct {
	Text         string  `json:"text"`
	Annotated    string  `json:"annotated"`
	PauseCount   int     `json:"pause_count"`
	SpeakingRate float64 `json:"speaking_rate"`
}

// Report is the complete evaluation response for one request.
type Report struct {
	RequestID       string           `json:"request_id"`
	FinalScore      int              `json:"final_score"`
	Rating          string           `json:"rating"`
	ComponentScores map[string]int   `json:"component_scores"`
	Analyzers       []AnalyzerReport `json:"analyzers"`
	Suggestions     []string         `json:"suggestions"`
	Transcript      TranscriptReport `json:"transcript"`
}

// Rating maps a 0-100 score onto its qualitative band.
func Rating(score int) string {
	switch {
	case score >= 90:
		return "Outstanding"
	case score >= 80:
		return "Excellent"
	case score >= 70:
		return "Very Good"
	case score >= 60:
		return "Good"
	case score >= 50:
		return "Fair"
	case score >= 40:
		return "Needs Improvement"
	default:
		return "Significant Improvement Needed"
	}
}

// stars renders a five-star bar for a 0-100 score.
func stars(score int) string {
	filled := score / 20
	if score > 0 && filled == 0 {
		filled = 1
	}
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

// Render writes a human-readable report table.
func (r *Report) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Speech Evaluation")
	tw.AppendHeader(table.Row{"Dimension", "Score", "Status"})

	ids := make([]string, 0, len(r.ComponentScores))
	for id := range r.ComponentScores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	statusByID := make(map[string]string, len(r.Analyzers))
	for _, a := range r.Analyzers {
		statusByID[a.AnalyzerID] = a.Status
	}
	for _, id := range ids {
		tw.AppendRow(table.Row{id, r.ComponentScores[id], statusByID[id]})
	}
	tw.AppendFooter(table.Row{"final", fmt.Sprintf("%d  %s", r.FinalScore, stars(r.FinalScore)), r.Rating})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	tw.Render()

	if len(r.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Suggestions:")
		for i, s := range r.Suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
}
