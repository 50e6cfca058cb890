package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/store"
)

func init() {
	register(dateRangeDefinition())
}

// The date range flow collects a start and an end date for the custom
// report view and commits as soon as both are in.
func dateRangeDefinition() *Definition {
	return &Definition{
		Flow:       models.FlowDateRange,
		Entry:      "start",
		AutoCommit: true,
		Summary:    dateRangeSummary,
		Commit:     commitDateRange,
		Steps: map[string]Step{
			"start": {
				ID:     "start",
				Expect: InputDate,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					return "🔍 <b>Custom Range</b>\n\nEnter the start date (like 2025-03-01):", nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("please enter the start date as text")
					}
					return parseDateValue(ev.Text)
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.DateRangeDraft).Start = value.(string)
				},
				Next: func(models.Draft) string { return "end" },
			},
			"end": {
				ID:     "end",
				Expect: InputDate,
				Prompt: func(draft models.Draft) (string, models.Keyboard) {
					d := draft.(*models.DateRangeDraft)
					return fmt.Sprintf("🔍 <b>Custom Range</b>\n\nStart: %s\nNow enter the end date:", d.Start), nil
				},
				Validate: func(draft models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("please enter the end date as text")
					}
					value, err := parseDateValue(ev.Text)
					if err != nil {
						return nil, err
					}
					d := draft.(*models.DateRangeDraft)
					end := value.(string)
					if end < d.Start {
						return nil, models.Validationf("end date %s is before start date %s", end, d.Start)
					}
					return end, nil
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.DateRangeDraft).End = value.(string)
				},
				Next: func(models.Draft) string { return models.StepConfirm },
			},
		},
	}
}

func dateRangeSummary(draft models.Draft) string {
	d := draft.(*models.DateRangeDraft)
	return fmt.Sprintf("🔍 Range: %s to %s", d.Start, d.End)
}

func commitDateRange(_ context.Context, _ store.Store, _ int64, draft models.Draft, _ time.Time) (any, error) {
	d := draft.(*models.DateRangeDraft)
	return &models.DateRange{Start: d.Start, End: d.End}, nil
}
