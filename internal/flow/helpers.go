package flow

import (
	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/parse"
)

// callbackValue extracts the payload of a callback event, checking that
// the action matches what the current step expects.
func callbackValue(ev models.Event, action string) (string, error) {
	if ev.Kind != models.EventCallback {
		return "", models.Validationf("please use the buttons below")
	}
	if ev.Action != action {
		return "", models.Validationf("unexpected selection")
	}
	if ev.Value == "" {
		return "", models.Validationf("empty selection")
	}
	return ev.Value, nil
}

func parseDateValue(text string) (any, error) {
	date, err := parse.Date(text)
	if err != nil {
		return nil, models.Validationf("could not read that date, try a format like 2025-03-01 or 01.03.2025")
	}
	return date, nil
}

func parseClockValue(text string) (any, error) {
	clock, err := parse.ClockTime(text)
	if err != nil {
		return nil, models.Validationf("could not read that time, try a format like 9:30")
	}
	return clock, nil
}

func parseAmountValue(text string) (any, error) {
	amount, err := parse.PositiveAmount(text)
	if err != nil {
		return nil, models.Validationf("please enter a positive amount, like 50000 or 50000.50")
	}
	return amount.String(), nil
}
