package models

// Button is one inline keyboard button: a label shown to the user and the
// action:value pair delivered back as a callback event when pressed.
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	Value  string `json:"value"`
}

// Keyboard is an inline keyboard: rows of buttons.
type Keyboard [][]Button

// ConfirmKeyboard builds the standard yes/cancel row for a confirm step.
func ConfirmKeyboard(action string) Keyboard {
	return Keyboard{{
		{Label: "✅ Confirm", Action: action, Value: "yes"},
		{Label: "❌ Cancel", Action: action, Value: "cancel"},
	}}
}

// CategoryKeyboard lays out category options two per row under the given
// callback action.
func CategoryKeyboard(options []CategoryOption, action string) Keyboard {
	var kb Keyboard
	var row []Button
	for _, opt := range options {
		row = append(row, Button{Label: opt.Label, Action: action, Value: opt.Key})
		if len(row) == 2 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return kb
}
