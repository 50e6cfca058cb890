package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/parse"
	"github.com/oybekjon/hisobot/internal/store"
)

// Callback actions used by the task flow keyboards.
const (
	ActionTaskPriority = "task_priority"
	ActionTaskCategory = "task_category"
	ActionTaskDate     = "task_date"
	ActionTaskConfirm  = "task_confirm"
)

func init() {
	register(taskDefinition())
}

func taskDefinition() *Definition {
	return &Definition{
		Flow:          models.FlowTask,
		Entry:         "title",
		ConfirmAction: ActionTaskConfirm,
		Summary:       taskSummary,
		Commit:        commitTask,
		Steps: map[string]Step{
			"title": {
				ID:     "title",
				Expect: InputText,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					return "📝 <b>New Task</b>\n\nEnter the task title.\n\n💡 Add tags with #: <code>call plumber #home</code>", nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("please enter the task title as text")
					}
					title, tags := parse.TitleTags(ev.Text)
					if title == "" {
						return nil, models.Validationf("please enter a valid task title")
					}
					return titleValue{title: title, tags: tags}, nil
				},
				Apply: func(draft models.Draft, value any) {
					d := draft.(*models.TaskDraft)
					v := value.(titleValue)
					d.Title = v.title
					d.Tags = v.tags
				},
				Next: func(models.Draft) string { return "priority" },
			},
			"priority": {
				ID:     "priority",
				Expect: InputCallback,
				Prompt: func(draft models.Draft) (string, models.Keyboard) {
					d := draft.(*models.TaskDraft)
					kb := models.Keyboard{nil}
					for _, opt := range models.PriorityOptions {
						kb[0] = append(kb[0], models.Button{Label: opt.Label, Action: ActionTaskPriority, Value: opt.Key})
					}
					return fmt.Sprintf("📌 <b>%s</b>\n\nSelect priority:", d.Title), kb
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					value, err := callbackValue(ev, ActionTaskPriority)
					if err != nil {
						return nil, err
					}
					if !models.ValidCategory(models.PriorityOptions, value) {
						return nil, models.Validationf("unknown priority %q", value)
					}
					return models.Priority(value), nil
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.TaskDraft).Priority = value.(models.Priority)
				},
				Next: func(models.Draft) string { return "category" },
			},
			"category": {
				ID:     "category",
				Expect: InputCallback,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					return "📁 <b>Select Category</b>", models.CategoryKeyboard(models.TaskCategories, ActionTaskCategory)
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					value, err := callbackValue(ev, ActionTaskCategory)
					if err != nil {
						return nil, err
					}
					if !models.ValidCategory(models.TaskCategories, value) {
						return nil, models.Validationf("unknown category %q", value)
					}
					return value, nil
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.TaskDraft).Category = value.(string)
				},
				Next: func(models.Draft) string { return "date" },
			},
			"date": {
				ID:       "date",
				Expect:   InputDate,
				Optional: true,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					kb := models.Keyboard{
						{
							{Label: "📅 Today", Action: ActionTaskDate, Value: "today"},
							{Label: "📆 Tomorrow", Action: ActionTaskDate, Value: "tomorrow"},
						},
						{
							{Label: "📅 This Week", Action: ActionTaskDate, Value: "week"},
							{Label: "📆 Next Week", Action: ActionTaskDate, Value: "next_week"},
						},
					}
					return "📅 <b>When is this task due?</b>\n\nPick below, type a date, or /skip.", kb
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					switch ev.Kind {
					case models.EventCallback:
						if ev.Action != ActionTaskDate {
							return nil, models.Validationf("unexpected selection")
						}
						date, ok := resolveTaskDate(ev.Value, time.Now())
						if !ok {
							return nil, models.Validationf("unknown date option %q", ev.Value)
						}
						return date, nil
					case models.EventText:
						return parseDateValue(ev.Text)
					}
					return nil, models.Validationf("pick a date below or type one like 2025-03-01")
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.TaskDraft).Date = value.(string)
				},
				Next: func(models.Draft) string { return "time" },
			},
			"time": {
				ID:       "time",
				Expect:   InputText,
				Optional: true,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					return "⏰ <b>What time?</b>\n\nEnter like <code>9:30</code>, or /skip.", nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventText {
						return nil, models.Validationf("enter a time like 9:30, or /skip")
					}
					return parseClockValue(ev.Text)
				},
				Apply: func(draft models.Draft, value any) {
					draft.(*models.TaskDraft).Time = value.(string)
				},
				Next: func(models.Draft) string { return models.StepConfirm },
			},
		},
	}
}

type titleValue struct {
	title string
	tags  []string
}

// resolveTaskDate maps the date keyboard shortcuts onto concrete dates.
func resolveTaskDate(code string, now time.Time) (string, bool) {
	switch code {
	case "today":
		return now.Format(parse.DateLayout), true
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(parse.DateLayout), true
	case "week":
		// end of the current week (Sunday)
		days := (7 - int(now.Weekday())) % 7
		return now.AddDate(0, 0, days).Format(parse.DateLayout), true
	case "next_week":
		return now.AddDate(0, 0, 7).Format(parse.DateLayout), true
	}
	return "", false
}

func taskSummary(draft models.Draft) string {
	d := draft.(*models.TaskDraft)

	var b strings.Builder
	b.WriteString("📝 <b>Confirm Task</b>\n\n")
	fmt.Fprintf(&b, "📌 Title: %s\n", d.Title)
	priority := d.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	fmt.Fprintf(&b, "🎯 Priority: %s\n", models.CategoryLabel(models.PriorityOptions, string(priority)))
	category := d.Category
	if category == "" {
		category = "other"
	}
	fmt.Fprintf(&b, "📁 Category: %s\n", models.CategoryLabel(models.TaskCategories, category))
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "🏷️ Tags: #%s\n", strings.Join(d.Tags, " #"))
	}
	if d.Date != "" {
		fmt.Fprintf(&b, "📅 Date: %s\n", d.Date)
	}
	if d.Time != "" {
		fmt.Fprintf(&b, "⏰ Time: %s\n", d.Time)
	}
	return b.String()
}

func commitTask(_ context.Context, st store.Store, userID int64, draft models.Draft, now time.Time) (any, error) {
	d := draft.(*models.TaskDraft)

	task := &models.Task{
		UserID:    userID,
		Title:     d.Title,
		Priority:  d.Priority,
		Category:  d.Category,
		Tags:      d.Tags,
		Date:      d.Date,
		Time:      d.Time,
		Status:    models.TaskPending,
		CreatedAt: now,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Category == "" {
		task.Category = "other"
	}
	if task.Date == "" {
		task.Date = now.Format(parse.DateLayout)
	}
	if err := st.CreateTask(task); err != nil {
		return nil, err
	}
	return task, nil
}
