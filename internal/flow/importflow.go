package flow

import (
	"github.com/oybekjon/hisobot/internal/models"
)

func init() {
	register(importDefinition())
}

// The import flow waits for one document upload. The actual parsing and
// row-by-row restore is the importer's job, driven by the commit engine,
// so this definition carries no Commit of its own.
func importDefinition() *Definition {
	return &Definition{
		Flow:       models.FlowImport,
		Entry:      "file",
		AutoCommit: true,
		Summary: func(models.Draft) string {
			return "📥 Import received."
		},
		Steps: map[string]Step{
			"file": {
				ID:     "file",
				Expect: InputDocument,
				Prompt: func(models.Draft) (string, models.Keyboard) {
					return "📥 <b>Import Data</b>\n\nSend the JSON export file you saved earlier.", nil
				},
				Validate: func(_ models.Draft, ev models.Event) (any, error) {
					if ev.Kind != models.EventDocument || ev.Document == nil {
						return nil, models.Validationf("please send the export file as a document")
					}
					return *ev.Document, nil
				},
				Apply: func(draft models.Draft, value any) {
					d := draft.(*models.ImportDraft)
					doc := value.(models.DocumentRef)
					d.FileID = doc.FileID
					d.FileName = doc.FileName
				},
				Next: func(models.Draft) string { return models.StepConfirm },
			},
		},
	}
}
