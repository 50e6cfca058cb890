// Package importer restores domain records from a previously exported JSON
// file. Rows are imported one by one; malformed rows are counted as skipped
// instead of failing the whole file.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oybekjon/hisobot/internal/messaging"
	"github.com/oybekjon/hisobot/internal/models"
	"github.com/oybekjon/hisobot/internal/parse"
	"github.com/oybekjon/hisobot/internal/store"
)

// exportFile mirrors the JSON layout written by the export command.
type exportFile struct {
	Tasks        []exportTask        `json:"tasks"`
	Transactions []exportTransaction `json:"transactions"`
	Debts        []exportDebt        `json:"debts"`
}

type exportTask struct {
	Title    string   `json:"title"`
	Priority string   `json:"priority"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Date     string   `json:"date"`
	Time     string   `json:"time"`
	Status   string   `json:"status"`
}

type exportTransaction struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Note     string `json:"note"`
	Date     string `json:"date"`
}

type exportDebt struct {
	Type       string `json:"type"`
	Person     string `json:"person_name"`
	Amount     string `json:"amount"`
	AmountPaid string `json:"amount_paid"`
	Note       string `json:"note"`
	Date       string `json:"date"`
	DueDate    string `json:"due_date"`
	Status     string `json:"status"`
}

// Importer downloads an export file and replays its rows into the store.
type Importer struct {
	store     store.Store
	messenger messaging.Service
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an Importer.
func New(st store.Store, messenger messaging.Service, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: st, messenger: messenger, logger: logger, now: time.Now}
}

// Import fetches the document and restores its rows for the user. The
// returned report counts created records per section plus skipped rows.
func (i *Importer) Import(ctx context.Context, userID int64, doc models.DocumentRef) (*models.ImportReport, error) {
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".json") {
		return nil, fmt.Errorf("unsupported file %q, expected a .json export", doc.FileName)
	}

	content, err := i.messenger.DownloadFile(ctx, doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("fetch export file: %w", err)
	}

	var file exportFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse export file: %w", err)
	}

	report := &models.ImportReport{}
	now := i.now()

	for _, row := range file.Tasks {
		if err := i.importTask(userID, row, now); err != nil {
			i.logger.Debug("task row skipped", "userID", userID, "error", err)
			report.Skipped++
			continue
		}
		report.Tasks++
	}
	for _, row := range file.Transactions {
		if err := i.importTransaction(userID, row, now); err != nil {
			i.logger.Debug("transaction row skipped", "userID", userID, "error", err)
			report.Skipped++
			continue
		}
		report.Transactions++
	}
	for _, row := range file.Debts {
		if err := i.importDebt(userID, row, now); err != nil {
			i.logger.Debug("debt row skipped", "userID", userID, "error", err)
			report.Skipped++
			continue
		}
		report.Debts++
	}

	i.logger.Info("import finished", "userID", userID,
		"tasks", report.Tasks, "transactions", report.Transactions, "debts", report.Debts, "skipped", report.Skipped)
	return report, nil
}

func (i *Importer) importTask(userID int64, row exportTask, now time.Time) error {
	if strings.TrimSpace(row.Title) == "" {
		return fmt.Errorf("missing title")
	}
	task := &models.Task{
		UserID:    userID,
		Title:     strings.TrimSpace(row.Title),
		Priority:  models.Priority(row.Priority),
		Category:  row.Category,
		Tags:      row.Tags,
		Date:      row.Date,
		Time:      row.Time,
		Status:    models.TaskStatus(row.Status),
		CreatedAt: now,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Category == "" {
		task.Category = "other"
	}
	if task.Status != models.TaskCompleted {
		task.Status = models.TaskPending
	}
	return i.store.CreateTask(task)
}

func (i *Importer) importTransaction(userID int64, row exportTransaction, now time.Time) error {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("bad amount %q", row.Amount)
	}
	txType := models.TransactionType(row.Type)
	if txType != models.TransactionIncome && txType != models.TransactionExpense {
		return fmt.Errorf("bad type %q", row.Type)
	}
	tx := &models.Transaction{
		UserID:    userID,
		Type:      txType,
		Amount:    amount,
		Currency:  models.DefaultCurrency,
		Category:  row.Category,
		Note:      row.Note,
		Date:      row.Date,
		CreatedAt: now,
	}
	if tx.Category == "" {
		tx.Category = "other"
	}
	if tx.Date == "" {
		tx.Date = now.Format(parse.DateLayout)
	}
	return i.store.CreateTransaction(tx)
}

func (i *Importer) importDebt(userID int64, row exportDebt, now time.Time) error {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("bad amount %q", row.Amount)
	}
	debtType := models.DebtType(row.Type)
	if debtType != models.DebtGiven && debtType != models.DebtReceived {
		return fmt.Errorf("bad type %q", row.Type)
	}
	paid := decimal.Zero
	if row.AmountPaid != "" {
		if paid, err = decimal.NewFromString(row.AmountPaid); err != nil {
			return fmt.Errorf("bad amount_paid %q", row.AmountPaid)
		}
	}
	if strings.TrimSpace(row.Person) == "" {
		return fmt.Errorf("missing person")
	}
	debt := &models.Debt{
		UserID:     userID,
		Type:       debtType,
		Person:     strings.TrimSpace(row.Person),
		Amount:     amount,
		AmountPaid: paid,
		Currency:   models.DefaultCurrency,
		Note:       row.Note,
		Date:       row.Date,
		DueDate:    row.DueDate,
		Status:     models.DebtStatus(row.Status),
		CreatedAt:  now,
	}
	if debt.Date == "" {
		debt.Date = now.Format(parse.DateLayout)
	}
	if debt.Status != models.DebtPaid {
		debt.Status = models.DebtActive
	}
	return i.store.CreateDebt(debt)
}
