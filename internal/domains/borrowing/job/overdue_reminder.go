package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
	"library-backend/internal/domains/borrowing/service"
)

// TypeOverdueReminder is the asynq task type for the daily overdue scan.
const TypeOverdueReminder = "borrowing:overdue_reminder"

// NewOverdueReminderTask builds the periodic task. It carries no
// payload; overdue-ness is recomputed from the current date at run time.
func NewOverdueReminderTask() *asynq.Task {
	return asynq.NewTask(TypeOverdueReminder, nil)
}

// OverdueReminderHandler sends a reminder for every active loan past
// its expected return date. Overdue is a derived read-time comparison,
// never a stored state.
type OverdueReminderHandler struct {
	borrowings repository.RepositoryInterface
	notifier   service.Notifier
}

func NewOverdueReminderHandler(borrowings repository.RepositoryInterface, notifier service.Notifier) *OverdueReminderHandler {
	return &OverdueReminderHandler{
		borrowings: borrowings,
		notifier:   notifier,
	}
}

// ProcessTask implements asynq.Handler. Individual delivery failures
// are logged and skipped; the scan itself failing is returned so asynq
// can retry the task.
func (h *OverdueReminderHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	today := model.DateOnly(time.Now())

	loans, err := h.borrowings.ListOverdue(ctx, today)
	if err != nil {
		return fmt.Errorf("overdue scan failed: %w", err)
	}

	var failed int
	for _, loan := range loans {
		text := fmt.Sprintf(
			"Overdue: %s still has %q, due %s",
			loan.UserEmail,
			loan.BookTitle,
			loan.ExpectedReturnDate.Format(time.DateOnly),
		)
		if err := h.notifier.Notify(ctx, text); err != nil {
			failed++
			log.Error().
				Err(err).
				Str("borrowing_id", loan.ID.String()).
				Msg("overdue reminder delivery failed")
		}
	}

	log.Info().
		Int("overdue", len(loans)).
		Int("failed", failed).
		Msg("overdue reminder run finished")

	return nil
}
