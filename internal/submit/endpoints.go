package submit

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

// Expenses returns a Submitter for one-off expenses.
func Expenses(client pulpo.Client) Submitter {
	return Func(func(ctx context.Context, payload any) (int64, error) {
		e, ok := payload.(*model.Expense)
		if !ok {
			return 0, eris.Errorf("submit: expected *model.Expense, got %T", payload)
		}
		return client.CreateExpense(ctx, e)
	})
}

// Fuels returns a Submitter for refueling records.
func Fuels(client pulpo.Client) Submitter {
	return Func(func(ctx context.Context, payload any) (int64, error) {
		f, ok := payload.(*model.Fuel)
		if !ok {
			return 0, eris.Errorf("submit: expected *model.Fuel, got %T", payload)
		}
		return client.CreateFuel(ctx, f)
	})
}

// ScheduledExpenses returns a Submitter for recurring expenses.
func ScheduledExpenses(client pulpo.Client) Submitter {
	return Func(func(ctx context.Context, payload any) (int64, error) {
		s, ok := payload.(*model.ScheduledExpense)
		if !ok {
			return 0, eris.Errorf("submit: expected *model.ScheduledExpense, got %T", payload)
		}
		return client.CreateScheduledExpense(ctx, s)
	})
}

// Reminders returns a Submitter for task reminders.
func Reminders(client pulpo.Client) Submitter {
	return Func(func(ctx context.Context, payload any) (int64, error) {
		r, ok := payload.(*model.Reminder)
		if !ok {
			return 0, eris.Errorf("submit: expected *model.Reminder, got %T", payload)
		}
		return client.CreateReminder(ctx, r)
	})
}

// Insurances returns a Submitter for vehicle insurance property updates.
func Insurances(client pulpo.Client) Submitter {
	return Func(func(ctx context.Context, payload any) (int64, error) {
		ins, ok := payload.(*model.Insurance)
		if !ok {
			return 0, eris.Errorf("submit: expected *model.Insurance, got %T", payload)
		}
		return client.UpdateVehicleInsurance(ctx, ins)
	})
}

// DryRun returns a Submitter that accepts every payload without calling the
// API. Used by the reminders test mode.
func DryRun() Submitter {
	return Func(func(ctx context.Context, payload any) (int64, error) {
		return 0, nil
	})
}
