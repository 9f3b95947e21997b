package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/tally-ledger/internal/domain"
)

// Operations is the caller-facing capability set of the ledger.
type Operations interface {
	RecalculateOutstanding(ctx context.Context, partner string, year int) error
	GetOutstanding(ctx context.Context, year int) (*ReportStruct, error)
	GetOutstandingItems(ctx context.Context, year int, partner string) (*ReportStruct, error)
	GetLedger(ctx context.Context, f Filter, columns []string) (*ReportStruct, error)
	ListTransactions(ctx context.Context, year, month int, partner string) (*ReportStruct, error)
	CreateTransaction(ctx context.Context, fields Fields) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, fields Fields) (*domain.Transaction, error)
}

// Operation names a dispatchable ledger operation.
type Operation string

const (
	OpRecalculateOutstanding Operation = "recalculate_outstanding"
	OpGetOutstanding         Operation = "get_outstanding"
	OpGetOutstandingItems    Operation = "get_outstanding_items"
	OpGetLedger              Operation = "get_ledger"
	OpListTransactions       Operation = "list_transactions"
	OpCreateTransaction      Operation = "create_transaction"
	OpUpdateTransaction      Operation = "update_transaction"
)

// Args are the loosely typed arguments of a dispatched operation.
type Args map[string]any

// Result is the outcome of a dispatched operation. Exactly one of Report and
// Transaction is set for reads and mutations, neither for recalculation.
type Result struct {
	Operation   Operation           `json:"operation"`
	Message     string              `json:"message"`
	Report      *ReportStruct       `json:"-"`
	Transaction *domain.Transaction `json:"-"`
}

// Handler runs one operation.
type Handler func(ctx context.Context, args Args) (*Result, error)

// Dispatcher routes operation names to handlers over an Operations implementation.
type Dispatcher struct {
	handlers map[Operation]Handler
	now      func() time.Time
}

// NewDispatcher builds the operation table for ops. now supplies the default year.
func NewDispatcher(ops Operations, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	d := &Dispatcher{now: now}
	d.handlers = map[Operation]Handler{
		OpRecalculateOutstanding: func(ctx context.Context, args Args) (*Result, error) {
			partner, err := args.requiredString("partner")
			if err != nil {
				return nil, err
			}
			year, err := d.year(args)
			if err != nil {
				return nil, err
			}
			if err := ops.RecalculateOutstanding(ctx, partner, year); err != nil {
				return nil, err
			}
			return &Result{Message: fmt.Sprintf("Outstanding recalculated for %s, %d", partner, year)}, nil
		},
		OpGetOutstanding: func(ctx context.Context, args Args) (*Result, error) {
			year, err := d.year(args)
			if err != nil {
				return nil, err
			}
			report, err := ops.GetOutstanding(ctx, year)
			if err != nil {
				return nil, err
			}
			return reportResult(report), nil
		},
		OpGetOutstandingItems: func(ctx context.Context, args Args) (*Result, error) {
			year, err := d.year(args)
			if err != nil {
				return nil, err
			}
			partner, err := args.optionalString("partner")
			if err != nil {
				return nil, err
			}
			report, err := ops.GetOutstandingItems(ctx, year, partner)
			if err != nil {
				return nil, err
			}
			return reportResult(report), nil
		},
		OpGetLedger: func(ctx context.Context, args Args) (*Result, error) {
			var f Filter
			var err error
			if f.Year, err = args.optionalString("filter_by_year"); err != nil {
				return nil, err
			}
			if f.Quarter, err = args.optionalString("filter_by_quarter"); err != nil {
				return nil, err
			}
			if f.Month, err = args.optionalString("filter_by_month"); err != nil {
				return nil, err
			}
			columns, err := args.stringList("columns")
			if err != nil {
				return nil, err
			}
			report, err := ops.GetLedger(ctx, f, columns)
			if err != nil {
				return nil, err
			}
			return reportResult(report), nil
		},
		OpListTransactions: func(ctx context.Context, args Args) (*Result, error) {
			year, err := d.year(args)
			if err != nil {
				return nil, err
			}
			month, err := args.optionalInt("month")
			if err != nil {
				return nil, err
			}
			partner, err := args.optionalString("partner")
			if err != nil {
				return nil, err
			}
			report, err := ops.ListTransactions(ctx, year, month, partner)
			if err != nil {
				return nil, err
			}
			return reportResult(report), nil
		},
		OpCreateTransaction: func(ctx context.Context, args Args) (*Result, error) {
			tx, err := ops.CreateTransaction(ctx, Fields(args))
			if err != nil {
				return nil, err
			}
			return &Result{Message: "Transaction " + tx.ID + " created", Transaction: tx}, nil
		},
		OpUpdateTransaction: func(ctx context.Context, args Args) (*Result, error) {
			id, err := args.requiredString("id")
			if err != nil {
				return nil, err
			}
			fields := make(Fields, len(args))
			for k, v := range args {
				if k != "id" {
					fields[k] = v
				}
			}
			tx, err := ops.UpdateTransaction(ctx, id, fields)
			if err != nil {
				return nil, err
			}
			return &Result{Message: "Transaction " + tx.ID + " updated", Transaction: tx}, nil
		},
	}
	return d
}

// Dispatch runs op with args. Unregistered operations fail with ErrUnknownOperation.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, args Args) (*Result, error) {
	h, ok := d.handlers[op]
	if !ok {
		return nil, fmt.Errorf("Dispatch: %q: %w", op, ErrUnknownOperation)
	}
	if args == nil {
		args = Args{}
	}
	res, err := h(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("Dispatch %s: %w", op, err)
	}
	res.Operation = op
	return res, nil
}

// Operations lists the registered operation names in sorted order.
func (d *Dispatcher) Operations() []Operation {
	ops := make([]Operation, 0, len(d.handlers))
	for op := range d.handlers {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// ParseOperation maps a name to its Operation, accepting hyphens for underscores.
func ParseOperation(name string) (Operation, error) {
	op := Operation(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	switch op {
	case OpRecalculateOutstanding, OpGetOutstanding, OpGetOutstandingItems, OpGetLedger,
		OpListTransactions, OpCreateTransaction, OpUpdateTransaction:
		return op, nil
	}
	return "", fmt.Errorf("ParseOperation: %q: %w", name, ErrUnknownOperation)
}

func reportResult(r *ReportStruct) *Result {
	return &Result{Message: fmt.Sprintf("%s: %d rows", r.Title, len(r.Rows)), Report: r}
}

func (d *Dispatcher) year(args Args) (int, error) {
	year, err := args.optionalInt("year")
	if err != nil {
		return 0, err
	}
	if year == 0 {
		return d.now().Year(), nil
	}
	if year < 1 || year > 9999 {
		return 0, fmt.Errorf("year %d: %w", year, ErrInvalidFilter)
	}
	return year, nil
}

func (a Args) requiredString(name string) (string, error) {
	if isBlank(a[name]) {
		return "", fmt.Errorf("%s: %w", name, ErrMissingField)
	}
	return coerceString(name, a[name])
}

func (a Args) optionalString(name string) (string, error) {
	return coerceString(name, a[name])
}

func (a Args) optionalInt(name string) (int, error) {
	n, err := coerceAccount(name, a[name])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, ErrInvalidFilter)
	}
	return n, nil
}

// stringList accepts a JSON array of strings or one comma separated string.
func (a Args) stringList(name string) ([]string, error) {
	switch v := a[name].(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return strings.Split(v, ","), nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: element %T: %w", name, item, ErrInvalidField)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: unsupported type %T: %w", name, a[name], ErrInvalidField)
}
