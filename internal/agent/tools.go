// Package agent exposes the ledger operations as function-calling tools for a
// Gemini model. The conversation itself lives outside this module: callers put
// Declarations into their GenerateContentConfig and answer each FunctionCall
// the model emits with Library.
package agent

import (
	"context"

	"github.com/dvloznov/tally-ledger/internal/ledger"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/dvloznov/tally-ledger/internal/render"
	"google.golang.org/genai"
)

// Library answers one function call from the model.
type Library func(context.Context, *genai.FunctionCall) *genai.FunctionResponse

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func integer(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeInteger, Description: desc}
}

func number(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: desc}
}

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

// transactionFields describes the writable booking fields shared by create and update.
func transactionFields() map[string]*genai.Schema {
	return map[string]*genai.Schema{
		"date":            str("Booking date, YYYY-MM-DD."),
		"reference":       str("Document reference that legalizes the booking."),
		"source":          str("Source of the related document."),
		"comment":         str("Free text."),
		"partner":         str("Partner name or alias. Empty detaches the partner."),
		"debit":           integer("Debit account code."),
		"credit":          integer("Credit account code."),
		"debit_amount":    number("Amount booked on the debit side."),
		"credit_amount":   number("Amount booked on the credit side, defaults to debit_amount."),
		"debit_currency":  str("ISO 4217 code of the debit amount."),
		"credit_currency": str("ISO 4217 code of the credit amount."),
		"deal_value":      number("Deal value."),
		"rate":            number("Exchange rate, defaults to 1."),
	}
}

// Declarations returns one function declaration per ledger operation.
func Declarations() []*genai.FunctionDeclaration {
	update := transactionFields()
	update["id"] = str("Id of the booking to update.")

	return []*genai.FunctionDeclaration{
		{
			Name:        string(ledger.OpRecalculateOutstanding),
			Description: "Recompute the outstanding (unmatched) amounts of every booking of a partner on the clearing accounts for one year.",
			Parameters: object([]string{"partner"}, map[string]*genai.Schema{
				"partner": str("Partner name or alias."),
				"year":    integer("Calendar year, defaults to the current year."),
			}),
		},
		{
			Name:        string(ledger.OpGetOutstanding),
			Description: "List every booking of a year that still carries an outstanding amount on a clearing account.",
			Parameters: object(nil, map[string]*genai.Schema{
				"year": integer("Calendar year, defaults to the current year."),
			}),
		},
		{
			Name:        string(ledger.OpGetOutstandingItems),
			Description: "List the outstanding bookings of a year, optionally for one partner only.",
			Parameters: object(nil, map[string]*genai.Schema{
				"year":    integer("Calendar year, defaults to the current year."),
				"partner": str("Partner name or alias."),
			}),
		},
		{
			Name:        string(ledger.OpGetLedger),
			Description: "Export the general ledger for a year, quarter or month. Without a filter the whole ledger is returned.",
			Parameters: object(nil, map[string]*genai.Schema{
				"filter_by_year":    str("Year the quarter belongs to, the current year by default."),
				"filter_by_quarter": str("Quarter Q1 to Q4, or 'last' for the quarter before today."),
				"filter_by_month":   str("Month as YYYY-MM."),
				"columns": {
					Type:        genai.TypeArray,
					Description: "Columns to include, all by default.",
					Items:       str("Column name."),
				},
			}),
		},
		{
			Name:        string(ledger.OpListTransactions),
			Description: "List at most 100 bookings of a year, optionally narrowed to a month and a partner.",
			Parameters: object(nil, map[string]*genai.Schema{
				"year":    integer("Calendar year, defaults to the current year."),
				"month":   integer("Month 1-12."),
				"partner": str("Partner name or alias."),
			}),
		},
		{
			Name:        string(ledger.OpCreateTransaction),
			Description: "Record a new booking. Outstanding amounts are not recomputed.",
			Parameters:  object([]string{"date", "debit_amount"}, transactionFields()),
		},
		{
			Name:        string(ledger.OpUpdateTransaction),
			Description: "Change fields of an existing booking. Outstanding amounts are not recomputed.",
			Parameters:  object([]string{"id"}, update),
		},
	}
}

// NewLibrary answers function calls through d.
func NewLibrary(d *ledger.Dispatcher) Library {
	return func(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
		resp := &genai.FunctionResponse{ID: call.ID, Name: call.Name}
		log := logger.FromContext(ctx).With().Str("function", call.Name).Logger()

		op, err := ledger.ParseOperation(call.Name)
		if err == nil {
			var res *ledger.Result
			if res, err = d.Dispatch(ctx, op, ledger.Args(call.Args)); err == nil {
				resp.Response = response(res)
				log.Debug().Msg("Function call answered")
				return resp
			}
		}

		if ledger.IsCallerError(err) {
			log.Info().Err(err).Msg("Function call rejected")
		} else {
			log.Error().Err(err).Msg("Function call failed")
		}
		resp.Response = map[string]any{"error": err.Error()}
		return resp
	}
}

func response(res *ledger.Result) map[string]any {
	out := map[string]any{"output": res.Message}
	if res.Report != nil {
		out["report"] = render.JSONValue(res.Report)
	}
	if res.Transaction != nil {
		out["transaction"] = render.TransactionValue(res.Transaction)
	}
	return out
}
