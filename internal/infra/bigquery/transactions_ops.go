package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/tally-ledger/internal/domain"
	"google.golang.org/api/iterator"
)

const (
	transactionsTable = "transactions"
	partnersTable     = "partners"
)

// Dataset locates the ledger tables.
type Dataset struct {
	ProjectID string
	DatasetID string
}

// table returns the backquoted fully qualified table name.
func (d Dataset) table(name string) string {
	return "`" + d.ProjectID + "." + d.DatasetID + "." + name + "`"
}

const transactionColumns = `
			transaction_id,
			booking_date,
			reference,
			source,
			comment,
			partner_id,
			debit_account,
			credit_account,
			debit_amount,
			credit_amount,
			debit_currency,
			credit_currency,
			deal_value,
			rate,
			debit_stack,
			credit_stack,
			created_ts,
			updated_ts`

// buildTransactionQuery translates filter to SQL and parameters. Rows come back in
// insertion order (created_ts, then transaction_id).
func buildTransactionQuery(ds Dataset, filter domain.TransactionFilter) (string, []bigquery.QueryParameter) {
	var where []string
	var params []bigquery.QueryParameter

	if filter.From != nil {
		where = append(where, "booking_date >= @from_date")
		params = append(params, bigquery.QueryParameter{Name: "from_date", Value: *filter.From})
	}
	if filter.To != nil {
		where = append(where, "booking_date < @to_date")
		params = append(params, bigquery.QueryParameter{Name: "to_date", Value: *filter.To})
	}
	if filter.Partner != "" {
		where = append(where, "partner_id = @partner_id")
		params = append(params, bigquery.QueryParameter{Name: "partner_id", Value: filter.Partner})
	}
	if filter.Debit != 0 {
		where = append(where, "debit_account = @debit_account")
		params = append(params, bigquery.QueryParameter{Name: "debit_account", Value: int64(filter.Debit)})
	}
	if filter.Credit != 0 {
		where = append(where, "credit_account = @credit_account")
		params = append(params, bigquery.QueryParameter{Name: "credit_account", Value: int64(filter.Credit)})
	}
	if filter.NonZeroDebitStack {
		where = append(where, "COALESCE(debit_stack, 0) != 0")
	}
	if filter.NonZeroCreditStack {
		where = append(where, "COALESCE(credit_stack, 0) != 0")
	}

	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(transactionColumns)
	b.WriteString("\n\t\tFROM ")
	b.WriteString(ds.table(transactionsTable))
	if len(where) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(where, "\n\t\t  AND "))
	}
	b.WriteString("\n\t\tORDER BY created_ts, transaction_id")
	if filter.Limit > 0 {
		fmt.Fprintf(&b, "\n\t\tLIMIT %d", filter.Limit)
	}
	return b.String(), params
}

// QueryTransactionsWithClient returns the transactions matching filter using the
// provided BigQuery client.
func QueryTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	sql, params := buildTransactionQuery(ds, filter)
	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsWithClient: query read: %w", err)
	}

	rows := []*domain.Transaction{}
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsWithClient: iter next: %w", err)
		}
		rows = append(rows, r.ToDomain())
	}

	return rows, nil
}

// GetTransactionWithClient returns the transaction with id, or nil if there is none.
func GetTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string) (*domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT%s
		FROM %s
		WHERE transaction_id = @transaction_id
		LIMIT 1
	`, transactionColumns, ds.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionWithClient: reading query: %w", err)
	}

	var row TransactionRow
	err = it.Next(&row)
	if err == iterator.Done {
		// No matching transaction found
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransactionWithClient: iterating: %w", err)
	}

	return row.ToDomain(), nil
}

// UpsertTransactionWithClient inserts tx or replaces every mutable column of the
// existing row. created_ts is kept from the first insert.
func UpsertTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("UpsertTransactionWithClient: transaction_id cannot be empty")
	}
	row := TransactionToRow(tx)
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now().UTC()
	}

	q := client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @transaction_id AS transaction_id) S
		ON T.transaction_id = S.transaction_id
		WHEN MATCHED THEN UPDATE SET
			booking_date = @booking_date,
			reference = @reference,
			source = @source,
			comment = @comment,
			partner_id = @partner_id,
			debit_account = @debit_account,
			credit_account = @credit_account,
			debit_amount = @debit_amount,
			credit_amount = @credit_amount,
			debit_currency = @debit_currency,
			credit_currency = @credit_currency,
			deal_value = @deal_value,
			rate = @rate,
			debit_stack = @debit_stack,
			credit_stack = @credit_stack,
			updated_ts = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN INSERT (%s
		)
		VALUES (
			@transaction_id, @booking_date, @reference, @source, @comment,
			@partner_id, @debit_account, @credit_account,
			@debit_amount, @credit_amount, @debit_currency, @credit_currency,
			@deal_value, @rate, @debit_stack, @credit_stack,
			@created_ts, NULL
		)
	`, ds.table(transactionsTable), transactionColumns))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "booking_date", Value: row.BookingDate},
		{Name: "reference", Value: row.Reference},
		{Name: "source", Value: row.Source},
		{Name: "comment", Value: row.Comment},
		{Name: "partner_id", Value: row.PartnerID},
		{Name: "debit_account", Value: row.DebitAccount},
		{Name: "credit_account", Value: row.CreditAccount},
		{Name: "debit_amount", Value: row.DebitAmount},
		{Name: "credit_amount", Value: row.CreditAmount},
		{Name: "debit_currency", Value: row.DebitCurrency},
		{Name: "credit_currency", Value: row.CreditCurrency},
		{Name: "deal_value", Value: row.DealValue},
		{Name: "rate", Value: row.Rate},
		{Name: "debit_stack", Value: row.DebitStack},
		{Name: "credit_stack", Value: row.CreditStack},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	return runAndWait(ctx, q, "UpsertTransactionWithClient")
}

// runAndWait runs a DML query and waits for the job to finish.
func runAndWait(ctx context.Context, q *bigquery.Query, caller string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", caller, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", caller, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", caller, err)
	}
	return nil
}
