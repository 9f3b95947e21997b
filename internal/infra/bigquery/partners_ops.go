package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// ListPartnersWithClient retrieves all partners ordered by name using the provided BigQuery client.
func ListPartnersWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]*domain.Partner, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			partner_id,
			name,
			other_names,
			created_ts
		FROM %s
		ORDER BY name, partner_id
	`, ds.table(partnersTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListPartnersWithClient: reading query: %w", err)
	}

	var partners []*domain.Partner
	for {
		var row PartnerRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListPartnersWithClient: iterating: %w", err)
		}
		partners = append(partners, row.ToDomain())
	}

	return partners, nil
}

// FindPartnerWithClient finds the partner whose name or alias matches name.
// Normalization: trims whitespace and converts to uppercase for comparison.
// A canonical name match wins over an alias match. Returns nil if none matches.
func FindPartnerWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, name string) (*domain.Partner, error) {
	norm := domain.NormalizeName(name)
	if norm == "" {
		return nil, nil
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			partner_id,
			name,
			other_names,
			created_ts
		FROM %s
		WHERE UPPER(TRIM(name)) = @name
		   OR EXISTS (SELECT 1 FROM UNNEST(other_names) AS alias WHERE UPPER(TRIM(alias)) = @name)
		ORDER BY IF(UPPER(TRIM(name)) = @name, 0, 1), name, partner_id
		LIMIT 1
	`, ds.table(partnersTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "name", Value: norm},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindPartnerWithClient: reading query: %w", err)
	}

	var row PartnerRow
	err = it.Next(&row)
	if err == iterator.Done {
		// No matching partner found
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindPartnerWithClient: iterating: %w", err)
	}

	return row.ToDomain(), nil
}

// UpsertPartnerWithClient inserts p or replaces its name and aliases.
// An empty ID is filled with a new UUID.
func UpsertPartnerWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, p *domain.Partner) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("UpsertPartnerWithClient: name cannot be empty")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := PartnerToRow(p, time.Now().UTC())

	q := client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @partner_id AS partner_id) S
		ON T.partner_id = S.partner_id
		WHEN MATCHED THEN UPDATE SET
			name = @name,
			other_names = @other_names
		WHEN NOT MATCHED THEN INSERT (partner_id, name, other_names, created_ts)
		VALUES (@partner_id, @name, @other_names, @created_ts)
	`, ds.table(partnersTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "partner_id", Value: row.PartnerID},
		{Name: "name", Value: row.Name},
		{Name: "other_names", Value: row.OtherNames},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	return runAndWait(ctx, q, "UpsertPartnerWithClient")
}
