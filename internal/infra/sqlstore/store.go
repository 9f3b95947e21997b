package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/ledger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBConfig holds the SQL connection settings.
type DBConfig struct {
	Driver   string // postgres or mysql
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN builds the driver-specific connection string.
func (c DBConfig) DSN() string {
	if c.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", c.User, c.Password, c.Host, c.Port, c.Name)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", c.Host, c.User, c.Password, c.Name, c.Port)
}

// Open connects to the configured database.
func Open(cfg DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("Open: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("Open: connecting to %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// Migrate creates or updates the ledger tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	for _, model := range RegisterModels() {
		if err := db.WithContext(ctx).AutoMigrate(model.Model); err != nil {
			return fmt.Errorf("Migrate: %T: %w", model.Model, err)
		}
	}
	return nil
}

// Store is the gorm implementation of ledger.Store and ledger.PartnerRepository.
type Store struct {
	db *gorm.DB
}

// New creates a store over an open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return sqlDB.Close()
}

// applyFilter adds filter predicates to q.
func applyFilter(q *gorm.DB, filter domain.TransactionFilter) *gorm.DB {
	if filter.From != nil {
		q = q.Where("booking_date >= ?", filter.From.String())
	}
	if filter.To != nil {
		q = q.Where("booking_date < ?", filter.To.String())
	}
	if filter.Partner != "" {
		q = q.Where("partner_id = ?", filter.Partner)
	}
	if filter.Debit != 0 {
		q = q.Where("debit_account = ?", filter.Debit)
	}
	if filter.Credit != 0 {
		q = q.Where("credit_account = ?", filter.Credit)
	}
	if filter.NonZeroDebitStack {
		q = q.Where("debit_stack <> 0")
	}
	if filter.NonZeroCreditStack {
		q = q.Where("credit_stack <> 0")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q.Order("created_at, id")
}

// QueryTransactions implements ledger.Store.
func (s *Store) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var models []Transaction
	if err := applyFilter(s.db.WithContext(ctx).Model(&Transaction{}), filter).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("QueryTransactions: %w", err)
	}

	result := make([]*domain.Transaction, 0, len(models))
	for i := range models {
		result = append(result, models[i].toDomain())
	}
	return result, nil
}

// GetTransaction implements ledger.Store.
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var m Transaction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return m.toDomain(), nil
}

// PutTransaction implements ledger.Store as an insert-or-update on id.
func (s *Store) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	m := transactionFromDomain(tx)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(m).Error
	if err != nil {
		return fmt.Errorf("PutTransaction: %w", err)
	}
	return nil
}

// FindPartner implements ledger.PartnerResolver. A canonical name match wins
// over an alias match.
func (s *Store) FindPartner(ctx context.Context, name string) (*domain.Partner, error) {
	norm := domain.NormalizeName(name)
	if norm == "" {
		return nil, nil
	}

	var m Partner
	err := s.db.WithContext(ctx).Preload("Aliases").
		Where("UPPER(TRIM(name)) = ?", norm).
		Order("name, id").
		First(&m).Error
	if err == nil {
		return m.toDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("FindPartner: by name: %w", err)
	}

	err = s.db.WithContext(ctx).Preload("Aliases").
		Joins("JOIN partner_aliases ON partner_aliases.partner_id = partners.id").
		Where("UPPER(TRIM(partner_aliases.name)) = ?", norm).
		Order("partners.name, partners.id").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindPartner: by alias: %w", err)
	}
	return m.toDomain(), nil
}

// PutPartner implements ledger.PartnerRepository. Aliases are replaced as a whole.
func (s *Store) PutPartner(ctx context.Context, p *domain.Partner) error {
	if p.ID == "" {
		return fmt.Errorf("PutPartner: partner ID is required")
	}
	m := partnerFromDomain(p)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Omit("Aliases").Create(m).Error; err != nil {
			return err
		}
		if err := tx.Where("partner_id = ?", p.ID).Delete(&PartnerAlias{}).Error; err != nil {
			return err
		}
		if len(m.Aliases) > 0 {
			if err := tx.Create(&m.Aliases).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("PutPartner: %w", err)
	}
	return nil
}

// ListPartners implements ledger.PartnerRepository, ordered by name.
func (s *Store) ListPartners(ctx context.Context) ([]*domain.Partner, error) {
	var models []Partner
	if err := s.db.WithContext(ctx).Preload("Aliases").Order("name, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ListPartners: %w", err)
	}

	result := make([]*domain.Partner, 0, len(models))
	for i := range models {
		result = append(result, models[i].toDomain())
	}
	return result, nil
}

// Ensure Store implements the ledger interfaces.
var (
	_ ledger.Store             = (*Store)(nil)
	_ ledger.PartnerRepository = (*Store)(nil)
)
