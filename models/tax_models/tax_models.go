package tax_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/config/db"
	"github.com/joy095/spaces/logger"
	"github.com/shopspring/decimal"
)

var (
	ErrTaxConfigNotFound  = errors.New("tax configuration not found")
	ErrDuplicateTaxName   = errors.New("a tax configuration with this name already exists")
	ErrPlatformFeeEnabled = errors.New("another enabled platform fee rule already exists")
)

const (
	uniqueViolation         = "23505"
	platformFeeIndex        = "tax_configurations_one_platform_fee"
	taxConfigurationColumns = `id, name, percentage, enabled, applies_to, role, description, created_at, updated_at`
)

// TaxConfiguration is one row of the admin-managed tax table.
type TaxConfiguration struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Percentage  decimal.Decimal   `json:"percentage"`
	Enabled     bool              `json:"enabled"`
	AppliesTo   billing.AppliesTo `json:"applies_to"`
	Role        billing.TaxRole   `json:"role"`
	Description *string           `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Rule converts the row to the splitter's rule type.
func (t *TaxConfiguration) Rule() billing.TaxRule {
	return billing.TaxRule{
		Name:       t.Name,
		Percentage: t.Percentage,
		AppliesTo:  t.AppliesTo,
		Role:       t.Role,
	}
}

func scanTaxConfiguration(row pgx.Row) (*TaxConfiguration, error) {
	t := &TaxConfiguration{}
	err := row.Scan(&t.ID, &t.Name, &t.Percentage, &t.Enabled, &t.AppliesTo, &t.Role,
		&t.Description, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListTaxConfigurations returns every configuration ordered by name. When
// enabledOnly is set, disabled rows are skipped.
func ListTaxConfigurations(ctx context.Context, q db.DBTX, enabledOnly bool) ([]TaxConfiguration, error) {
	query := `SELECT ` + taxConfigurationColumns + ` FROM tax_configurations`
	if enabledOnly {
		query += ` WHERE enabled`
	}
	query += ` ORDER BY name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list tax configurations: %v", err)
		return nil, fmt.Errorf("database error listing tax configurations: %w", err)
	}
	defer rows.Close()

	var out []TaxConfiguration
	for rows.Next() {
		t, err := scanTaxConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax configuration: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// LoadSnapshot reads the enabled rules into a validated snapshot.
func LoadSnapshot(ctx context.Context, q db.DBTX) (billing.TaxSnapshot, error) {
	configs, err := ListTaxConfigurations(ctx, q, true)
	if err != nil {
		return billing.TaxSnapshot{}, err
	}
	rules := make([]billing.TaxRule, 0, len(configs))
	for i := range configs {
		rules = append(rules, configs[i].Rule())
	}
	snap, err := billing.NewTaxSnapshot(rules)
	if err != nil {
		return billing.TaxSnapshot{}, err
	}
	if !snap.HasPlatformFee() {
		logger.WarnLogger.Warn("No enabled platform fee configured; bookings will carry no commission")
	}
	return snap, nil
}

// GetTaxConfiguration fetches one configuration by id.
func GetTaxConfiguration(ctx context.Context, q db.DBTX, id uuid.UUID) (*TaxConfiguration, error) {
	t, err := scanTaxConfiguration(q.QueryRow(ctx,
		`SELECT `+taxConfigurationColumns+` FROM tax_configurations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaxConfigNotFound
		}
		return nil, fmt.Errorf("database error fetching tax configuration: %w", err)
	}
	return t, nil
}

// CreateTaxConfiguration inserts t, assigning its id and timestamps.
func CreateTaxConfiguration(ctx context.Context, q db.DBTX, t *TaxConfiguration) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID for tax configuration: %w", err)
	}
	t.ID = id

	err = q.QueryRow(ctx, `
		INSERT INTO tax_configurations (id, name, percentage, enabled, applies_to, role, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Percentage, t.Enabled, t.AppliesTo, t.Role, t.Description,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	logger.InfoLogger.Infof("Tax configuration %s (%s) created", t.Name, t.ID)
	return nil
}

// UpdateTaxConfiguration overwrites the mutable fields of the row with t.ID.
func UpdateTaxConfiguration(ctx context.Context, q db.DBTX, t *TaxConfiguration) error {
	err := q.QueryRow(ctx, `
		UPDATE tax_configurations
		SET name = $2, percentage = $3, enabled = $4, applies_to = $5, role = $6,
		    description = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Percentage, t.Enabled, t.AppliesTo, t.Role, t.Description,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTaxConfigNotFound
		}
		return mapWriteError(err)
	}
	logger.InfoLogger.Infof("Tax configuration %s (%s) updated", t.Name, t.ID)
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == platformFeeIndex {
			return ErrPlatformFeeEnabled
		}
		return ErrDuplicateTaxName
	}
	logger.ErrorLogger.Errorf("Failed to write tax configuration: %v", err)
	return fmt.Errorf("database error writing tax configuration: %w", err)
}
