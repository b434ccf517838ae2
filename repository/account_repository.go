package repository

import (
	"database/sql"
	"go-finance-api/logger"
	"go-finance-api/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IAccountRepository defines the contract for account database operations.
type IAccountRepository interface {
	CreateAccount(account *model.Account) error
	GetAccountByID(accountID uuid.UUID) (*model.Account, error)
	GetAccountsByUserID(userID uuid.UUID) ([]*model.Account, error)
	UpdateAccount(accountID, userID uuid.UUID, req model.UpdateAccountRequest) (*model.Account, error)
	SetAccountActive(accountID, userID uuid.UUID, isActive bool) error
	AdjustBalance(accountID uuid.UUID, delta decimal.Decimal) (*model.Account, error)
	AdjustBalanceTx(tx *sql.Tx, accountID uuid.UUID, delta decimal.Decimal) error
	GetTotalBalance(userID uuid.UUID) (decimal.Decimal, error)
}

// AccountRepository implements IAccountRepository on top of postgres.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `id, user_id, name, type, balance, currency, account_number, is_active, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*model.Account, error) {
	acc := &model.Account{}
	err := row.Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.Type, &acc.Balance,
		&acc.Currency, &acc.AccountNumber, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// CreateAccount adds a new account to the database.
func (r *AccountRepository) CreateAccount(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        account.UserID,
		"account_number": account.AccountNumber,
		"currency":       account.Currency,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (user_id, name, type, balance, currency, account_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, updated_at`
	err := r.DB.QueryRow(query, account.UserID, account.Name, account.Type, account.Balance,
		account.Currency, account.AccountNumber).
		Scan(&account.ID, &account.IsActive, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}

// GetAccountByID retrieves a single account regardless of its active flag.
func (r *AccountRepository) GetAccountByID(accountID uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.DB.QueryRow(query, accountID))
}

// GetAccountsByUserID retrieves all accounts for a specific user, oldest first.
func (r *AccountRepository) GetAccountsByUserID(userID uuid.UUID) ([]*model.Account, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to get accounts by user ID")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for accounts by user ID")
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan account row")
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// UpdateAccount applies a partial field update. Balance is not updatable
// through this path; only AdjustBalance changes it after creation.
func (r *AccountRepository) UpdateAccount(accountID, userID uuid.UUID, req model.UpdateAccountRequest) (*model.Account, error) {
	var accountType *string
	if req.Type != nil {
		t := string(*req.Type)
		accountType = &t
	}

	query := `UPDATE accounts
		SET name = COALESCE($1, name),
		    type = COALESCE($2, type),
		    currency = COALESCE($3, currency),
		    updated_at = now()
		WHERE id = $4 AND user_id = $5
		RETURNING ` + accountColumns
	return scanAccount(r.DB.QueryRow(query, req.Name, accountType, req.Currency, accountID, userID))
}

// SetAccountActive flips the soft-delete flag. Accounts are never physically
// removed because transactions reference them.
func (r *AccountRepository) SetAccountActive(accountID, userID uuid.UUID, isActive bool) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
		"is_active":  isActive,
	})
	log.Info("Executing query to set account active flag")

	query := `UPDATE accounts SET is_active = $1, updated_at = now() WHERE id = $2 AND user_id = $3`
	res, err := r.DB.Exec(query, isActive, accountID, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute set account active query")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdjustBalance applies balance += delta as a single atomic statement, so
// concurrent adjustments to the same account cannot lose updates.
func (r *AccountRepository) AdjustBalance(accountID uuid.UUID, delta decimal.Decimal) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
		"delta":      delta.String(),
	})
	log.Info("Executing query to adjust account balance")

	query := `UPDATE accounts SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING ` + accountColumns
	account, err := scanAccount(r.DB.QueryRow(query, delta, accountID))
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Account not found for balance adjustment")
		} else {
			log.WithError(err).Error("Failed to execute adjust balance query")
		}
		return nil, err
	}
	return account, nil
}

// AdjustBalanceTx is AdjustBalance scoped to an open database transaction.
func (r *AccountRepository) AdjustBalanceTx(tx *sql.Tx, accountID uuid.UUID, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1, updated_at = now() WHERE id = $2`
	res, err := tx.Exec(query, delta, accountID)
	if err != nil {
		logger.Log.WithField("account_id", accountID).WithError(err).Error("Failed to execute adjust balance query in transaction")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetTotalBalance sums the balance of the user's active accounts.
func (r *AccountRepository) GetTotalBalance(userID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE user_id = $1 AND is_active = TRUE`
	var total decimal.Decimal
	if err := r.DB.QueryRow(query, userID).Scan(&total); err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Error("Failed to execute total balance query")
		return decimal.Zero, err
	}
	return total, nil
}
