// file: service/account_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"go-finance-api/model"
	"go-finance-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountService owns account business operations. The per-user account list
// is served through a cache-aside strategy; every mutation invalidates it.
type AccountService struct {
	repo        repository.IAccountRepository
	cacheClient ICacheClient
}

func NewAccountService(repo repository.IAccountRepository, cacheClient ICacheClient) *AccountService {
	return &AccountService{
		repo:        repo,
		cacheClient: cacheClient,
	}
}

func accountsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("accounts:%s", userID)
}

// CreateNewAccount creates a new account and invalidates the user's account cache.
func (s *AccountService) CreateNewAccount(userID uuid.UUID, req model.CreateAccountRequest) (*model.Account, error) {
	account := &model.Account{
		UserID:        userID,
		Name:          req.Name,
		Type:          req.Type,
		Balance:       req.Balance,
		Currency:      req.Currency,
		AccountNumber: req.AccountNumber,
	}

	if err := s.repo.CreateAccount(account); err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return account, nil
}

// GetAccount returns a single account owned by the given user.
func (s *AccountService) GetAccount(userID, accountID uuid.UUID) (*model.Account, error) {
	account, err := s.repo.GetAccountByID(accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// ListAccountsForUser lists accounts for a specific user, utilizing a cache-aside strategy.
func (s *AccountService) ListAccountsForUser(userID uuid.UUID) ([]*model.Account, error) {
	cacheKey := accountsCacheKey(userID)
	ctx := context.Background()

	// 1. Try to get data from Redis.
	cachedAccounts, err := s.cacheClient.Get(ctx, cacheKey).Result()
	if err == nil {
		var accounts []*model.Account
		if err := json.Unmarshal([]byte(cachedAccounts), &accounts); err == nil {
			return accounts, nil
		}
	}

	// 2. Cache miss. Fetch from the database.
	accounts, err := s.repo.GetAccountsByUserID(userID)
	if err != nil {
		return nil, err
	}

	// 3. Store the result in Redis for future requests.
	data, err := json.Marshal(accounts)
	if err == nil {
		s.cacheClient.Set(ctx, cacheKey, data, 10*time.Minute)
	}

	return accounts, nil
}

// UpdateAccount applies a partial field edit. Balance is not part of the
// update surface; it only moves through AdjustBalance.
func (s *AccountService) UpdateAccount(userID, accountID uuid.UUID, req model.UpdateAccountRequest) (*model.Account, error) {
	account, err := s.repo.UpdateAccount(accountID, userID, req)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	s.invalidateCache(userID)
	return account, nil
}

// DeactivateAccount soft-deletes an account. The record survives because
// transactions reference it.
func (s *AccountService) DeactivateAccount(userID, accountID uuid.UUID) error {
	if err := s.repo.SetAccountActive(accountID, userID, false); err != nil {
		if err == sql.ErrNoRows {
			return ErrAccountNotFound
		}
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// AdjustBalance applies a signed balance change: +amount for a credit,
// -amount for a debit. The adjustment itself is atomic at the storage layer.
func (s *AccountService) AdjustBalance(userID, accountID uuid.UUID, amount decimal.Decimal, txType model.TransactionType) (*model.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// Ownership check before touching the balance.
	if _, err := s.GetAccount(userID, accountID); err != nil {
		return nil, err
	}

	delta := amount
	if txType == model.TransactionTypeDebit {
		delta = amount.Neg()
	}

	account, err := s.repo.AdjustBalance(accountID, delta)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	s.invalidateCache(userID)
	return account, nil
}

// GetTotalBalance sums the balances of the user's active accounts.
func (s *AccountService) GetTotalBalance(userID uuid.UUID) (decimal.Decimal, error) {
	return s.repo.GetTotalBalance(userID)
}

func (s *AccountService) invalidateCache(userID uuid.UUID) {
	s.cacheClient.Del(context.Background(), accountsCacheKey(userID))
}
