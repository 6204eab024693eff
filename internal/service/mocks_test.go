// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"bankcards/internal/domain"
	"bankcards/internal/repository"
	"bankcards/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

func (m *MockDBExecutor) Rebind(query string) string {
	return query
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.User, int64, error) {
	args := m.Called(ctx, q, limit, offset)
	return args.Get(0).([]domain.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, q repository.DBExecutor, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

// MockCardRepository is a mock implementation of repository.CardRepository.
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) CreateCard(ctx context.Context, q repository.DBExecutor, card *domain.Card) error {
	args := m.Called(ctx, q, card)
	return args.Error(0)
}

func (m *MockCardRepository) GetCardByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Card, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardRepository) LockCard(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Card, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardRepository) ListCards(ctx context.Context, q repository.DBExecutor, filter domain.CardFilter, now time.Time, limit, offset int) ([]domain.Card, int64, error) {
	args := m.Called(ctx, q, filter, now, limit, offset)
	return args.Get(0).([]domain.Card), args.Get(1).(int64), args.Error(2)
}

func (m *MockCardRepository) UpdateCardStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.CardStatus) error {
	args := m.Called(ctx, q, id, status)
	return args.Error(0)
}

func (m *MockCardRepository) UpdateCardBalance(ctx context.Context, q repository.DBExecutor, id int64, balance decimal.Decimal) error {
	args := m.Called(ctx, q, id, balance)
	return args.Error(0)
}

func (m *MockCardRepository) DeleteCard(ctx context.Context, q repository.DBExecutor, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

func (m *MockCardRepository) ListUnexpiredCards(ctx context.Context, q repository.DBExecutor, afterID int64, limit int) ([]domain.Card, error) {
	args := m.Called(ctx, q, afterID, limit)
	return args.Get(0).([]domain.Card), args.Error(1)
}

func (m *MockCardRepository) MarkCardExpired(ctx context.Context, q repository.DBExecutor, id int64, now time.Time) (bool, error) {
	args := m.Called(ctx, q, id, now)
	return args.Bool(0), args.Error(1)
}

// MockTransferRepository is a mock implementation of repository.TransferRepository.
type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) CreateTransfer(ctx context.Context, q repository.DBExecutor, transfer *domain.Transfer) error {
	args := m.Called(ctx, q, transfer)
	return args.Error(0)
}

func (m *MockTransferRepository) GetTransfersByCardID(ctx context.Context, q repository.DBExecutor, cardID int64, limit, offset int) ([]domain.Transfer, int64, error) {
	args := m.Called(ctx, q, cardID, limit, offset)
	return args.Get(0).([]domain.Transfer), args.Get(1).(int64), args.Error(2)
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also implicitly implements repository.DBExecutor for testing purposes
// by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor // Embed MockDBExecutor to satisfy repository.DBExecutor interface
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockTokenIssuer is a mock implementation of TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(user *domain.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

// prefixCipher is a reversible stand-in for the AES cipher.
type prefixCipher struct{}

func (prefixCipher) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (prefixCipher) Decrypt(ciphertext string) (string, error) {
	pan, ok := strings.CutPrefix(ciphertext, "enc:")
	if !ok {
		return "", util.ErrCipher
	}
	return pan, nil
}

// decimalEq matches a decimal argument by value rather than by representation.
func decimalEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}
