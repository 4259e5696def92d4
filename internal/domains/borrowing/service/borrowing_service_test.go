package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookModel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/borrowing/model"
	userModel "library-backend/internal/domains/user/model"
	"library-backend/pkg/database"
)

// fakeStore is an in-memory stand-in for Postgres. WithinTx holds one
// mutex for the duration of a transaction, which mirrors the row-lock
// serialization the real repositories get from the database: the
// concurrency scenarios below exercise the controller against it.
type fakeStore struct {
	mu         sync.Mutex
	books      map[uuid.UUID]*bookModel.Book
	users      map[uuid.UUID]*userModel.User
	borrowings map[uuid.UUID]*model.Borrowing
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:      make(map[uuid.UUID]*bookModel.Book),
		users:      make(map[uuid.UUID]*userModel.User),
		borrowings: make(map[uuid.UUID]*model.Borrowing),
	}
}

func (f *fakeStore) WithinTx(ctx context.Context, fn database.TxFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(nil)
}

// --- book repository (tx methods assume the store mutex is held) ---

func (f *fakeStore) Create(ctx context.Context, book *bookModel.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *book
	f.books[book.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*bookModel.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	book, ok := f.books[id]
	if !ok {
		return nil, bookModel.NewBookNotFoundError(id)
	}
	copied := *book
	return &copied, nil
}

func (f *fakeStore) List(ctx context.Context, filter bookModel.ListBooksRequest) ([]bookModel.Book, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) Update(ctx context.Context, book *bookModel.Book) error { return nil }

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeStore) ReserveCopy(ctx context.Context, tx pgx.Tx, bookID uuid.UUID) (*bookModel.Book, error) {
	book, ok := f.books[bookID]
	if !ok {
		return nil, bookModel.NewBookNotFoundError(bookID)
	}
	if book.Inventory <= 0 {
		return nil, bookModel.NewOutOfStockError(bookID)
	}
	book.Inventory--
	copied := *book
	return &copied, nil
}

func (f *fakeStore) ReleaseCopy(ctx context.Context, tx pgx.Tx, bookID uuid.UUID) error {
	book, ok := f.books[bookID]
	if !ok {
		return bookModel.NewBookNotFoundError(bookID)
	}
	book.Inventory++
	return nil
}

// --- user repository ---

func (f *fakeStore) GetUserByID(ctx context.Context, id uuid.UUID) (*userModel.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, userModel.NewUserNotFoundError(id)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*userModel.User, error) {
	return nil, userModel.ErrUserNotFound
}

func (f *fakeStore) Lock(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return userModel.NewUserNotFoundError(id)
	}
	return nil
}

// --- borrowing repository ---

func (f *fakeStore) CreateTx(ctx context.Context, tx pgx.Tx, b *model.Borrowing) error {
	if b.ExpectedReturnDate.Before(b.BorrowDate) {
		return model.ErrInvalidDateRange
	}
	b.IsActive = true
	copied := *b
	f.borrowings[b.ID] = &copied
	return nil
}

func (f *fakeStore) GetBorrowingByID(ctx context.Context, id uuid.UUID) (*model.BorrowingWithBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.borrowings[id]
	if !ok {
		return nil, model.NewBorrowingNotFoundError(id)
	}
	row := model.BorrowingWithBook{Borrowing: *b}
	if book, ok := f.books[b.BookID]; ok {
		row.BookTitle = book.Title
	}
	return &row, nil
}

func (f *fakeStore) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Borrowing, error) {
	b, ok := f.borrowings[id]
	if !ok {
		return nil, model.NewBorrowingNotFoundError(id)
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) CountActiveTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	count := 0
	for _, b := range f.borrowings {
		if b.UserID == userID && b.IsActive {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkReturnedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, returnedAt time.Time) (*model.Borrowing, error) {
	b, ok := f.borrowings[id]
	if !ok {
		return nil, model.NewBorrowingNotFoundError(id)
	}
	if b.ActualReturnDate != nil {
		return nil, model.ErrAlreadyReturned
	}
	date := returnedAt
	b.ActualReturnDate = &date
	b.IsActive = false
	copied := *b
	return &copied, nil
}

func (f *fakeStore) ListBorrowings(ctx context.Context, filter model.ListBorrowingsRequest) ([]model.BorrowingWithBook, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]model.BorrowingWithBook, 0)
	for _, b := range f.borrowings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.IsActive != nil && b.IsActive != *filter.IsActive {
			continue
		}
		rows = append(rows, model.BorrowingWithBook{Borrowing: *b})
	}
	return rows, len(rows), nil
}

func (f *fakeStore) ListOverdue(ctx context.Context, asOf time.Time) ([]model.OverdueLoan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loans := make([]model.OverdueLoan, 0)
	for _, b := range f.borrowings {
		if b.IsActive && b.ExpectedReturnDate.Before(asOf) {
			loans = append(loans, model.OverdueLoan{Borrowing: *b})
		}
	}
	return loans, nil
}

// adapters split the single fakeStore into the three repository
// interfaces the service expects, since GetByID and List collide.

type fakeUserRepo struct{ *fakeStore }

func (f fakeUserRepo) Create(ctx context.Context, u *userModel.User) error { return nil }
func (f fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userModel.User, error) {
	return f.GetUserByID(ctx, id)
}

type fakeBorrowingRepo struct{ *fakeStore }

func (f fakeBorrowingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.BorrowingWithBook, error) {
	return f.GetBorrowingByID(ctx, id)
}
func (f fakeBorrowingRepo) List(ctx context.Context, filter model.ListBorrowingsRequest) ([]model.BorrowingWithBook, int, error) {
	return f.ListBorrowings(ctx, filter)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (n *fakeNotifier) Notify(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, text)
	return nil
}

// --- test fixture ---

var testToday = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store    *fakeStore
	notifier *fakeNotifier
	svc      *BorrowingService
	userID   uuid.UUID
	bookID   uuid.UUID
}

func newFixture(t *testing.T, inventory int) *fixture {
	t.Helper()

	store := newFakeStore()
	notif := &fakeNotifier{}

	userID := uuid.New()
	store.users[userID] = &userModel.User{ID: userID, Email: "reader@example.com"}

	bookID := uuid.New()
	store.books[bookID] = &bookModel.Book{
		ID:        bookID,
		Title:     "The Go Programming Language",
		Author:    "Donovan & Kernighan",
		Cover:     bookModel.CoverHard,
		Inventory: inventory,
		DailyFee:  decimal.RequireFromString("1.50"),
	}

	svc := &BorrowingService{
		tx:         store,
		borrowings: fakeBorrowingRepo{store},
		books:      store,
		users:      fakeUserRepo{store},
		notifier:   notif,
		now:        func() time.Time { return testToday.Add(13 * time.Hour) },
	}

	return &fixture{store: store, notifier: notif, svc: svc, userID: userID, bookID: bookID}
}

func (f *fixture) addUser(email string) uuid.UUID {
	id := uuid.New()
	f.store.users[id] = &userModel.User{ID: id, Email: email}
	return id
}

func (f *fixture) addBook(title string, inventory int) uuid.UUID {
	id := uuid.New()
	f.store.books[id] = &bookModel.Book{
		ID:        id,
		Title:     title,
		Cover:     bookModel.CoverSoft,
		Inventory: inventory,
		DailyFee:  decimal.RequireFromString("0.75"),
	}
	return id
}

func createReq(bookID uuid.UUID, date time.Time) model.CreateBorrowingRequest {
	return model.CreateBorrowingRequest{
		BookID:             bookID,
		ExpectedReturnDate: date.Format(time.DateOnly),
	}
}

func TestCreateBorrowing_Success(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, 7)))
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.True(t, resp.IsActive)
	assert.Nil(t, resp.ActualReturnDate)
	assert.Equal(t, testToday, resp.BorrowDate)
	assert.Equal(t, "The Go Programming Language", resp.BookTitle)
	assert.Equal(t, 2, f.store.books[f.bookID].Inventory)

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "reader@example.com")
	assert.Contains(t, f.notifier.sent[0], "The Go Programming Language")
	assert.Contains(t, f.notifier.sent[0], "2024-06-17")
}

func TestCreateBorrowing_SameDayReturnAllowed(t *testing.T) {
	f := newFixture(t, 1)

	// The rule is >=, not >: borrowing and returning on the same day
	// is valid.
	resp, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday))
	require.NoError(t, err)
	assert.Equal(t, resp.BorrowDate, resp.ExpectedReturnDate)
}

func TestCreateBorrowing_DateInPast(t *testing.T) {
	f := newFixture(t, 1)

	resp, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, -1)))
	require.ErrorIs(t, err, model.ErrInvalidDateRange)
	assert.Nil(t, resp)
	assert.Empty(t, f.store.borrowings)
	assert.Equal(t, 1, f.store.books[f.bookID].Inventory)
}

func TestCreateBorrowing_OutOfStock(t *testing.T) {
	f := newFixture(t, 0)

	resp, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, 7)))
	require.True(t, bookModel.IsOutOfStockError(err))
	assert.Nil(t, resp)
	assert.Empty(t, f.store.borrowings, "no borrowing record may exist after a failed reservation")
	assert.Equal(t, 0, f.store.books[f.bookID].Inventory)
}

func TestCreateBorrowing_ActiveBorrowingExists(t *testing.T) {
	f := newFixture(t, 2)
	otherBook := f.addBook("Clean Architecture", 5)

	first, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, 7)))
	require.NoError(t, err)

	// A second loan on any book is rejected while the first is active.
	_, err = f.svc.CreateBorrowing(context.Background(), f.userID, createReq(otherBook, testToday.AddDate(0, 0, 7)))
	require.ErrorIs(t, err, model.ErrActiveBorrowingExists)
	assert.Equal(t, 5, f.store.books[otherBook].Inventory)

	_, err = f.svc.ReturnBorrowing(context.Background(), first.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateBorrowing(context.Background(), f.userID, createReq(otherBook, testToday.AddDate(0, 0, 7)))
	require.NoError(t, err)
}

func TestCreateBorrowing_NotificationFailure(t *testing.T) {
	f := newFixture(t, 1)
	deliveryErr := errors.New("notification delivery failed")
	f.notifier.fail = deliveryErr

	resp, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, 7)))

	// The loan is committed despite the error surfacing.
	require.ErrorIs(t, err, deliveryErr)
	require.NotNil(t, resp, "the committed loan must travel with the error")
	assert.Len(t, f.store.borrowings, 1)
	assert.Equal(t, 0, f.store.books[f.bookID].Inventory)
}

func TestReturnBorrowing_RestoresInventory(t *testing.T) {
	f := newFixture(t, 3)

	created, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, 7)))
	require.NoError(t, err)
	require.Equal(t, 2, f.store.books[f.bookID].Inventory)

	returned, err := f.svc.ReturnBorrowing(context.Background(), created.ID)
	require.NoError(t, err)

	assert.False(t, returned.IsActive)
	require.NotNil(t, returned.ActualReturnDate)
	assert.Equal(t, testToday, *returned.ActualReturnDate)
	assert.Equal(t, 3, f.store.books[f.bookID].Inventory, "round trip must restore inventory exactly")
}

func TestReturnBorrowing_Idempotence(t *testing.T) {
	f := newFixture(t, 1)

	created, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, 7)))
	require.NoError(t, err)

	_, err = f.svc.ReturnBorrowing(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = f.svc.ReturnBorrowing(context.Background(), created.ID)
	require.ErrorIs(t, err, model.ErrAlreadyReturned)
	assert.Equal(t, 1, f.store.books[f.bookID].Inventory, "double return must not double-increment")
}

func TestReturnBorrowing_NotFound(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.ReturnBorrowing(context.Background(), uuid.New())
	require.True(t, model.IsNotFoundError(err))
}

func TestSingleCopyContention(t *testing.T) {
	f := newFixture(t, 1)
	userB := f.addUser("second@example.com")
	due := testToday.AddDate(0, 0, 7)

	// A takes the only copy.
	loanA, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, due))
	require.NoError(t, err)
	require.Equal(t, 0, f.store.books[f.bookID].Inventory)

	// B finds it out of stock.
	_, err = f.svc.CreateBorrowing(context.Background(), userB, createReq(f.bookID, due))
	require.True(t, bookModel.IsOutOfStockError(err))

	// A returns, B succeeds.
	_, err = f.svc.ReturnBorrowing(context.Background(), loanA.ID)
	require.NoError(t, err)
	require.Equal(t, 1, f.store.books[f.bookID].Inventory)

	_, err = f.svc.CreateBorrowing(context.Background(), userB, createReq(f.bookID, due))
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.books[f.bookID].Inventory)
}

func TestConcurrentCreate_SameBook(t *testing.T) {
	f := newFixture(t, 1)
	userB := f.addUser("second@example.com")
	due := testToday.AddDate(0, 0, 7)

	results := make(chan error, 2)
	for _, uid := range []uuid.UUID{f.userID, userB} {
		go func(uid uuid.UUID) {
			_, err := f.svc.CreateBorrowing(context.Background(), uid, createReq(f.bookID, due))
			results <- err
		}(uid)
	}

	var succeeded, outOfStock int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case bookModel.IsOutOfStockError(err):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one borrower may win the last copy")
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, 0, f.store.books[f.bookID].Inventory)
}

func TestConcurrentCreate_SameUser(t *testing.T) {
	f := newFixture(t, 5)
	otherBook := f.addBook("Refactoring", 5)
	due := testToday.AddDate(0, 0, 7)

	results := make(chan error, 2)
	for _, bid := range []uuid.UUID{f.bookID, otherBook} {
		go func(bid uuid.UUID) {
			_, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(bid, due))
			results <- err
		}(bid)
	}

	var succeeded, rejected int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, model.ErrActiveBorrowingExists):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "only one active loan per user may commit")
	assert.Equal(t, 1, rejected)

	active := 0
	for _, b := range f.store.borrowings {
		if b.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestInventoryNeverNegative(t *testing.T) {
	const copies = 3
	const borrowers = 10

	f := newFixture(t, copies)
	due := testToday.AddDate(0, 0, 7)

	var wg sync.WaitGroup
	results := make(chan error, borrowers)
	for i := 0; i < borrowers; i++ {
		uid := f.addUser(fmt.Sprintf("reader%d@example.com", i))
		wg.Add(1)
		go func(uid uuid.UUID) {
			defer wg.Done()
			_, err := f.svc.CreateBorrowing(context.Background(), uid, createReq(f.bookID, due))
			results <- err
		}(uid)
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.True(t, bookModel.IsOutOfStockError(err), "only OutOfStock is acceptable: %v", err)
		}
	}

	assert.Equal(t, copies, succeeded)
	assert.Equal(t, 0, f.store.books[f.bookID].Inventory)
	assert.GreaterOrEqual(t, f.store.books[f.bookID].Inventory, 0)
}

// conflictTx injects serialization failures before delegating to the
// wrapped runner.
type conflictTx struct {
	inner     database.TxRunner
	failures  int
	attempted int
}

func (c *conflictTx) WithinTx(ctx context.Context, fn database.TxFunc) error {
	c.attempted++
	if c.attempted <= c.failures {
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	}
	return c.inner.WithinTx(ctx, fn)
}

func TestCreateBorrowing_RetriesOnConflict(t *testing.T) {
	f := newFixture(t, 1)
	conflicting := &conflictTx{inner: f.store, failures: 2}
	f.svc.tx = conflicting

	resp, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, 7)))
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 3, conflicting.attempted)
}

func TestCreateBorrowing_ConflictRetriesExhausted(t *testing.T) {
	f := newFixture(t, 1)
	conflicting := &conflictTx{inner: f.store, failures: 100}
	f.svc.tx = conflicting

	_, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, testToday.AddDate(0, 0, 7)))
	require.ErrorIs(t, err, model.ErrTransactionConflict)
	assert.Equal(t, maxTxAttempts, conflicting.attempted)
	assert.Equal(t, 1, f.store.books[f.bookID].Inventory, "no reservation may leak from aborted transactions")
}

func TestListBorrowings_Filters(t *testing.T) {
	f := newFixture(t, 5)
	userB := f.addUser("second@example.com")
	due := testToday.AddDate(0, 0, 7)

	loanA, err := f.svc.CreateBorrowing(context.Background(), f.userID, createReq(f.bookID, due))
	require.NoError(t, err)
	_, err = f.svc.CreateBorrowing(context.Background(), userB, createReq(f.bookID, due))
	require.NoError(t, err)
	_, err = f.svc.ReturnBorrowing(context.Background(), loanA.ID)
	require.NoError(t, err)

	active := true
	result, err := f.svc.ListBorrowings(context.Background(), model.ListBorrowingsRequest{IsActive: &active})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, userB, result.Items[0].UserID)

	result, err = f.svc.ListBorrowings(context.Background(), model.ListBorrowingsRequest{UserID: &f.userID})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.False(t, result.Items[0].IsActive)
}
