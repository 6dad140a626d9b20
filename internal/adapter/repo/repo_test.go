package repo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestTxManager_CommitsAndRollsBack(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)
	carts := NewMySQLCartRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items WHERE user_id = ?`)).
		WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := tm.WithinTx(ctx, func(ctx context.Context) error {
		n, err := carts.DeleteByUser(ctx, "u1")
		assert.EqualValues(t, 2, n)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items WHERE user_id = ?`)).
		WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err = tm.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := carts.DeleteByUser(ctx, "u1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestTxManager_RollsBackOnPanic(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tm.WithinTx(context.Background(), func(context.Context) error { panic("kaboom") })
	})
}

func TestOrderRepo_CreateAndAddItems(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	o := &domain.Order{
		ID: "o1", UserID: "u1", TotalAmount: decimal.RequireFromString("450000"),
		Status: domain.StatusPending, ShippingAddress: "12 Hang Bong, Ha Noi", FullName: "Lan",
		PhoneNumber: "0912345678", PaymentMethod: domain.PaymentCashOnDelivery, CreatedAt: at,
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs("o1", "u1", sqlmock.AnyArg(), "pending", "12 Hang Bong, Ha Noi", "Lan", "0912345678", "cash_on_delivery", at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Create(ctx, o))

	items := []domain.LineItem{
		{ID: "i1", ProductID: "tee", Selection: domain.Selection{Size: "L"}, Quantity: 2, UnitPrice: decimal.RequireFromString("225000")},
		{ID: "i2", ProjectID: "proj", Quantity: 1, UnitPrice: decimal.Zero},
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items (id,order_id,project_id,product_id,size,color,material,quantity,unit_price,position) VALUES (?,?,?,?,?,?,?,?,?,?),(?,?,?,?,?,?,?,?,?,?)`)).
		WithArgs(
			"i1", "o1", nil, "tee", "L", nil, nil, 2, sqlmock.AnyArg(), 0,
			"i2", "o1", "proj", nil, nil, nil, nil, 1, sqlmock.AnyArg(), 1,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, r.AddItems(ctx, "o1", items))

	require.NoError(t, r.AddItems(ctx, "o1", nil), "no statement for an empty batch")
}

func TestOrderRepo_GetByIDLoadsItems(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	at := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = ?`)).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total_amount", "status", "shipping_address", "full_name", "phone_number", "payment_method", "created_at"}).
			AddRow("o1", "u1", "450000.00", "processing", "addr", nil, "0912345678", "bank_transfer", at))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`)).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "project_id", "product_id", "size", "color", "material", "quantity", "unit_price"}).
			AddRow("i1", "o1", nil, "tee", "L", "#000000", nil, 2, "225000.00"))

	o, err := r.GetByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, o.Status)
	assert.Equal(t, domain.PaymentBankTransfer, o.PaymentMethod)
	assert.Empty(t, o.FullName)
	require.Len(t, o.Items, 1)
	assert.Equal(t, domain.Selection{Size: "L", Color: "#000000"}, o.Items[0].Selection)
	assert.True(t, o.TotalAmount.Equal(o.ItemsTotal()))
}

func TestOrderRepo_ListAllBatchesItemQueries(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	prev := itemsBatchSize
	itemsBatchSize = 2
	t.Cleanup(func() { itemsBatchSize = prev })
	at := time.Now().UTC()

	orderCols := []string{"id", "user_id", "total_amount", "status", "shipping_address", "full_name", "phone_number", "payment_method", "created_at"}
	itemCols := []string{"id", "order_id", "project_id", "product_id", "size", "color", "material", "quantity", "unit_price"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders ORDER BY created_at DESC, id DESC`)).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("o3", "u1", "10", "pending", nil, nil, nil, "cash_on_delivery", at).
			AddRow("o2", "u1", "10", "pending", nil, nil, nil, "cash_on_delivery", at).
			AddRow("o1", "u2", "10", "pending", nil, nil, nil, "cash_on_delivery", at))
	// items come back in position order, not id order
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE order_id IN (?,?) ORDER BY order_id, position`)).WithArgs("o3", "o2").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("ffff", "o3", nil, "tee", nil, nil, nil, 1, "5").
			AddRow("0000", "o3", nil, "cap", nil, nil, nil, 1, "5"))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE order_id IN (?) ORDER BY order_id, position`)).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow("i9", "o1", nil, "tee", nil, nil, nil, 1, "10"))

	all, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Len(t, all[0].Items, 2)
	assert.Equal(t, "ffff", all[0].Items[0].ID)
	assert.Equal(t, "0000", all[0].Items[1].ID)
	assert.Empty(t, all[1].Items)
	assert.Len(t, all[2].Items, 1)
}

func TestOrderRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = ?`)).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewMySQLOrderRepo(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, usecase.ErrRecordNotFound)
}

func TestOrderRepo_UpdateStatusIf(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	ctx := context.Background()
	stmt := regexp.QuoteMeta(`WHERE id = ? AND status = ?`)

	mock.ExpectExec(stmt).WithArgs("processing", "o1", "pending").WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := r.UpdateStatusIf(ctx, "o1", domain.StatusPending, domain.StatusProcessing)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(stmt).WithArgs("processing", "o1", "pending").WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = r.UpdateStatusIf(ctx, "o1", domain.StatusPending, domain.StatusProcessing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartRepo_ListByUserWithAdjustments(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLCartRepo(db)
	at := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE ci.user_id = ?`)).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "product_id", "project_id", "size", "color", "material", "quantity", "created_at",
			"p.id", "p.name", "p.price", "p.images", "c.name",
		}).
			AddRow("c1", "u1", "tee", nil, "L", nil, "Linen", 2, at, "tee", "Tee", "100000", []byte(`["a.png"]`), "Shirts").
			AddRow("c2", "u1", "gone", nil, nil, nil, nil, 1, at, nil, nil, nil, nil, nil).
			AddRow("c3", "u1", nil, "proj", nil, nil, nil, 1, at, nil, nil, nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM product_sizes ps`)).WithArgs("tee", "tee", "tee").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "dimension", "value", "delta"}).
			AddRow("tee", "size", "L", "20000").
			AddRow("tee", "material", "Linen", "15000"))

	lines, err := r.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, lines, 3)

	tee := lines[0]
	require.NotNil(t, tee.Product)
	assert.Equal(t, []string{"a.png"}, tee.Product.Images)
	assert.Equal(t, "Shirts", tee.Product.Category)
	assert.Len(t, tee.Product.Adjustments, 2)
	assert.True(t, tee.UnitPrice().Equal(decimal.RequireFromString("135000")), "got %s", tee.UnitPrice())

	assert.Nil(t, lines[1].Product, "dangling product reference")
	assert.Equal(t, "proj", lines[2].ProjectID)
}

func TestCartRepo_FindVariantMiss(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`size <=> ? AND color <=> ? AND material <=> ?`)).
		WithArgs("u1", "tee", "M", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	l, err := NewMySQLCartRepo(db).FindVariant(context.Background(), "u1", "tee", domain.Selection{Size: "M"})
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := NewMySQLUserRepo(db).Create(context.Background(), &domain.User{ID: "u1", Email: "a@b.co", Role: domain.RoleUser})
	assert.ErrorIs(t, err, usecase.ErrRecordExists)
}

func TestOutboxRepo_FetchAndMark(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOutboxRepo(db)
	ctx := context.Background()
	at := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM outbox`)).WithArgs("PENDING", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "channel", "payload", "retry_count", "created_at"}).
			AddRow(int64(7), "order.placed", []byte(`{"order_id":"o1"}`), 0, at))
	msgs, err := r.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(7), msgs[0].ID)
	assert.JSONEq(t, `{"order_id":"o1"}`, string(msgs[0].Payload))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE outbox SET status = ?`)).WithArgs("SENT", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.MarkSent(ctx, 7))

	next := at.Add(time.Minute)
	mock.ExpectExec(regexp.QuoteMeta(`retry_count = retry_count + 1`)).WithArgs(next, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.MarkRetry(ctx, 7, next))
}

func TestSchema_AdjustmentsUniquePerProductValue(t *testing.T) {
	for table, col := range map[string]string{
		"product_sizes":     "size_id",
		"product_colors":    "color_id",
		"product_materials": "material_id",
	} {
		block := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\n\);`).FindStringSubmatch(schemaSQL)
		require.Len(t, block, 2, table)
		assert.Regexp(t, `UNIQUE KEY \w+ \(product_id, `+col+`\)`, block[1], table)
	}
	assert.Regexp(t, `KEY idx_items_order \(order_id, position\)`, schemaSQL)
}
