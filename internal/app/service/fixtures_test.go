package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/db"
	"github.com/thriftshop/storefront/pkg/mailer"
	"github.com/thriftshop/storefront/pkg/util"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedReferenceData(testDB))
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: "Test User", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createProduct(t *testing.T, testDB *gorm.DB, title string, price float64, quantity int) *model.Product {
	t.Helper()
	p := &model.Product{
		Title:       title,
		Slug:        util.Slugify(title),
		Price:       price,
		Quantity:    quantity,
		IsAvailable: quantity > 0,
		Size:        "M",
		Condition:   model.ConditionExcellent,
	}
	require.NoError(t, testDB.Create(p).Error)
	return p
}

type published struct {
	Type      string
	ProductID uint
	Quantity  int
	UserIDs   []uint
}

// recordingPublisher captures events instead of pushing them to sockets.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishCartUpdated(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Type: "cart.updated", UserIDs: []uint{userID}})
}

func (p *recordingPublisher) PublishStockChanged(productID uint, remaining int, userIDs []uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Type: "stock.changed", ProductID: productID, Quantity: remaining, UserIDs: userIDs})
}

func (p *recordingPublisher) ofType(kind string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}
