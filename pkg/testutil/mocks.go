package testutil

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/pos-allocation/pkg/database"
	"github.com/medflow/pos-allocation/pkg/logger"
)

// MockDB wraps sqlmock for easier testing
type MockDB struct {
	DB   *database.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB creates a new mock database for unit testing.
// Use this when you want to test repository SQL without a real database.
//
// Usage:
//
//	mockDB := testutil.NewMockDB(t)
//	mockDB.ExpectQuery("SELECT").WillReturnRows(...)
//	repo := repository.NewQuantRepository(mockDB.DB)
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	m := &MockDB{
		DB:   database.Wrap(sqlx.NewDb(db, "postgres"), logger.Nop()),
		Mock: mock,
	}

	t.Cleanup(func() {
		m.ExpectationsWereMet(t)
		m.DB.Close()
	})

	return m
}

// ExpectQuery sets up an expected query, matched literally
func (m *MockDB) ExpectQuery(query string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(regexp.QuoteMeta(query))
}

// ExpectExec sets up an expected exec, matched literally
func (m *MockDB) ExpectExec(query string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(regexp.QuoteMeta(query))
}

// ExpectationsWereMet verifies all expectations were met
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	if err := m.Mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// MockRows creates a new mock rows object
func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

// AnyTime is a matcher for any time.Time value
type AnyTime struct{}

// Match satisfies the sqlmock.Argument interface
func (a AnyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

// MockPublisher is a mock event publisher for testing
type MockPublisher struct {
	mu              sync.Mutex
	PublishedEvents []PublishedEvent
	Err             error
}

// PublishedEvent represents an event that was published
type PublishedEvent struct {
	ID      string
	Type    string
	Payload interface{}
}

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

// Publish records an event for later verification
func (m *MockPublisher) Publish(ctx context.Context, eventType string, payload interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}

	id := fmt.Sprintf("evt-%d", len(m.PublishedEvents)+1)
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{
		ID:      id,
		Type:    eventType,
		Payload: payload,
	})
	return id, nil
}

// AssertEventPublished checks if an event of the given type was published
func (m *MockPublisher) AssertEventPublished(t *testing.T, eventType string) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.PublishedEvents {
		if e.Type == eventType {
			return
		}
	}
	t.Errorf("expected event %q to be published, but it wasn't", eventType)
}

// AssertNoEventsPublished checks that no events were published
func (m *MockPublisher) AssertNoEventsPublished(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.PublishedEvents) > 0 {
		t.Errorf("expected no events, but got %d: %+v", len(m.PublishedEvents), m.PublishedEvents)
	}
}
