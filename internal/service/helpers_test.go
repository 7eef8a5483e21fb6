package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/database"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/pkg/mailer"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func grantRole(t *testing.T, db *gorm.DB, userID string, role models.Role) {
	t.Helper()
	require.NoError(t, db.Create(&models.UserRole{UserID: userID, Role: role}).Error)
}

// fakeMailer records messages and fails for configured addresses.
type fakeMailer struct {
	mu         sync.Mutex
	configured bool
	failFor    map[string]bool
	hangFor    map[string]bool
	sent       []mailer.Message
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.hangFor[msg.To.Address] {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To.Address] {
		return errors.New("provider rejected recipient")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func ptrInt64(v int64) *int64 { return &v }

func ptrInt(v int) *int { return &v }

func ptrString(v string) *string { return &v }
