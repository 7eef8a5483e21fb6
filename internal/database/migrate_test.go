package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/models"
)

func TestMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	for _, model := range []interface{}{&models.Course{}, &models.UserRole{}, &models.Notification{}, &models.InstructorFollow{}} {
		require.True(t, db.Migrator().HasTable(model))
	}
	require.True(t, db.Migrator().HasIndex(&models.UserRole{}, "idx_user_roles_user_role"))
}

func TestConnectRejectsEmptyURLs(t *testing.T) {
	_, err := ConnectPostgres("", Pool{})
	require.Error(t, err)
	_, err = ConnectRedis("", "test")
	require.Error(t, err)
	_, err = ConnectNATS("", "test")
	require.Error(t, err)
}

func TestPoolDefaults(t *testing.T) {
	pool := Pool{}.withDefaults()
	require.Equal(t, 20, pool.MaxOpenConns)
	require.Equal(t, 5, pool.MaxIdleConns)
	require.Equal(t, 30*time.Minute, pool.ConnMaxLifetime)

	pool = Pool{MaxOpenConns: 3, MaxIdleConns: 10}.withDefaults()
	require.Equal(t, 3, pool.MaxIdleConns)
}
