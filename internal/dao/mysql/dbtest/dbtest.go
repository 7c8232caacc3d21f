// Package dbtest 为仓储与服务层测试提供内存数据库
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"kama_chat_hub/internal/dao/mysql"
	"kama_chat_hub/internal/dao/mysql/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open 每个测试独立的内存 SQLite，表结构与线上一致
// 单连接保证事务与普通查询看到同一个内存库
func Open(t testing.TB) (*repository.Repositories, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", seq.Add(1))

	db, err := mysql.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return repository.NewRepositories(db), db
}
