package accountstorage

import (
	"github.com/projector22/lbf-auth/accountstorage/internal/mysql"
)

// MySQLQueryer is the database/sql surface required by NewMySQL.
type MySQLQueryer = mysql.Queryer

// NewMySQL creates an AccountStorage backed by MySQL.
func NewMySQL(conn MySQLQueryer) *AccountStorage {
	return &AccountStorage{
		db: mysql.NewAccountStorageDriver(conn),
	}
}
