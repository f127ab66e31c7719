package dao

import "github.com/ego-component/egorm"

// InitTables 自动建表
func InitTables(db *egorm.Component) error {
	return db.AutoMigrate(
		&Member{},
		&DeliveryUnit{},
		&Content{},
	)
}
