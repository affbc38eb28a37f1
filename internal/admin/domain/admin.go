package domain

// Admin is a staff member who receives reservation push notifications
type Admin struct {
	AdminID uint   `json:"admin_id" gorm:"column:admin_id;primaryKey;autoIncrement:false"`
	Name    string `json:"name" gorm:"not null"`
	Phone   string `json:"phone"`
}

func (Admin) TableName() string {
	return "admins"
}
