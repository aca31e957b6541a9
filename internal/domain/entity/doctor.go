package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Doctor represents a doctor profile in the directory.
// ID is assigned by the seeder and never changes.
type Doctor struct {
	ID             int64           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Specialization string          `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Expertise      string          `gorm:"type:text;not null" json:"expertise"`
	Experience     string          `gorm:"type:varchar(100);not null" json:"experience"`
	Education      string          `gorm:"type:text;not null" json:"education"`
	Rating         decimal.Decimal `gorm:"type:numeric(3,2);not null" json:"rating"`
	Image          string          `gorm:"type:text;not null" json:"image"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	Patients       int             `gorm:"not null;default:0" json:"patients"`
	Contact        Contact         `gorm:"type:jsonb" json:"contact"`
	Qualifications Qualifications  `gorm:"type:jsonb" json:"qualifications"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relationships
	Slots []DoctorSlot `gorm:"foreignKey:DoctorID" json:"slots,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

type Contact struct {
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
}

// Value implements driver.Valuer for JSONB storage
func (c Contact) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB storage
func (c *Contact) Scan(value interface{}) error {
	bytes, err := jsonBytes(value)
	if err != nil || bytes == nil {
		*c = Contact{}
		return err
	}
	return json.Unmarshal(bytes, c)
}

type Qualification struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        int    `json:"year"`
}

// Qualifications keeps its order when stored.
type Qualifications []Qualification

func (q Qualifications) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

func (q *Qualifications) Scan(value interface{}) error {
	bytes, err := jsonBytes(value)
	if err != nil || bytes == nil {
		*q = nil
		return err
	}
	return json.Unmarshal(bytes, q)
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
}
