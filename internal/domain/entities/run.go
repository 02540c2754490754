package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OptimizeRun struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status      string    `gorm:"type:varchar(20)"`
	Formats     string    `gorm:"type:varchar(100)"`
	ItemCount   int
	FailedCount int
	Error       string      `gorm:"type:text"`
	Outputs     []RunOutput `gorm:"foreignKey:RunID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RunOutput struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunID      uuid.UUID `gorm:"type:uuid;index"`
	Position   int
	PairedItem int
	Channel    int
	Format     string `gorm:"type:varchar(20)"`
	FileName   string `gorm:"type:varchar(255)"`
	MimeType   string `gorm:"type:varchar(50)"`
	StorageKey string `gorm:"type:varchar(500)"`
	Width      int
	Height     int
	Size       int64
	Error      string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (r *OptimizeRun) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

func (o *RunOutput) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}
