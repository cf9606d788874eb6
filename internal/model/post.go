package model

import "time"

type Post struct {
	ID        uint64     `gorm:"primaryKey;index:idx_created_id,priority:2,sort:desc" json:"id"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Author    string     `gorm:"size:32;not null;index" json:"author"`
	Views     int64      `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time  `gorm:"autoCreateTime:false;index:idx_created_id,priority:1,sort:desc" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	Comments    []Comment    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

type Comment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PostID    uint64    `gorm:"not null;index" json:"post_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Author    string    `gorm:"size:32;not null" json:"author"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"created_at"`
}

// Attachment SavedName 为磁盘上的文件名，OriginalName 仅在下载时使用
type Attachment struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	PostID       uint64    `gorm:"not null;index" json:"post_id"`
	SavedName    string    `gorm:"uniqueIndex;size:128;not null" json:"saved_name"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`
}
