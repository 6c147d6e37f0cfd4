package model

import "gorm.io/plugin/soft_delete"

type RenderEntry struct {
	ID int64 `json:"id" gorm:"primarykey"`
	// blake3 digest of the document text
	DocumentHash string `json:"document_hash" gorm:"index:idx_document_hash"`
	// file the document was read from, "-" for stdin, "http" for the service
	Source string `json:"source"`
	// where the SVG went
	Output     string `json:"output"`
	Commands   int    `json:"commands"`
	Instances  int    `json:"instances"`
	Scripts    int    `json:"scripts"`
	OutputSize int    `json:"output_size"`
	// render time in milliseconds
	Duration        int64 `json:"duration"`
	CreatedAt       int64 `json:"created_at"`
	ExpiredDuration int64 `json:"expired_duration"`
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `json:"-" gorm:"softDelete:flag;default:0"`
}

func (RenderEntry) TableName() string {
	return "render_entry"
}
