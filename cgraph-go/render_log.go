package cgraph_go

import (
	"encoding/hex"
	"time"

	"cgraph-go/model"

	"github.com/glebarez/sqlite"
	"github.com/zeebo/blake3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const kDefaultRenderLogExpiry = 7 * 24 * time.Hour

// / RenderLog stores one row per rendered document in a sqlite database.
type RenderLog struct {
	db_ *gorm.DB

	/// How long a row is kept before CleanExpired removes it.
	expiry_ time.Duration
}

func OpenRenderLog(path string) (*RenderLog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.RenderEntry{}); err != nil {
		return nil, err
	}
	ret := RenderLog{}
	ret.db_ = db
	ret.expiry_ = kDefaultRenderLogExpiry
	return &ret, nil
}

func (this *RenderLog) SetExpiry(expiry time.Duration) { this.expiry_ = expiry }

func (this *RenderLog) Close() error {
	sqlDB, err := this.db_.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// / Record stamps entry with the creation time and expiry and stores it.
func (this *RenderLog) Record(entry *model.RenderEntry) error {
	entry.CreatedAt = time.Now().Unix()
	if entry.ExpiredDuration == 0 {
		entry.ExpiredDuration = int64(this.expiry_ / time.Second)
	}
	return this.db_.Create(entry).Error
}

// / Recent returns the newest entries first.
func (this *RenderLog) Recent(limit int) ([]*model.RenderEntry, error) {
	var items []*model.RenderEntry
	if err := this.db_.Model(&model.RenderEntry{}).Order("created_at desc, id desc").
		Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (this *RenderLog) FindByHash(hash string, limit int) ([]*model.RenderEntry, error) {
	var items []*model.RenderEntry
	if err := this.db_.Model(&model.RenderEntry{}).Where("`document_hash`=?", hash).
		Order("created_at desc, id desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// / CleanExpired soft deletes at most limit expired entries and returns how
// / many were removed.
func (this *RenderLog) CleanExpired(limit int) (int64, error) {
	var expired []*model.RenderEntry
	now := time.Now().Unix()
	if err := this.db_.Model(&model.RenderEntry{}).Where("`created_at`+`expired_duration` < ?", now).
		Limit(limit).Find(&expired).Error; err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}
	ids := make([]int64, 0, len(expired))
	for _, e := range expired {
		ids = append(ids, e.ID)
	}
	result := this.db_.Delete(&model.RenderEntry{}, ids)
	return result.RowsAffected, result.Error
}

// / DocumentDigest is the hex blake3 hash of a document, the key of its log
// / entries.
func DocumentDigest(document string) string {
	h := blake3.New()
	h.WriteString(document)
	return hex.EncodeToString(h.Sum(nil))
}
