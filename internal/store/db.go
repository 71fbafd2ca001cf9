package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a verification id is unknown.
var ErrNotFound = gorm.ErrRecordNotFound

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Verification{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveVerification inserts a new snapshot. Snapshots are never updated.
func (d *Database) SaveVerification(v *Verification) error {
	if v == nil {
		return errors.New("verification is nil")
	}
	if strings.TrimSpace(v.ID) == "" {
		return errors.New("verification id is required")
	}
	v.CompanyName = strings.TrimSpace(v.CompanyName)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(v).Error
}

// GetVerification loads one snapshot by id.
func (d *Database) GetVerification(id string) (*Verification, error) {
	var row Verification
	if err := d.gorm.Where("id = ?", strings.TrimSpace(id)).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CountVerifications returns the number of stored snapshots.
func (d *Database) CountVerifications() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Verification{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// VerificationQuery encapsulates filters and pagination for listing snapshots.
type VerificationQuery struct {
	Query    string
	Verdict  string
	MinScore float64
	Sort     string
	Offset   int
	Limit    int
}

// ListVerifications returns paginated snapshots applying optional filters.
func (d *Database) ListVerifications(opts VerificationQuery) ([]Verification, int64, error) {
	var total int64
	base := d.gorm.Model(&Verification{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(q))
		base = base.Where("LOWER(company_name) LIKE ? OR company_normalized LIKE ?", like, like)
	}
	if verdict := strings.TrimSpace(opts.Verdict); verdict != "" {
		base = base.Where("verdict = ?", strings.ToUpper(verdict))
	}
	if opts.MinScore > 0 {
		base = base.Where("composite_score >= ?", opts.MinScore)
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	queryBuilder := base.Order(orderForSort(opts.Sort)).Offset(opts.Offset)
	if opts.Limit > 0 {
		queryBuilder = queryBuilder.Limit(opts.Limit)
	}

	var rows []Verification
	if err := queryBuilder.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func orderForSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "company_asc":
		return "verifications.company_name ASC"
	case "company_desc":
		return "verifications.company_name DESC"
	case "score_desc":
		return "verifications.composite_score DESC, verifications.created_at DESC"
	case "score_asc":
		return "verifications.composite_score ASC, verifications.created_at DESC"
	case "created_asc":
		return "verifications.created_at ASC"
	default:
		return "verifications.created_at DESC"
	}
}
