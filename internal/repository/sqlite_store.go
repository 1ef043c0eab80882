package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"task_tracker/internal/domain"
	"task_tracker/internal/logger"
	"task_tracker/internal/occurrence"
)

// SQLite rows. recurrence_days is kept as a comma separated list.
type sqliteUser struct {
	ID           int64  `gorm:"primaryKey"`
	TgID         *int64 `gorm:"uniqueIndex"`
	Username     string `gorm:"uniqueIndex;not null"`
	FirstName    string
	Email        *string `gorm:"uniqueIndex"`
	PasswordHash string
	CreatedAt    time.Time
}

func (sqliteUser) TableName() string { return "users" }

type sqliteTask struct {
	ID             int64 `gorm:"primaryKey"`
	UserID         int64 `gorm:"index;not null"`
	Title          string
	Description    string
	Priority       string
	Status         string
	Recurrence     string
	StartDate      time.Time
	DueDate        *time.Time
	EndDate        *time.Time
	RecurrenceDays string
	Category       string
	Completions    []sqliteCompletion `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (sqliteTask) TableName() string { return "tasks" }

type sqliteCompletion struct {
	ID          int64     `gorm:"primaryKey"`
	TaskID      int64     `gorm:"index:idx_task_completions_task_day,priority:1;not null"`
	CompletedAt time.Time `gorm:"not null"`
	CompletedBy int64
	CompletedOn time.Time `gorm:"index:idx_task_completions_task_day,priority:2"`
}

func (sqliteCompletion) TableName() string { return "task_completions" }

type sqliteActivity struct {
	ID             int64  `gorm:"primaryKey"`
	UserID         int64  `gorm:"index:idx_activity_log_user_created,priority:1;not null"`
	TaskID         int64  `gorm:"not null"`
	Action         string `gorm:"not null"`
	OccurrenceDate string
	Details        string
	CreatedAt      time.Time `gorm:"index:idx_activity_log_user_created,priority:2"`
}

func (sqliteActivity) TableName() string { return "activity_log" }

// NewSQLite opens (and migrates) a SQLite database for single-node setups and tests.
func NewSQLite(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "task_tracker.db"
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := gormlogger.New(
		logger.Std(slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db: %w", err)
	}
	// один writer; :memory: база живёт только в своём соединении
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&sqliteUser{}, &sqliteTask{}, &sqliteCompletion{}, &sqliteActivity{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// SQLiteTaskStore is the gorm implementation of the task store.
type SQLiteTaskStore struct {
	db *gorm.DB
}

func NewSQLiteTaskStore(db *gorm.DB) *SQLiteTaskStore {
	return &SQLiteTaskStore{db: db}
}

func (s *SQLiteTaskStore) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	var rows []sqliteTask
	err := s.db.WithContext(ctx).
		Preload("Completions", func(db *gorm.DB) *gorm.DB { return db.Order("completed_at, id") }).
		Where("user_id = ?", userID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Task, 0, len(rows))
	for i := range rows {
		res = append(res, rows[i].toDomain())
	}
	return res, nil
}

func (s *SQLiteTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	var row sqliteTask
	err := s.db.WithContext(ctx).
		Preload("Completions", func(db *gorm.DB) *gorm.DB { return db.Order("completed_at, id") }).
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t := row.toDomain()
	return &t, nil
}

func (s *SQLiteTaskStore) Create(ctx context.Context, t *domain.Task) error {
	row := taskRow(t)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	t.ID, t.CreatedAt, t.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

// Update saves the row and replaces its completions in one transaction.
func (s *SQLiteTaskStore) Update(ctx context.Context, t *domain.Task) error {
	row := taskRow(t)
	row.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&sqliteTask{ID: t.ID}).Select("*").Omit("ID", "CreatedAt", "Completions").Updates(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("task_id = ?", t.ID).Delete(&sqliteCompletion{}).Error; err != nil {
			return err
		}
		if len(row.Completions) > 0 {
			if err := tx.Create(&row.Completions).Error; err != nil {
				return err
			}
		}
		t.UpdatedAt = row.UpdatedAt
		return nil
	})
}

func (s *SQLiteTaskStore) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&sqliteCompletion{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&sqliteTask{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func taskRow(t *domain.Task) sqliteTask {
	row := sqliteTask{
		ID:             t.ID,
		UserID:         t.UserID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		Recurrence:     string(t.Recurrence),
		StartDate:      occurrence.Day(t.StartDate),
		DueDate:        t.DueDate,
		EndDate:        t.EndDate,
		RecurrenceDays: joinWeekdays(t.RecurrenceDays),
		Category:       t.Category,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	for _, rec := range t.CompletionHistory {
		row.Completions = append(row.Completions, sqliteCompletion{
			TaskID:      t.ID,
			CompletedAt: rec.CompletedAt.UTC(),
			CompletedBy: rec.CompletedBy,
			CompletedOn: occurrence.StampDay(rec.CompletedAt),
		})
	}
	return row
}

func (r *sqliteTask) toDomain() domain.Task {
	t := domain.Task{
		ID:             r.ID,
		UserID:         r.UserID,
		Title:          r.Title,
		Description:    r.Description,
		Priority:       domain.Priority(r.Priority),
		Status:         domain.Status(r.Status),
		Recurrence:     domain.Recurrence(r.Recurrence),
		StartDate:      occurrence.Day(r.StartDate),
		RecurrenceDays: splitWeekdays(r.RecurrenceDays),
		Category:       r.Category,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.DueDate != nil {
		d := occurrence.Day(*r.DueDate)
		t.DueDate = &d
	}
	if r.EndDate != nil {
		d := occurrence.Day(*r.EndDate)
		t.EndDate = &d
	}
	for _, c := range r.Completions {
		t.CompletionHistory = append(t.CompletionHistory, domain.CompletionRecord{CompletedAt: c.CompletedAt.UTC(), CompletedBy: c.CompletedBy})
	}
	return t
}

func joinWeekdays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func splitWeekdays(s string) []int {
	days := []int{}
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			days = append(days, n)
		}
	}
	return days
}

// SQLiteUserStore is the gorm implementation of the user store.
type SQLiteUserStore struct {
	db *gorm.DB
}

func NewSQLiteUserStore(db *gorm.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

func (s *SQLiteUserStore) Create(ctx context.Context, u *domain.User) error {
	row := sqliteUser{TgID: u.TgID, Username: u.Username, FirstName: u.FirstName, Email: u.Email, PasswordHash: u.PasswordHash}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isSQLiteUnique(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, u.CreatedAt = row.ID, row.CreatedAt
	return nil
}

func (s *SQLiteUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *SQLiteUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *SQLiteUserStore) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	return s.first(ctx, "tg_id = ?", tgID)
}

func (s *SQLiteUserStore) UpsertTelegram(ctx context.Context, tgID int64, username, firstName string) (*domain.User, error) {
	var row sqliteUser
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("tg_id = ?", tgID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = sqliteUser{TgID: &tgID, Username: username, FirstName: firstName}
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		row.FirstName = firstName
		return tx.Model(&row).Update("first_name", firstName).Error
	})
	if err != nil {
		if isSQLiteUnique(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	u := row.toDomain()
	return &u, nil
}

func (s *SQLiteUserStore) ListLinked(ctx context.Context) ([]domain.User, error) {
	var rows []sqliteUser
	if err := s.db.WithContext(ctx).Where("tg_id IS NOT NULL").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.toDomain())
	}
	return res, nil
}

func (s *SQLiteUserStore) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row sqliteUser
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u := row.toDomain()
	return &u, nil
}

func (r sqliteUser) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		TgID:         r.TgID,
		Username:     r.Username,
		FirstName:    r.FirstName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func isSQLiteUnique(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
