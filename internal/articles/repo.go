package articles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/pagination"
)

// ArticlePage is one page of a seller's catalog plus the cursor for the next.
type ArticlePage struct {
	Articles   []models.Article
	NextCursor string
}

// Repository handles catalog persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, article *models.Article) error
	Save(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, sellerID, articleID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool) ([]models.Article, error)
	ListSellerPage(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool, page pagination.Params) (*ArticlePage, error)
	ListByIDs(ctx context.Context, articleIDs []uuid.UUID) ([]models.Article, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *repository) Save(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Save(article).Error
}

func (r *repository) Delete(ctx context.Context, sellerID, articleID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("seller_id = ? AND id = ?", sellerID, articleID).
		Delete(&models.Article{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).
		Where("id = ?", articleID).
		First(&article).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &article, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool) ([]models.Article, error) {
	query := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("name ASC")
	if onlyAvailable {
		query = query.Where("available = ?", true)
	}
	var list []models.Article
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListSellerPage(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool, page pagination.Params) (*ArticlePage, error) {
	pageSize := pagination.NormalizeLimit(page.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(page.Limit)

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID)
	if onlyAvailable {
		query = query.Where("available = ?", true)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Article
	if err := query.
		Order("created_at DESC").Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return &ArticlePage{Articles: rows, NextCursor: nextCursor}, nil
}

func (r *repository) ListByIDs(ctx context.Context, articleIDs []uuid.UUID) ([]models.Article, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	var list []models.Article
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", articleIDs).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
