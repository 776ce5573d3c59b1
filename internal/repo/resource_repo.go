package repo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"academic-records-core/internal/core/cache"
	"academic-records-core/internal/core/ready"
	"academic-records-core/internal/domain"
)

type ResourceRepo struct {
	base
}

func NewResourceRepo(db *gorm.DB, gate *ready.Gate, c *cache.Cache, log *zap.Logger, opts Options) *ResourceRepo {
	return &ResourceRepo{base: newBase(db, gate, c, log, opts)}
}

// ResourceFilter narrows FindAll.
type ResourceFilter struct {
	Type       string
	Category   string
	ActiveOnly bool
}

func validateResourceURL(op, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domain.NewValidation(op, fmt.Sprintf("url %q is not a valid absolute URL", raw))
	}
	return nil
}

func (r *ResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	const op = "resource.Create"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(res.Title) == "" || strings.TrimSpace(res.Type) == "" {
		return domain.NewValidation(op, "title and type are required")
	}
	if err := validateResourceURL(op, res.URL); err != nil {
		return err
	}
	if res.CareerSpecific == "" {
		res.CareerSpecific = domain.CareerGeneral
	}
	if err := r.db.WithContext(ctx).Create(res).Error; err != nil {
		return storeErr(op, "insert resource", err)
	}
	return r.invalidateResource(ctx, res)
}

func (r *ResourceRepo) FindByID(ctx context.Context, id uint) (*domain.Resource, error) {
	const op = "resource.FindByID"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	res, err := cache.GetOrLoadJSON(r.c, ctx, idKey(id), r.opts.TTL, func(ctx context.Context) (domain.Resource, error) {
		return r.load(ctx, op, id)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResourceRepo) load(ctx context.Context, op string, id uint) (domain.Resource, error) {
	var res domain.Resource
	err := r.db.WithContext(ctx).First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return res, domain.NewNotFound(op, fmt.Sprintf("resource %d does not exist", id))
	}
	if err != nil {
		return res, storeErr(op, "select resource", err)
	}
	return res, nil
}

func (r *ResourceRepo) FindAll(ctx context.Context, f ResourceFilter, limit, offset int) ([]domain.Resource, error) {
	const op = "resource.FindAll"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("all",
		fmt.Sprintf("type=%s:category=%s:active=%t", f.Type, f.Category, f.ActiveOnly),
		pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.Resource, error) {
		q := r.db.WithContext(ctx).Model(&domain.Resource{})
		if f.Type != "" {
			q = q.Where("type = ?", f.Type)
		}
		if f.Category != "" {
			q = q.Where("category = ?", f.Category)
		}
		if f.ActiveOnly {
			q = q.Where("is_active = ?", true)
		}
		var out []domain.Resource
		if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
			return nil, storeErr(op, "list resources", err)
		}
		return out, nil
	})
}

// FindByCareer returns active resources for the requested career plus
// the general ones, exact-career matches first, then by recency.
func (r *ResourceRepo) FindByCareer(ctx context.Context, career string, limit, offset int) ([]domain.Resource, error) {
	const op = "resource.FindByCareer"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("career", career, pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.Resource, error) {
		var out []domain.Resource
		err := r.db.WithContext(ctx).
			Where("is_active = ?", true).
			Where("career_specific = ? OR career_specific = ?", career, domain.CareerGeneral).
			Order(clause.OrderBy{Expression: clause.Expr{
				SQL:                "CASE WHEN career_specific = ? THEN 0 ELSE 1 END, created_at DESC",
				Vars:               []any{career},
				WithoutParentheses: true,
			}}).
			Limit(limit).Offset(offset).Find(&out).Error
		if err != nil {
			return nil, storeErr(op, "list resources by career", err)
		}
		return out, nil
	})
}

func (r *ResourceRepo) FindByType(ctx context.Context, typ string, limit, offset int) ([]domain.Resource, error) {
	const op = "resource.FindByType"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("type", typ, pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.Resource, error) {
		var out []domain.Resource
		err := r.db.WithContext(ctx).
			Where("is_active = ? AND type = ?", true, typ).
			Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
		if err != nil {
			return nil, storeErr(op, "list resources by type", err)
		}
		return out, nil
	})
}

func (r *ResourceRepo) FindByCategory(ctx context.Context, category string, limit, offset int) ([]domain.Resource, error) {
	const op = "resource.FindByCategory"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("category", category, pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.Resource, error) {
		var out []domain.Resource
		err := r.db.WithContext(ctx).
			Where("is_active = ? AND category = ?", true, category).
			Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
		if err != nil {
			return nil, storeErr(op, "list resources by category", err)
		}
		return out, nil
	})
}

// Search matches a substring against title and description.
func (r *ResourceRepo) Search(ctx context.Context, query string, limit, offset int) ([]domain.Resource, error) {
	const op = "resource.Search"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("search", query, pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.Resource, error) {
		like := "%" + strings.TrimSpace(query) + "%"
		var out []domain.Resource
		err := r.db.WithContext(ctx).
			Where("is_active = ?", true).
			Where("title LIKE ? OR description LIKE ?", like, like).
			Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
		if err != nil {
			return nil, storeErr(op, "search resources", err)
		}
		return out, nil
	})
}

func (r *ResourceRepo) Update(ctx context.Context, id uint, p domain.ResourcePatch) (*domain.Resource, error) {
	const op = "resource.Update"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	if p.URL != nil {
		if err := validateResourceURL(op, *p.URL); err != nil {
			return nil, err
		}
	}
	before, err := r.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	changes := p.Changes()
	if len(changes) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Resource{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, storeErr(op, "update resource", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.NewNotFound(op, fmt.Sprintf("resource %d does not exist", id))
		}
	}
	after, err := r.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	// Both the old and new relations may hold stale listings.
	if err := r.invalidateResource(ctx, &before); err != nil {
		return nil, err
	}
	if err := r.invalidateResource(ctx, &after); err != nil {
		return nil, err
	}
	return &after, nil
}

func (r *ResourceRepo) Delete(ctx context.Context, id uint) error {
	const op = "resource.Delete"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	res, err := r.load(ctx, op, id)
	if err != nil {
		return err
	}
	del := r.db.WithContext(ctx).Delete(&domain.Resource{}, id)
	if del.Error != nil {
		return storeErr(op, "delete resource", del.Error)
	}
	return r.invalidateResource(ctx, &res)
}

// ClearCache drops every cached resource entry.
func (r *ResourceRepo) ClearCache(ctx context.Context) error { return r.c.Clear(ctx) }

// invalidateResource evicts the resource's own key plus the listings
// scoped by its type, category and career. A general resource appears
// in every career listing, so those all go.
func (r *ResourceRepo) invalidateResource(ctx context.Context, res *domain.Resource) error {
	prefixes := []string{
		idKey(res.ID),
		"all",
		"search",
		cache.Key("type", res.Type),
		cache.Key("category", res.Category),
	}
	if res.CareerSpecific == domain.CareerGeneral {
		prefixes = append(prefixes, "career")
	} else {
		prefixes = append(prefixes, cache.Key("career", res.CareerSpecific))
	}
	for _, prefix := range prefixes {
		if err := r.c.InvalidatePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}
