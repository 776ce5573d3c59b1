package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-records-core/internal/core/cache"
	"academic-records-core/internal/core/ready"
	"academic-records-core/internal/domain"
)

type UserRepo struct {
	base
}

func NewUserRepo(db *gorm.DB, gate *ready.Gate, c *cache.Cache, log *zap.Logger, opts Options) *UserRepo {
	return &UserRepo{base: newBase(db, gate, c, log, opts)}
}

// UserFilter narrows FindAll.
type UserFilter struct {
	Role   domain.Role
	Search string // substring over name and email
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	const op = "user.Create"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Email) == "" {
		return domain.NewValidation(op, "name and email are required")
	}
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	if !u.Role.Valid() {
		return domain.NewValidation(op, fmt.Sprintf("unknown role %q", u.Role))
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return storeErr(op, "insert user", err)
	}
	return r.invalidateUser(ctx, u)
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	const op = "user.FindByID"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	u, err := cache.GetOrLoadJSON(r.c, ctx, idKey(id), r.opts.TTL, func(ctx context.Context) (domain.User, error) {
		var u domain.User
		err := r.db.WithContext(ctx).First(&u, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, domain.NewNotFound(op, fmt.Sprintf("user %d does not exist", id))
		}
		if err != nil {
			return u, storeErr(op, "select user", err)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "user.FindByEmail"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	u, err := cache.GetOrLoadJSON(r.c, ctx, cache.Key("email", email), r.opts.TTL, func(ctx context.Context) (domain.User, error) {
		var u domain.User
		err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, domain.NewNotFound(op, fmt.Sprintf("no user with email %s", email))
		}
		if err != nil {
			return u, storeErr(op, "select user", err)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindAll(ctx context.Context, f UserFilter, limit, offset int) ([]domain.User, error) {
	const op = "user.FindAll"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("all", fmt.Sprintf("role=%s:q=%s", f.Role, f.Search), pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.User, error) {
		q := r.db.WithContext(ctx).Model(&domain.User{})
		if f.Role != "" {
			q = q.Where("role = ?", f.Role)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + s + "%"
			q = q.Where("name LIKE ? OR email LIKE ?", like, like)
		}
		var users []domain.User
		if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
			return nil, storeErr(op, "list users", err)
		}
		return users, nil
	})
}

// Update applies a merge patch: only fields present in the patch are
// written, zero values included.
func (r *UserRepo) Update(ctx context.Context, id uint, p domain.UserPatch) (*domain.User, error) {
	const op = "user.Update"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	if p.Role != nil && !p.Role.Valid() {
		return nil, domain.NewValidation(op, fmt.Sprintf("unknown role %q", *p.Role))
	}
	changes := p.Changes()
	if len(changes) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, storeErr(op, "update user", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.NewNotFound(op, fmt.Sprintf("user %d does not exist", id))
		}
	}

	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFound(op, fmt.Sprintf("user %d does not exist", id))
		}
		return nil, storeErr(op, "reload user", err)
	}
	if err := r.invalidateUser(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Delete(ctx context.Context, id uint) error {
	const op = "user.Delete"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return storeErr(op, "delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFound(op, fmt.Sprintf("user %d does not exist", id))
	}
	if err := r.c.InvalidatePrefix(ctx, idKey(id)); err != nil {
		return err
	}
	if err := r.c.InvalidatePrefix(ctx, "email"); err != nil {
		return err
	}
	return r.c.InvalidatePrefix(ctx, "all")
}

// ClearCache drops every cached user entry.
func (r *UserRepo) ClearCache(ctx context.Context) error { return r.c.Clear(ctx) }

// invalidateUser evicts every entry that could include the user:
// its id and email keys plus all aggregate listings.
func (r *UserRepo) invalidateUser(ctx context.Context, u *domain.User) error {
	if err := r.c.InvalidatePrefix(ctx, idKey(u.ID)); err != nil {
		return err
	}
	// Email keys are invalidated as a group: a patched email leaves a
	// stale entry under the old address otherwise.
	if err := r.c.InvalidatePrefix(ctx, "email"); err != nil {
		return err
	}
	return r.c.InvalidatePrefix(ctx, "all")
}
