package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"wayfarer/internal/datastore"
	"wayfarer/internal/models"
	"wayfarer/internal/pkg/caching"

	"github.com/go-redsync/redsync/v4"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceUser struct {
	container          *do.Injector
	rs                 *redsync.Redsync
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, rs, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceUser) FindOrCreateUser(ctx context.Context, userAuth *models.UserFromAuth) (*models.User, error) {
	if userAuth == nil || strings.TrimSpace(userAuth.ID) == "" {
		return nil, errorx.Wrap(errors.New("empty user id"), errorx.Invalid)
	}

	user, _ := service.FindUserByID(ctx, userAuth.ID)
	if user != nil {
		if user.DisplayName != userAuth.DisplayName || user.PhotoURL != userAuth.PhotoURL {
			user.DisplayName = userAuth.DisplayName
			user.PhotoURL = userAuth.PhotoURL
			user.UpdatedAt = time.Now()
			if err := datastore.UpdateUserProfile(ctx, service.postgresDB, user); err != nil {
				log.Println("update user profile:", err)
			}
			//nolint:errcheck
			service.cache.Delete(ctx, DBKeyUser(user.ID))
		}
		return user, nil
	}

	mutex := service.rs.NewMutex(LockKeyUserCreate(userAuth.ID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrUserLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	// another request may have created the user while we waited
	user, _ = service.FindUserByIDNoCache(ctx, userAuth.ID)
	if user != nil {
		return user, nil
	}

	now := time.Now()
	newUser := &models.User{
		ID:           userAuth.ID,
		DisplayName:  userAuth.DisplayName,
		PhotoURL:     userAuth.PhotoURL,
		LanguageCode: userAuth.LanguageCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	log.Println("create new user:", newUser.ID)
	user, err := datastore.CreateUser(ctx, service.postgresDB, newUser)
	if err != nil {
		return nil, err
	}

	user.IsNewUser = true
	return user, nil
}

func (service *ServiceUser) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	callback := func() (*models.User, error) {
		return datastore.FindUserByID(ctx, service.readonlyPostgresDB, userID)
	}
	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUser(userID), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceUser) FindUserByIDNoCache(ctx context.Context, userID string) (*models.User, error) {
	return datastore.FindUserByID(ctx, service.readonlyPostgresDB, userID)
}
