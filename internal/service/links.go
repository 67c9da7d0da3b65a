package service

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nightowl-labs/linkvault-back/internal/archive"
	"github.com/nightowl-labs/linkvault-back/internal/db"
	"github.com/nightowl-labs/linkvault-back/internal/meta"
)

// DefaultCollectionName receives links created without an explicit
// collection.
const DefaultCollectionName = "Unorganized"

var (
	ErrCollectionNotAccessible = errors.New("collection is not accessible")
	ErrLinkAlreadyExists       = errors.New("link already exists")
	ErrLinkLimitReached        = errors.New("maximum number of links reached")
	ErrUserNotFound            = errors.New("user not found")
)

type (
	TagRef struct {
		Name string
	}

	CollectionRef struct {
		ID   *uint64
		Name string
	}

	// CreateLinkRequest is the normalized link-creation payload. Transport
	// binding and schema validation happen before it is built.
	CreateLinkRequest struct {
		URL         *string
		Name        string
		Description string
		Type        string
		Tags        []TagRef
		Collection  CollectionRef
		// Image marks that the client will upload a screenshot for this
		// link: "png" or anything else for jpeg. Empty means no image.
		Image string
	}

	Links struct {
		db           *gorm.DB
		resolver     meta.Resolver
		store        *archive.Store
		logger       *zap.SugaredLogger
		defaultLimit int
	}
)

func NewLinks(database *gorm.DB, resolver meta.Resolver, store *archive.Store, logger *zap.SugaredLogger, defaultLimit int) *Links {
	return &Links{
		db:           database,
		resolver:     resolver,
		store:        store,
		logger:       logger,
		defaultLimit: defaultLimit,
	}
}

// Create runs the link-creation pipeline: resolve collection, detect
// duplicates, guard the quota, fetch metadata, persist. The first
// failing step aborts the rest.
func (s *Links) Create(ctx context.Context, userID uint64, req *CreateLinkRequest) (*db.Link, error) {
	user := db.User{}
	if res := s.db.First(&user, userID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(res.Error, "load user")
	}

	collection, err := s.resolveCollection(userID, req.Collection)
	if err != nil {
		return nil, err
	}

	var trimmedURL *string
	if req.URL != nil {
		v := strings.TrimSpace(*req.URL)
		if v != "" {
			trimmedURL = &v
		}
	}

	if user.PreventDuplicateLinks && trimmedURL != nil {
		if err := s.detectDuplicate(userID, *trimmedURL); err != nil {
			return nil, err
		}
	}

	if err := s.guardQuota(&user); err != nil {
		return nil, err
	}

	md := meta.Metadata{}
	if trimmedURL != nil {
		fetched, err := s.resolver.Resolve(ctx, *trimmedURL)
		if err != nil {
			// A dead or slow host is not a reason to lose the link.
			s.logger.Warnw("metadata fetch failed", "url", *trimmedURL, "error", err)
		} else {
			md = fetched
		}
	}

	linkType, _ := meta.Classify(trimmedURL != nil, req.Type, md.ContentType())

	name := req.Name
	if name == "" && trimmedURL != nil {
		name = md.Title
	}
	description := req.Description
	if description == "" {
		description = md.Description
	}

	model := db.Link{
		URL:          trimmedURL,
		Name:         name,
		Description:  description,
		Type:         linkType,
		CollectionID: collection.ID,
		CreatedByID:  userID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		tags := make([]db.Tag, 0, len(req.Tags))
		for _, ref := range req.Tags {
			tagName := strings.TrimSpace(ref.Name)
			if tagName == "" {
				continue
			}
			tag := db.Tag{}
			res := tx.Where("name = ? AND owner_id = ?", tagName, collection.OwnerID).
				FirstOrCreate(&tag, db.Tag{Name: tagName, OwnerID: collection.OwnerID})
			if res.Error != nil {
				return errors.Wrap(res.Error, "upsert tag")
			}
			tags = append(tags, tag)
		}
		model.Tags = tags

		if res := tx.Create(&model); res.Error != nil {
			return errors.Wrap(res.Error, "create link")
		}

		// The archived image path embeds the generated link id, so it is
		// written after the insert, inside the same transaction.
		if req.Image != "" {
			ext := meta.ExtJPEG
			if req.Image == meta.ExtPNG {
				ext = meta.ExtPNG
			}
			path := archive.ImagePath(model.CollectionID, model.ID, ext)
			if res := tx.Model(&model).Update("image", path); res.Error != nil {
				return errors.Wrap(res.Error, "set image path")
			}
			model.Image = &path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.EnsureCollectionFolder(model.CollectionID); err != nil {
		s.logger.Warnw("ensure archive folder", "collection", model.CollectionID, "error", err)
	}

	model.Collection = *collection
	return &model, nil
}

// resolveCollection maps an id or a name to a collection the user owns.
// An id must match an existing owned collection; a name is
// found-or-created. No id and no name falls back to the default
// collection.
func (s *Links) resolveCollection(userID uint64, ref CollectionRef) (*db.Collection, error) {
	if ref.ID != nil {
		collection := db.Collection{}
		res := s.db.Where("id = ? AND owner_id = ?", *ref.ID, userID).First(&collection)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return nil, ErrCollectionNotAccessible
			}
			return nil, errors.Wrap(res.Error, "find collection by id")
		}
		return &collection, nil
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		name = DefaultCollectionName
	}

	collection := db.Collection{}
	res := s.db.Where("name = ? AND owner_id = ?", name, userID).
		FirstOrCreate(&collection, db.Collection{Name: name, OwnerID: userID})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "find or create collection")
	}
	return &collection, nil
}

// detectDuplicate is a best-effort scan, not a constraint: two
// concurrent creations of the same URL can both pass it. The trailing
// slash is stripped and the "www." host prefix is matched both ways;
// scheme and query differences are deliberately not normalized.
func (s *Links) detectDuplicate(userID uint64, url string) error {
	withWWW, withoutWWW := duplicateVariants(url)

	sql, args, err := squirrel.
		Select("l.id").From("links l").
		Join("collections c ON l.collection_id = c.id").
		Where(squirrel.And{
			squirrel.Eq{"c.owner_id": userID},
			// Stored URLs are trimmed but may carry a trailing slash, so
			// the comparison strips it on both sides.
			squirrel.Or{
				squirrel.Expr("RTRIM(l.url, '/') = ?", withWWW),
				squirrel.Expr("RTRIM(l.url, '/') = ?", withoutWWW),
			},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}

	ids := make([]uint64, 0)
	res := s.db.Raw(sql, args...).Scan(&ids)
	if res.Error != nil {
		return errors.Wrap(res.Error, "scan")
	}
	if len(ids) != 0 {
		return ErrLinkAlreadyExists
	}
	return nil
}

// duplicateVariants derives the "www."-prefixed and stripped forms of a
// URL after trimming trailing slashes.
func duplicateVariants(raw string) (withWWW, withoutWWW string) {
	url := strings.TrimRight(strings.TrimSpace(raw), "/")
	if strings.Contains(url, "://www.") {
		return url, strings.Replace(url, "://www.", "://", 1)
	}
	return strings.Replace(url, "://", "://www.", 1), url
}

// guardQuota rejects the creation when one more link would pass the
// user's effective limit. A user-level limit overrides the configured
// default; zero means unlimited.
func (s *Links) guardQuota(user *db.User) error {
	limit := s.defaultLimit
	if user.LinkLimit > 0 {
		limit = user.LinkLimit
	}
	if limit <= 0 {
		return nil
	}

	var count int64
	res := s.db.Model(&db.Link{}).Where("created_by_id = ?", user.ID).Count(&count)
	if res.Error != nil {
		return errors.Wrap(res.Error, "count links")
	}
	if count+1 > int64(limit) {
		return ErrLinkLimitReached
	}
	return nil
}

// List returns the user's links, optionally filtered by tag ids.
func (s *Links) List(userID uint64, tags []uint64) ([]db.Link, error) {
	w := squirrel.Eq{
		"l.created_by_id": userID,
	}
	if len(tags) != 0 {
		w["lt.tag_id"] = tags
	}
	sql, args, err := squirrel.
		Select("l.id", "l.url", "l.name", "l.description", "l.type", "l.image", "l.collection_id").
		From("links l").
		LeftJoin("link_tags lt ON l.id = lt.link_id").
		OrderBy("l.id").
		Where(w).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	links := make([]db.Link, 0)
	res := s.db.Raw(sql, args...).Scan(&links)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	return links, nil
}

func (s *Links) Delete(linkID, userID uint64) error {
	res := s.db.Where("created_by_id = ?", userID).Delete(&db.Link{}, linkID)
	if res.Error != nil {
		return res.Error
	}
	return nil
}
