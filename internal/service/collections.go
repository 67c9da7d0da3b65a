package service

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nightowl-labs/linkvault-back/internal/db"
)

var ErrCollectionNameEmpty = errors.New("collection name is empty")

func (s *Links) CollectionList(userID uint64) ([]db.Collection, error) {
	collections := make([]db.Collection, 0)
	res := s.db.Where("owner_id = ?", userID).Order("id").Find(&collections)
	if res.Error != nil {
		return nil, res.Error
	}
	return collections, nil
}

// CollectionCreate finds or creates an owned collection by name.
// Creating an existing name returns the existing collection instead of
// violating the (name, owner) uniqueness.
func (s *Links) CollectionCreate(userID uint64, name, description, color string) (*db.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCollectionNameEmpty
	}

	collection := db.Collection{}
	res := s.db.Where("name = ? AND owner_id = ?", name, userID).
		FirstOrCreate(&collection, db.Collection{
			Name:        name,
			Description: description,
			Color:       color,
			OwnerID:     userID,
		})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "find or create collection")
	}
	return &collection, nil
}

func (s *Links) TagList(userID uint64) ([]db.Tag, error) {
	tags := make([]db.Tag, 0)
	res := s.db.Where("owner_id = ?", userID).Order("id").Find(&tags)
	if res.Error != nil {
		return nil, res.Error
	}
	return tags, nil
}
