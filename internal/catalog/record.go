// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshintel/geopublish/pkg/types"
)

// GroupGetter is the subset of the catalog client used for group lookups.
type GroupGetter interface {
	GetGroup(ctx context.Context, name string) (*types.Group, error)
}

// VersionStamp returns the date-based record version, e.g. "20260831".
func VersionStamp(t time.Time) string {
	return t.Format("20060102")
}

// NewRecord initializes a fresh dataset record for a dataset that does not
// yet exist on the catalog.
func NewRecord(id, title string, cfg types.CatalogConfig, now time.Time) *types.Record {
	return &types.Record{
		Name:            id,
		Title:           title,
		LicenseID:       cfg.LicenseID,
		Version:         VersionStamp(now),
		Maintainer:      cfg.Maintainer,
		MaintainerEmail: cfg.MaintainerEmail,
		Author:          cfg.Author,
	}
}

// AttachGroup assigns the configured group to a new record. A missing group
// is tolerated: the record keeps an empty group list and the run continues.
func AttachGroup(ctx context.Context, groups GroupGetter, rec *types.Record, groupName string, log zerolog.Logger) error {
	if groupName == "" {
		rec.Groups = []string{}
		return nil
	}
	group, err := groups.GetGroup(ctx, groupName)
	if errors.Is(err, ErrNotFound) {
		log.Warn().Str("dataset", rec.Name).Str("group", groupName).Msg("group not found on catalog")
		rec.Groups = []string{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up group %s: %w", groupName, err)
	}
	log.Info().Str("group", groupName).Msg("adding dataset to group")
	rec.Groups = []string{group.ID}
	return nil
}
