package service

import (
	"context"
	"errors"
	"strings"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
)

var (
	ErrInvalidName     = errors.New("service: plant name must not be blank")
	ErrInvalidInterval = errors.New("service: watering interval must be at least one day")
)

const maxWaterLogEntries = 50

// PlantService covers the simple data-entry operations on tracked plants.
// Every operation is scoped to a verified identity; the store guarantees an
// unowned id behaves exactly like a missing one.
type PlantService struct {
	Store store.Store
}

func (s *PlantService) ListPlants(ctx context.Context, ident auth.Identity) ([]domain.Plant, error) {
	return s.Store.Plants().ListActivePlants(ctx, ident.UserID())
}

func (s *PlantService) ListArchivedPlants(ctx context.Context, ident auth.Identity) ([]domain.Plant, error) {
	return s.Store.Plants().ListArchivedPlants(ctx, ident.UserID())
}

// AddPlant creates a new tracked plant, optionally with a watering interval.
// Names are trimmed and must be unique per owner.
func (s *PlantService) AddPlant(ctx context.Context, ident auth.Identity, name string, days *int) (domain.Plant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Plant{}, ErrInvalidName
	}
	if days != nil && *days < 1 {
		return domain.Plant{}, ErrInvalidInterval
	}

	var plant domain.Plant
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		created, err := tx.Plants().CreatePlant(ctx, ident.UserID(), name)
		if err != nil {
			return err
		}
		if days != nil {
			if err := tx.Plants().SetWaterInterval(ctx, ident.UserID(), created.ID, days); err != nil {
				return err
			}
			created.WaterEveryDays = days
		}
		plant = created
		return nil
	})
	return plant, err
}

func (s *PlantService) RenamePlant(ctx context.Context, ident auth.Identity, plantID int64, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrInvalidName
	}
	return s.Store.Plants().RenamePlant(ctx, ident.UserID(), plantID, newName)
}

// SetWaterInterval configures how often a plant wants water. A nil interval
// clears the configuration, putting the plant back into the unknown bucket.
func (s *PlantService) SetWaterInterval(ctx context.Context, ident auth.Identity, plantID int64, days *int) error {
	if days != nil && *days < 1 {
		return ErrInvalidInterval
	}
	return s.Store.Plants().SetWaterInterval(ctx, ident.UserID(), plantID, days)
}

func (s *PlantService) ArchivePlant(ctx context.Context, ident auth.Identity, plantID int64) error {
	return s.Store.Plants().SetActive(ctx, ident.UserID(), plantID, false)
}

func (s *PlantService) RestorePlant(ctx context.Context, ident auth.Identity, plantID int64) error {
	return s.Store.Plants().SetActive(ctx, ident.UserID(), plantID, true)
}

// WaterLog returns the most recent watering events for an owned active plant.
func (s *PlantService) WaterLog(ctx context.Context, ident auth.Identity, plantID int64, limit int) ([]domain.WaterLogEntry, error) {
	if limit < 1 || limit > maxWaterLogEntries {
		limit = maxWaterLogEntries
	}

	// Ownership check first; log rows alone must not reveal other users' plants.
	if _, err := s.Store.Plants().GetActivePlant(ctx, ident.UserID(), plantID); err != nil {
		return nil, err
	}

	return s.Store.WaterLogs().ListRecent(ctx, ident.UserID(), plantID, limit)
}
