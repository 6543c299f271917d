package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
	"mach-lagbe/policy"
	"mach-lagbe/repository"
)

// IFishService manages the catalog. Reads are public; writes need an admin.
type IFishService interface {
	List(ctx context.Context, actor *models.Identity, filter models.FishFilter) ([]*models.Fish, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Fish, error)
	Create(ctx context.Context, actor *models.Identity, in models.FishInput) (*models.Fish, error)
	Update(ctx context.Context, actor *models.Identity, id primitive.ObjectID, in models.FishInput) (*models.Fish, error)
	Delete(ctx context.Context, actor *models.Identity, id primitive.ObjectID) error
}

type FishService struct {
	fish repository.IFishRepository
	log  logrus.FieldLogger
}

func NewFishService(fish repository.IFishRepository, log logrus.FieldLogger) *FishService {
	return &FishService{fish: fish, log: log}
}

var errFishNotFound = apperrors.NotFound("Fish not found")

// List returns active fish unless filter.IncludeInactive is set, which is
// the admin listing.
func (s *FishService) List(ctx context.Context, actor *models.Identity, filter models.FishFilter) ([]*models.Fish, error) {
	action := policy.FishRead
	if filter.IncludeInactive {
		action = policy.FishListAll
	}
	if err := policy.Authorize(actor, action, primitive.NilObjectID); err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	fish, err := s.fish.ListFish(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Server error", err)
	}
	return fish, nil
}

// Get looks a fish up by id whether or not it is active.
func (s *FishService) Get(ctx context.Context, id primitive.ObjectID) (*models.Fish, error) {
	f, err := s.fish.FindFishByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, errFishNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("Server error", err)
	}
	return f, nil
}

func validateFish(f *models.Fish, priceMissing bool) error {
	var msgs []string
	if err := f.Validate(); err != nil {
		msgs = append(msgs, err.Error())
	}
	if priceMissing {
		msgs = append(msgs, "Price is required")
	}
	if len(msgs) > 0 {
		return apperrors.Validation(strings.Join(msgs, ", "))
	}
	return nil
}

func (s *FishService) save(ctx context.Context, f *models.Fish, create bool) error {
	var err error
	if create {
		err = s.fish.CreateFish(ctx, f)
	} else {
		err = s.fish.UpdateFish(ctx, f)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrDuplicateKey):
		return apperrors.Duplicate("Fish with this name already exists")
	case errors.Is(err, apperrors.ErrNotFound):
		return errFishNotFound
	default:
		return apperrors.Internal("Server error", err)
	}
}

func (s *FishService) Create(ctx context.Context, actor *models.Identity, in models.FishInput) (*models.Fish, error) {
	if err := policy.Authorize(actor, policy.FishWrite, primitive.NilObjectID); err != nil {
		return nil, err
	}
	f := models.NewFish(in)
	f.Normalize()
	if err := validateFish(f, in.PricePerKg == nil); err != nil {
		return nil, err
	}
	if err := s.save(ctx, f, true); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"fish_id": f.ID.Hex(), "name": f.Name}).Info("Fish created")
	return f, nil
}

func (s *FishService) Update(ctx context.Context, actor *models.Identity, id primitive.ObjectID, in models.FishInput) (*models.Fish, error) {
	if err := policy.Authorize(actor, policy.FishWrite, primitive.NilObjectID); err != nil {
		return nil, err
	}
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ApplyTo(f)
	f.Normalize()
	if err := validateFish(f, false); err != nil {
		return nil, err
	}
	if err := s.save(ctx, f, false); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete marks the fish inactive. Deleting an inactive fish succeeds.
func (s *FishService) Delete(ctx context.Context, actor *models.Identity, id primitive.ObjectID) error {
	if err := policy.Authorize(actor, policy.FishWrite, primitive.NilObjectID); err != nil {
		return err
	}
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !f.IsActive {
		return nil
	}
	f.IsActive = false
	if err := s.save(ctx, f, false); err != nil {
		return err
	}
	s.log.WithField("fish_id", f.ID.Hex()).Info("Fish deactivated")
	return nil
}
