package service

import (
	"context"
	"fmt"
	"sort"

	repository "freshkeeper/internal/database/postgres"
	"freshkeeper/internal/entity"
	"freshkeeper/internal/pkg/eligibility"
)

type itemService struct {
	itemRepo repository.ItemRepository
	userRepo repository.UserRepository
}

// NewItemService creates a new ItemService.
func NewItemService(itemRepo repository.ItemRepository, userRepo repository.UserRepository) ItemService {
	return &itemService{
		itemRepo: itemRepo,
		userRepo: userRepo,
	}
}

func (s *itemService) CreateItem(ctx context.Context, req *CreateItemRequest) (*entity.Item, error) {
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	policy := entity.DefaultNotificationPolicy()
	if req.Notifications != nil {
		policy = *req.Notifications
	}
	policy.DayOffsets = normalizeOffsets(policy.DayOffsets)

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	item := &entity.Item{
		UserID:        req.UserID,
		Name:          req.Name,
		Quantity:      quantity,
		Unit:          req.Unit,
		Status:        entity.ItemStatusPending,
		ExpiryDate:    req.ExpiryDate,
		Price:         req.Price,
		Notifications: policy,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (s *itemService) GetItem(ctx context.Context, id int64) (*entity.Item, error) {
	return s.itemRepo.GetByID(ctx, id)
}

func (s *itemService) GetUserItems(ctx context.Context, userID int64) ([]*entity.Item, error) {
	return s.itemRepo.GetByUserID(ctx, userID)
}

// UpdateItem merges the partial request onto the stored item. Changing
// the expiry date starts a new notification cycle: the repository clears
// the dedup latch inside the same UPDATE whenever the stored date and the
// submitted date differ.
func (s *itemService) UpdateItem(ctx context.Context, id int64, req *UpdateItemRequest) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, entity.ErrInvalidStatus
		}
		item.Status = *req.Status
	}
	if req.ExpiryDate != nil {
		item.ExpiryDate = req.ExpiryDate
	}
	if req.Price != nil {
		item.Price = req.Price
	}
	if req.Notifications != nil {
		policy := *req.Notifications
		policy.DayOffsets = normalizeOffsets(policy.DayOffsets)
		item.Notifications = policy
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

func (s *itemService) UpdateItemStatus(ctx context.Context, id int64, status entity.ItemStatus) error {
	if !validStatus(status) {
		return entity.ErrInvalidStatus
	}
	return s.itemRepo.UpdateStatus(ctx, id, status)
}

func (s *itemService) DeleteItem(ctx context.Context, id int64) error {
	return s.itemRepo.Delete(ctx, id)
}

func validStatus(status entity.ItemStatus) bool {
	switch status {
	case entity.ItemStatusPending, entity.ItemStatusCompleted, entity.ItemStatusUsed:
		return true
	}
	return false
}

// normalizeOffsets clamps day offsets into [0, MaxDayOffset], removes
// duplicates and sorts ascending. An empty list falls back to the
// defaults so a policy is never silently trigger-less.
func normalizeOffsets(offsets []int64) []int64 {
	if len(offsets) == 0 {
		return entity.DefaultNotificationPolicy().DayOffsets
	}

	seen := make(map[int64]struct{}, len(offsets))
	normalized := make([]int64, 0, len(offsets))
	for _, o := range offsets {
		if o < 0 {
			o = 0
		}
		if o > eligibility.MaxDayOffset {
			o = eligibility.MaxDayOffset
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		normalized = append(normalized, o)
	}

	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })
	return normalized
}
