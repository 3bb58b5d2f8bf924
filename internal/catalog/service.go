package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"petshop-backend/internal/utils"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("service not found")
	ErrDuplicate = errors.New("service id already exists")
	ErrInvalidID = errors.New("invalid service id")
)

type Manager struct {
	repo     Repository
	location *time.Location
	now      func() time.Time
}

func NewManager(repo Repository, location *time.Location) *Manager {
	return &Manager{
		repo:     repo,
		location: location,
		now:      time.Now,
	}
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (Service, error) {
	id := utils.SlugID(req.ID)
	if id == "" {
		id = utils.SlugID(req.Name)
	}
	if id == "" {
		return Service{}, ErrInvalidID
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := m.now().In(m.location)
	svc := Service{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		Duration:    req.Duration,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.repo.Create(ctx, svc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Service{}, ErrDuplicate
		}
		return Service{}, err
	}
	return svc, nil
}

func (m *Manager) Get(ctx context.Context, id string) (Service, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Service{}, ErrNotFound
	}
	svc, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return Service{}, mapNotFound(err)
	}
	return svc, nil
}

func (m *Manager) ListPublic(ctx context.Context) ([]Service, error) {
	return m.repo.List(ctx, true)
}

func (m *Manager) ListAdmin(ctx context.Context) ([]Service, error) {
	return m.repo.List(ctx, false)
}

func (m *Manager) Update(ctx context.Context, id string, req UpdateRequest) (Service, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)

	updated, err := m.repo.Update(ctx, strings.TrimSpace(id), req, m.now().In(m.location))
	if err != nil {
		return Service{}, mapNotFound(err)
	}
	return updated, nil
}

func (m *Manager) SetActive(ctx context.Context, id string, active bool) (Service, error) {
	updated, err := m.repo.SetActive(ctx, strings.TrimSpace(id), active, m.now().In(m.location))
	if err != nil {
		return Service{}, mapNotFound(err)
	}
	return updated, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
