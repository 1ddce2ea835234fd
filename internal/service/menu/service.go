package menu

import (
	"context"
	"io"
	"log"
	"strings"

	"eato/internal/domain"
)

type menuRepo interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
}

// Presigner turns an object key into a readable URL.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

type Service struct {
	repo      menuRepo
	presigner Presigner
	logger    *log.Logger
}

// New builds the menu service. presigner may be nil, in which case image
// values are returned as stored.
func New(repo menuRepo, presigner Presigner, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, presigner: presigner, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]domain.MenuItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Image = s.imageURL(ctx, items[i].Image)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.MenuItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Image = s.imageURL(ctx, item.Image)
	return item, nil
}

// GetRaw returns the stored item without resolving its image. The cart uses it
// to snapshot name and price.
func (s *Service) GetRaw(ctx context.Context, id string) (*domain.MenuItem, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) imageURL(ctx context.Context, image string) string {
	if image == "" || s.presigner == nil || isAbsoluteURL(image) {
		return image
	}
	u, err := s.presigner.PresignGet(ctx, strings.TrimPrefix(image, "/"))
	if err != nil {
		s.logger.Printf("menu: presign key=%s error=%v", image, err)
		return ""
	}
	return u
}

func isAbsoluteURL(v string) bool {
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
