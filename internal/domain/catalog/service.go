package catalog

import "context"

const (
	keyAdoptionStates = "catalog:adoption_states"
	keyFollowUpTypes  = "catalog:follow_up_types"
	keyFollowUpStates = "catalog:follow_up_states"
)

type Service struct {
	repo  Repository
	cache Cache // puede ser nil: se lee directo del repo
}

func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) AdoptionStates(ctx context.Context) ([]Entry, error) {
	return s.readThrough(ctx, keyAdoptionStates, s.repo.AdoptionStates)
}

func (s *Service) FollowUpTypes(ctx context.Context) ([]Entry, error) {
	return s.readThrough(ctx, keyFollowUpTypes, s.repo.FollowUpTypes)
}

func (s *Service) FollowUpStates(ctx context.Context) ([]Entry, error) {
	return s.readThrough(ctx, keyFollowUpStates, s.repo.FollowUpStates)
}

// FollowUpTypeExists valida un código de tipo de seguimiento contra el catálogo.
func (s *Service) FollowUpTypeExists(ctx context.Context, code string) (bool, error) {
	types, err := s.FollowUpTypes(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range types {
		if t.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) readThrough(ctx context.Context, key string, fetch func(context.Context) ([]Entry, error)) ([]Entry, error) {
	if s.cache != nil {
		var cached []Entry
		if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
		// Un cache caído no bloquea la lectura.
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, items)
	}
	return items, nil
}
