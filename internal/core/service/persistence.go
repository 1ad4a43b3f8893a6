package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/salonbook/webapp/internal/core/domain"
)

// commitSession writes token, user, business and theme as one unit.
func (s *SessionStore) commitSession(ctx context.Context, token string, user *domain.User, business *domain.Business) error {
	set, del, err := snapshotEntries(user, business)
	if err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	set[domain.KeyToken] = token

	if err := s.storage.Apply(ctx, set, del); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// clearSession removes all four credential record entries as one unit.
func (s *SessionStore) clearSession(ctx context.Context) error {
	if err := s.storage.Apply(ctx, nil, domain.SessionKeys); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// persistSnapshots refreshes the cached user/business copies, leaving the
// token untouched.
func (s *SessionStore) persistSnapshots(ctx context.Context, user *domain.User, business *domain.Business) error {
	set, del, err := snapshotEntries(user, business)
	if err != nil {
		return err
	}
	return s.storage.Apply(ctx, set, del)
}

func snapshotEntries(user *domain.User, business *domain.Business) (map[string]string, []string, error) {
	rawUser, err := marshalSnapshot(user)
	if err != nil {
		return nil, nil, err
	}

	set, del, err := businessEntries(business)
	if err != nil {
		return nil, nil, err
	}
	set[domain.KeyUserData] = rawUser
	return set, del, nil
}

// businessEntries encodes businessData and businessTheme. Absent values are
// returned as deletions so stale snapshots never outlive their source.
func businessEntries(business *domain.Business) (map[string]string, []string, error) {
	set := make(map[string]string, 4)
	var del []string

	if business == nil {
		return set, []string{domain.KeyBusinessData, domain.KeyBusinessTheme}, nil
	}

	rawBusiness, err := marshalSnapshot(business)
	if err != nil {
		return nil, nil, err
	}
	set[domain.KeyBusinessData] = rawBusiness

	if theme, ok := domain.ThemeFromBusiness(business); ok {
		rawTheme, err := marshalSnapshot(theme)
		if err != nil {
			return nil, nil, err
		}
		set[domain.KeyBusinessTheme] = rawTheme
	} else {
		del = append(del, domain.KeyBusinessTheme)
	}
	return set, del, nil
}

func marshalSnapshot(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(raw), nil
}
