package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"travelops/internal/adapters/observability"
	"travelops/internal/domain"
)

// Key layout. Proposal groups live per lead; option hotel sets and the
// per-itinerary proposal snapshots live per itinerary. Settings share
// one namespace.
const (
	keyLeadProposals      = "lead_%d_proposals"
	keyItineraryProposals = "itinerary_%d_proposals"
	keyItineraryEvents    = "itinerary_%d_events"
	keySelectedSkin       = "settings:selected_email_skin"
	keyPolicy             = "settings:%s"
)

// Store implements domain.ProposalStore and domain.SettingsStore on
// Redis. All values are JSON; proposals have no TTL.
type Store struct{ c *redis.Client }

func New(addr, pass string, db int) *Store {
	return &Store{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

// NewFromClient exists for tests running against miniredis.
func NewFromClient(c *redis.Client) *Store { return &Store{c: c} }

func (s *Store) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }

func (s *Store) LeadProposals(ctx context.Context, leadID int64) ([]domain.Proposal, error) {
	var out []domain.Proposal
	ok, err := s.get(ctx, fmt.Sprintf(keyLeadProposals, leadID), &out)
	if err != nil {
		return nil, fmt.Errorf("load lead %d proposals: %w", leadID, err)
	}
	if !ok {
		return nil, nil
	}
	return out, nil
}

func (s *Store) SaveLeadProposals(ctx context.Context, leadID int64, proposals []domain.Proposal) error {
	key := fmt.Sprintf(keyLeadProposals, leadID)
	if len(proposals) == 0 {
		observability.ObserveStore("proposals", "del")
		return s.c.Del(ctx, key).Err()
	}
	if err := s.set(ctx, key, proposals); err != nil {
		return fmt.Errorf("save lead %d proposals: %w", leadID, err)
	}
	return nil
}

func (s *Store) ItineraryProposals(ctx context.Context, itineraryID int64) ([]domain.Proposal, error) {
	var out []domain.Proposal
	ok, err := s.get(ctx, fmt.Sprintf(keyItineraryProposals, itineraryID), &out)
	if err != nil {
		return nil, fmt.Errorf("load itinerary %d proposals: %w", itineraryID, err)
	}
	if !ok {
		return nil, nil
	}
	return out, nil
}

func (s *Store) DayEvents(ctx context.Context, itineraryID int64) (domain.OptionSet, error) {
	set := domain.OptionSet{ItineraryID: itineraryID, Options: map[int][]domain.HotelLine{}}
	raw := map[string][]eventRecord{}
	ok, err := s.get(ctx, fmt.Sprintf(keyItineraryEvents, itineraryID), &raw)
	if err != nil {
		return set, fmt.Errorf("load itinerary %d events: %w", itineraryID, err)
	}
	if !ok {
		return set, nil
	}
	for key, events := range raw {
		opt := 0
		if _, err := fmt.Sscanf(key, "%d", &opt); err != nil || opt <= 0 {
			continue
		}
		for _, ev := range events {
			if line, ok := ev.hotelLine(); ok {
				set.Options[opt] = append(set.Options[opt], line)
			}
		}
	}
	return set, nil
}

// eventRecord is the stored shape of a day-planner event. Only hotel
// events carry into quotations; other event types are skipped.
type eventRecord struct {
	Day      int     `json:"day"`
	Type     string  `json:"type"`
	HotelID  int64   `json:"hotelId,omitempty"`
	Name     string  `json:"name"`
	Room     string  `json:"room,omitempty"`
	MealPlan string  `json:"mealPlan,omitempty"`
	Stars    int     `json:"categoryStars,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Image    string  `json:"image,omitempty"`
	CheckIn  string  `json:"checkIn,omitempty"`
	CheckOut string  `json:"checkOut,omitempty"`
}

func (ev eventRecord) hotelLine() (domain.HotelLine, bool) {
	if ev.Type != "" && ev.Type != "hotel" {
		return domain.HotelLine{}, false
	}
	if ev.HotelID == 0 && ev.Name == "" {
		return domain.HotelLine{}, false
	}
	return domain.HotelLine{
		Day:           ev.Day,
		HotelID:       ev.HotelID,
		HotelName:     ev.Name,
		Room:          ev.Room,
		MealPlan:      ev.MealPlan,
		CategoryStars: ev.Stars,
		Price:         ev.Price,
		Image:         ev.Image,
		CheckIn:       ev.CheckIn,
		CheckOut:      ev.CheckOut,
	}, true
}

func (s *Store) SelectedSkin(ctx context.Context) (string, error) {
	v, err := s.c.Get(ctx, keySelectedSkin).Result()
	if err == redis.Nil {
		observability.ObserveStore("settings", "miss")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load selected skin: %w", err)
	}
	observability.ObserveStore("settings", "hit")
	return v, nil
}

func (s *Store) SetSelectedSkin(ctx context.Context, skinID string) error {
	observability.ObserveStore("settings", "set")
	return s.c.Set(ctx, keySelectedSkin, skinID, 0).Err()
}

var policyKeys = []struct {
	key string
	get func(*domain.Policies) *string
}{
	{"remarks", func(p *domain.Policies) *string { return &p.Remarks }},
	{"terms_and_conditions", func(p *domain.Policies) *string { return &p.Terms }},
	{"confirmation_policy", func(p *domain.Policies) *string { return &p.Confirmation }},
	{"cancellation_policy", func(p *domain.Policies) *string { return &p.Cancellation }},
	{"amendment_policy", func(p *domain.Policies) *string { return &p.Amendment }},
	{"thankyou_message", func(p *domain.Policies) *string { return &p.ThankYou }},
}

func (s *Store) Policies(ctx context.Context) (domain.Policies, error) {
	var pol domain.Policies
	for _, pk := range policyKeys {
		v, err := s.c.Get(ctx, fmt.Sprintf(keyPolicy, pk.key)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return domain.Policies{}, fmt.Errorf("load policy %s: %w", pk.key, err)
		}
		*pk.get(&pol) = v
	}
	return pol, nil
}

func (s *Store) SetPolicy(ctx context.Context, key, value string) error {
	for _, pk := range policyKeys {
		if pk.key == key {
			observability.ObserveStore("settings", "set")
			return s.c.Set(ctx, fmt.Sprintf(keyPolicy, key), value, 0).Err()
		}
	}
	return fmt.Errorf("policy %q: %w", key, domain.ErrNotFound)
}

func (s *Store) get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := s.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.ObserveStore("proposals", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveStore("proposals", "hit")
	return true, json.Unmarshal(v, dst)
}

func (s *Store) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveStore("proposals", "set")
	return s.c.Set(ctx, key, b, 0).Err()
}
