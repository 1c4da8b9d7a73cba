package historyarchive

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
)

// ValkeyStore keeps one hash per location, keyed by day.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a store backed by Valkey. A positive ttl expires idle locations.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "aqi:history"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

// Load implements historical.Archive.
func (s *ValkeyStore) Load(ctx context.Context, locationKey string, from, to time.Time) ([]historical.ArchivedPoint, error) {
	var days []time.Time
	for d := dayOf(from); !d.After(dayOf(to)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, nil
	}
	fields := make([]string, len(days))
	for i, d := range days {
		fields[i] = d.Format(dayLayout)
	}

	values, err := s.client.Do(ctx, s.client.B().Hmget().Key(s.key(locationKey)).Field(fields...).Build()).ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]historical.ArchivedPoint, 0, len(values))
	for i, v := range values {
		if i >= len(days) {
			break
		}
		raw, err := v.ToString()
		if err != nil {
			if valkey.IsValkeyNil(err) {
				continue
			}
			return nil, err
		}
		aqi, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decode archived aqi %q: %w", raw, err)
		}
		out = append(out, historical.ArchivedPoint{Day: days[i], AQI: aqi})
	}
	return out, nil
}

// Save implements historical.Archive. Existing days are kept.
func (s *ValkeyStore) Save(ctx context.Context, locationKey string, points []historical.ArchivedPoint) error {
	if len(points) == 0 {
		return nil
	}
	key := s.key(locationKey)
	cmds := make(valkey.Commands, 0, len(points)+1)
	for _, p := range points {
		cmds = append(cmds, s.client.B().Hsetnx().Key(key).Field(dayOf(p.Day).Format(dayLayout)).Value(strconv.Itoa(p.AQI)).Build())
	}
	if s.ttl > 0 {
		ttl := s.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmds = append(cmds, s.client.B().Expire().Key(key).Seconds(int64(ttl/time.Second)).Build())
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Prune implements Store by scanning location hashes for days before cutoff.
func (s *ValkeyStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	cut := dayOf(cutoff).Format(dayLayout)
	removed := 0
	var cursor uint64
	for {
		entry, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(s.prefix+":*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return removed, err
		}
		for _, key := range entry.Elements {
			fields, err := s.client.Do(ctx, s.client.B().Hkeys().Key(key).Build()).AsStrSlice()
			if err != nil {
				return removed, err
			}
			var stale []string
			for _, f := range fields {
				if f < cut {
					stale = append(stale, f)
				}
			}
			if len(stale) == 0 {
				continue
			}
			n, err := s.client.Do(ctx, s.client.B().Hdel().Key(key).Field(stale...).Build()).AsInt64()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Close implements Store.
func (s *ValkeyStore) Close() {
	s.client.Close()
}

func (s *ValkeyStore) key(locationKey string) string {
	return fmt.Sprintf("%s:%s", s.prefix, locationKey)
}

var _ Store = (*ValkeyStore)(nil)
