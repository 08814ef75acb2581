// Package match implements the tiered nearest-vehicle search policy.
package match

import (
	"math"
	"sort"

	"github.com/medisetu/dispatch/core/geo"
	"github.com/medisetu/dispatch/core/logger"
	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/core/registry"
)

// Matcher finds and reserves the nearest available vehicle for a patient
// location. Ambulances within the search radius are preferred; local
// transport is the unconditional fallback.
type Matcher struct {
	reg *registry.Registry
	cfg Config
	log logger.Logger
}

// New creates a Matcher over the given registry.
func New(reg *registry.Registry, cfg Config, log logger.Logger) *Matcher {
	cfg.SetDefaults()
	return &Matcher{reg: reg, cfg: cfg, log: log}
}

type candidate struct {
	v    model.Vehicle
	dist float64
}

// Match reserves the nearest available vehicle for loc. It returns the
// reserved vehicle with its ETA populated and the tier it was found in, or
// (nil, TierNone) when neither pool yields a reservable vehicle. A nil result
// is a valid outcome: the request proceeds to contacts-only notification.
func (m *Matcher) Match(loc model.Location) (*model.Vehicle, model.Tier) {
	if v := m.reserveNearest(loc, model.TierPrimary, m.cfg.SearchRadiusKm); v != nil {
		return v, model.TierPrimary
	}
	if v := m.reserveNearest(loc, model.TierFallback, math.Inf(1)); v != nil {
		return v, model.TierFallback
	}
	m.log.Warnf("no reservable vehicle for location (%.4f, %.4f)", loc.Latitude, loc.Longitude)
	return nil, model.TierNone
}

// reserveNearest walks the candidates in increasing distance order, skipping
// those lost to a concurrent reservation. The availability snapshot may be
// stale, so a failed TryReserve just moves on to the next candidate.
func (m *Matcher) reserveNearest(loc model.Location, tier model.Tier, radiusKm float64) *model.Vehicle {
	var cands []candidate
	for _, v := range m.reg.ListAvailable(tier) {
		d := geo.DistanceKm(loc, v.Location)
		if d > radiusKm {
			continue
		}
		cands = append(cands, candidate{v: v, dist: d})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		// Equidistant candidates resolve by lower id.
		return cands[i].v.ID < cands[j].v.ID
	})
	for _, c := range cands {
		if !m.reg.TryReserve(c.v.ID) {
			m.log.Debugf("lost reservation race for %s, trying next candidate", c.v.ID)
			continue
		}
		v := c.v
		v.Available = false
		v.ETAMinutes = m.etaMinutes(c.dist, tier)
		return &v
	}
	return nil
}

// etaMinutes estimates arrival time from distance at the configured tier
// speed, with a five minute floor covering crew mobilization.
func (m *Matcher) etaMinutes(distKm float64, tier model.Tier) int {
	speed := m.cfg.AvgSpeedKmh
	if tier == model.TierFallback {
		speed = m.cfg.FallbackSpeedKmh
	}
	eta := int(math.Ceil(distKm / speed * 60))
	if eta < 5 {
		eta = 5
	}
	return eta
}
