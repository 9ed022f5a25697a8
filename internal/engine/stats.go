package engine

import (
	"context"
	"math"
	"sort"

	"github.com/smukkama/symptom-intel/internal/model"
)

const topLocations = 5

// LocationStat is one row of the most affected locations
type LocationStat struct {
	Location  string `json:"location"`
	Outbreaks int    `json:"outbreaks"`
	Reports   int    `json:"reports"`
}

type Stats struct {
	TotalReports         int            `json:"totalReports"`
	ActiveOutbreaks      int            `json:"activeOutbreaks"`
	TotalSubscribers     int            `json:"totalSubscribers"`
	SeverityDistribution map[string]int `json:"severityDistribution"`
	TopAffectedLocations []LocationStat `json:"topAffectedLocations"`
	// DetectionRate is active outbreaks per 100 stored reports
	DetectionRate float64 `json:"detectionRate"`
}

func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	totalReports, err := e.stores.Reports.Count(ctx)
	if err != nil {
		return nil, err
	}
	perLocation, err := e.stores.Reports.CountByLocation(ctx)
	if err != nil {
		return nil, err
	}
	active, err := e.stores.Outbreaks.List(ctx, model.OutbreakFilter{Status: model.OutbreakActive})
	if err != nil {
		return nil, err
	}
	subscribers, err := e.stores.Subscribers.Count(ctx)
	if err != nil {
		return nil, err
	}

	s := &Stats{
		TotalReports:     totalReports,
		ActiveOutbreaks:  len(active),
		TotalSubscribers: subscribers,
		SeverityDistribution: map[string]int{
			string(model.OutbreakHigh):   0,
			string(model.OutbreakMedium): 0,
			"low":                        0,
		},
		TopAffectedLocations: []LocationStat{},
	}

	byLocation := make(map[string]*LocationStat)
	for _, o := range active {
		s.SeverityDistribution[string(o.Severity)]++
		key := model.LocationKey(o.Location)
		ls, ok := byLocation[key]
		if !ok {
			ls = &LocationStat{Location: o.Location, Reports: perLocation[key]}
			byLocation[key] = ls
		}
		ls.Outbreaks++
	}
	for _, ls := range byLocation {
		s.TopAffectedLocations = append(s.TopAffectedLocations, *ls)
	}
	sort.Slice(s.TopAffectedLocations, func(i, j int) bool {
		a, b := s.TopAffectedLocations[i], s.TopAffectedLocations[j]
		if a.Outbreaks != b.Outbreaks {
			return a.Outbreaks > b.Outbreaks
		}
		if a.Reports != b.Reports {
			return a.Reports > b.Reports
		}
		return a.Location < b.Location
	})
	if len(s.TopAffectedLocations) > topLocations {
		s.TopAffectedLocations = s.TopAffectedLocations[:topLocations]
	}

	if totalReports > 0 {
		rate := float64(s.ActiveOutbreaks) / float64(totalReports) * 100
		s.DetectionRate = math.Round(rate*100) / 100
	}
	return s, nil
}
