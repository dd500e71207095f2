package experiment

import "fmt"

// Record is one sampling-interval summary of the population.
type Record struct {
	RunID      string `json:"run_id,omitempty"`
	Tick       uint64 `json:"tick"`
	Population int    `json:"population"`

	Groups           int       `json:"groups"`
	OfferMean        float64   `json:"offer_mean"`
	OfferSD          float64   `json:"offer_sd"`
	OfferNow         float64   `json:"offer_now"`
	AcceptMean       float64   `json:"accept_mean"`
	AcceptSD         float64   `json:"accept_sd"`
	AcceptNow        float64   `json:"accept_now"`
	RejectionRate    float64   `json:"rejection_rate"`
	OfferFreq        []float64 `json:"offer_freq"`
	RejectionByOffer []float64 `json:"rejection_by_offer"`
	AcceptFreq       []float64 `json:"accept_freq"`
	DispersalRate    float64   `json:"dispersal_rate"`
	ClusterMean      float64   `json:"cluster_mean"`
	ClusterSD        float64   `json:"cluster_sd"`
	ClusterFreq      []float64 `json:"cluster_freq"`
	ClusterOffer     []float64 `json:"cluster_offer"` // mean offer by cluster size
	ClusterAgents    []float64 `json:"cluster_agents"` // mean agent count by cluster size
	FitnessByOffer   []float64 `json:"fitness_by_offer"`
}

// Values flattens the record into its numeric row. RunID, Tick and
// Population are metadata and are not part of the row.
func (r Record) Values() []float64 {
	out := make([]float64, 0, 11+len(r.OfferFreq)+len(r.RejectionByOffer)+len(r.AcceptFreq)+
		len(r.ClusterFreq)+len(r.ClusterOffer)+len(r.ClusterAgents)+len(r.FitnessByOffer))
	out = append(out,
		float64(r.Groups),
		r.OfferMean, r.OfferSD, r.OfferNow,
		r.AcceptMean, r.AcceptSD, r.AcceptNow,
		r.RejectionRate,
	)
	out = append(out, r.OfferFreq...)
	out = append(out, r.RejectionByOffer...)
	out = append(out, r.AcceptFreq...)
	out = append(out, r.DispersalRate, r.ClusterMean, r.ClusterSD)
	out = append(out, r.ClusterFreq...)
	out = append(out, r.ClusterOffer...)
	out = append(out, r.ClusterAgents...)
	out = append(out, r.FitnessByOffer...)
	return out
}

// Columns names each entry of Values.
func (r Record) Columns() []string {
	cols := []string{
		"groups",
		"offer_mean", "offer_sd", "offer_now",
		"accept_mean", "accept_sd", "accept_now",
		"rejection_rate",
	}
	series := func(prefix string, n int) {
		for i := 0; i < n; i++ {
			cols = append(cols, fmt.Sprintf("%s_%d", prefix, i))
		}
	}
	series("offer_freq", len(r.OfferFreq))
	series("rejection_by_offer", len(r.RejectionByOffer))
	series("accept_freq", len(r.AcceptFreq))
	cols = append(cols, "dispersal_rate", "cluster_mean", "cluster_sd")
	series("cluster_freq", len(r.ClusterFreq))
	series("cluster_offer", len(r.ClusterOffer))
	series("cluster_agents", len(r.ClusterAgents))
	series("fitness_by_offer", len(r.FitnessByOffer))
	return cols
}

// RecordSink receives every emitted record.
type RecordSink interface {
	WriteRecord(Record) error
}
