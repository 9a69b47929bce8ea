package capture

// Predictions maps request ids to predictions and remembers the order in
// which ids were first added. Adding an existing id replaces its prediction
// but keeps its position.
type Predictions struct {
	order  []string
	values map[string]Prediction
}

// NewPredictions returns an empty collection.
func NewPredictions() *Predictions {
	return &Predictions{values: make(map[string]Prediction)}
}

// Add records the prediction for id.
func (p *Predictions) Add(id string, pred Prediction) {
	if _, ok := p.values[id]; !ok {
		p.order = append(p.order, id)
	}
	p.values[id] = pred
}

// Get returns the prediction recorded for id.
func (p *Predictions) Get(id string) (Prediction, bool) {
	v, ok := p.values[id]
	return v, ok
}

// Len returns the number of distinct ids.
func (p *Predictions) Len() int { return len(p.order) }

// IDs returns the ids in insertion order.
func (p *Predictions) IDs() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// FromRecords builds a collection from decoded records, in record order.
func FromRecords(records []Record) *Predictions {
	p := NewPredictions()
	for _, r := range records {
		p.Add(r.RequestID, r.Predicted)
	}
	return p
}
