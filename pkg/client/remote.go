package client

import (
	"context"

	"github.com/tensorplex-labs/ensemble/pkg/api"
	"github.com/tensorplex-labs/ensemble/pkg/ensemble"
)

// KindRemote is reported by a Remote that uses a server-side named ensembler.
const KindRemote ensemble.Kind = "remote"

// Remote is a ScoreEnsembler whose Combine is answered by a scoring server.
type Remote struct {
	ctx       context.Context
	client    *Client
	baseURL   string
	name      string
	ensembler *ensemble.Definition
}

// NewRemote returns an ensembler backed by the server at baseURL. def may be
// nil, in which case name (or the server default when empty) is used. ctx
// bounds every Combine call.
func NewRemote(ctx context.Context, c *Client, baseURL, name string, def *ensemble.Definition) *Remote {
	return &Remote{ctx: ctx, client: c, baseURL: baseURL, name: name, ensembler: def}
}

func (r *Remote) Kind() ensemble.Kind {
	if r.ensembler != nil {
		return r.ensembler.Kind
	}
	return KindRemote
}

func (r *Remote) Combine(scores []float64) (float64, error) {
	resp, err := r.client.Combine(r.ctx, r.baseURL, api.CombineRequest{
		Name:      r.name,
		Ensembler: r.ensembler,
		Scores:    scores,
	})
	if err != nil {
		return 0, err
	}
	return resp.Score, nil
}
