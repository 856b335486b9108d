package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

// parameter evaluates a ParameterDescriptor lazily and at most once.
type parameter struct {
	desc scenario.ParameterDescriptor

	once  sync.Once
	value any
	err   error
}

func newParameters(descs []scenario.ParameterDescriptor) []*parameter {
	params := make([]*parameter, len(descs))
	for i, desc := range descs {
		params[i] = &parameter{desc: desc}
	}
	return params
}

func (p *parameter) resolve(ctx context.Context, execCtx any) (any, error) {
	p.once.Do(func() {
		if p.desc.Evaluate == nil {
			p.value = p.desc.Value
			return
		}
		p.err = callRecovered(func() error {
			v, err := p.desc.Evaluate(ctx, execCtx)
			p.value = v
			return err
		})
		if p.err != nil {
			p.err = scenario.NewError(scenario.ErrCodeParameter, fmt.Sprintf("evaluation of parameter %q failed", p.desc.Name), p.err, map[string]interface{}{
				"parameter": p.desc.Name,
			})
		}
	})
	return p.value, p.err
}

// describe renders the evaluated parameter for results and names.
func (p *parameter) describe() scenario.ParameterResult {
	res := scenario.ParameterResult{Name: p.desc.Name, Value: fmt.Sprintf("%v", p.value)}
	if v, ok := p.value.(scenario.Verifiable); ok {
		verification := v.Verify()
		if verification.Status != scenario.StatusNotRun {
			res.Verification = &verification
		}
	}
	return res
}
